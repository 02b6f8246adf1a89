// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package colexecop

import (
	"context"

	"github.com/cockroachdb/logtags"
	"github.com/simpligility/trino/pkg/util/admission"
)

// DriverContext describes the driver an operator is created for.
type DriverContext struct {
	// ID identifies the driver within its task.
	ID int
	// Yield is raised by the driver when its time quantum is used up.
	// Operators with long-running loops poll it and return early.
	Yield *admission.YieldSignal
}

// NewDriverContext returns a context for driver id with a fresh yield
// signal.
func NewDriverContext(id int) *DriverContext {
	return &DriverContext{ID: id, Yield: admission.NewYieldSignal()}
}

// AnnotateCtx adds the driver's log tag and yield signal to ctx.
func (d *DriverContext) AnnotateCtx(ctx context.Context) context.Context {
	ctx = logtags.AddTag(ctx, "driver", d.ID)
	return admission.ContextWithYieldSignal(ctx, d.Yield)
}
