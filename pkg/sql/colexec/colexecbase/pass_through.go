// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package colexecbase contains the basic operators used to feed, shape and
// drain spatial join pipelines.
package colexecbase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/sql/colexecop"
)

// oneBatchHelper is the state shared by operators that transform one input
// batch into at most one output batch.
type oneBatchHelper struct {
	pending  coldata.Batch
	finished bool
	closed   bool
}

func (h *oneBatchHelper) NeedsInput() bool {
	return !h.finished && h.pending == nil
}

func (h *oneBatchHelper) setPending(batch coldata.Batch) error {
	if h.pending != nil || h.finished {
		return errors.AssertionFailedf("operator does not need input")
	}
	if batch.Length() > 0 {
		h.pending = batch
	}
	return nil
}

func (h *oneBatchHelper) GetOutput(context.Context) (coldata.Batch, error) {
	b := h.pending
	h.pending = nil
	return b, nil
}

func (h *oneBatchHelper) Finish(context.Context) error {
	h.finished = true
	return nil
}

func (h *oneBatchHelper) IsFinished() bool {
	return h.finished && h.pending == nil
}

func (h *oneBatchHelper) IsBlocked() colexecop.Future {
	return colexecop.NotBlocked
}

func (h *oneBatchHelper) Close(context.Context) error {
	h.closed = true
	h.pending = nil
	return nil
}
