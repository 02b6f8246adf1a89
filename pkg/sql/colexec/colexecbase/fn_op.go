// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package colexecbase

import (
	"context"

	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/sql/colexecop"
)

// fnOp is an operator that executes an arbitrary function for its side-effects,
// once per input batch, passing the input batch unmodified along.
type fnOp struct {
	oneBatchHelper
	colexecop.NonExplainable

	fn func(context.Context, coldata.Batch) error
}

var _ colexecop.Operator = &fnOp{}

// NewFnOp returns an operator calling fn on every non-empty input batch. An
// error returned by fn fails the pipeline.
func NewFnOp(fn func(context.Context, coldata.Batch) error) colexecop.Operator {
	return &fnOp{fn: fn}
}

func (f *fnOp) AddInput(ctx context.Context, batch coldata.Batch) error {
	if err := f.setPending(batch); err != nil {
		return err
	}
	if batch.Length() == 0 {
		return nil
	}
	return f.fn(ctx, batch)
}
