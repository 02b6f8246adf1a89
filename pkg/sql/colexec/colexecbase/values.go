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

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/sql/colexecop"
)

// ValuesOp is a source operator emitting a fixed list of batches.
type ValuesOp struct {
	batches []coldata.Batch
	closed  bool
}

var _ colexecop.Operator = &ValuesOp{}

// NewValuesOp returns a source emitting batches in order. Empty batches are
// skipped.
func NewValuesOp(batches ...coldata.Batch) *ValuesOp {
	op := &ValuesOp{}
	for _, b := range batches {
		if b != nil && b.Length() > 0 {
			op.batches = append(op.batches, b)
		}
	}
	return op
}

// NeedsInput implements the colexecop.Operator interface.
func (v *ValuesOp) NeedsInput() bool { return false }

// AddInput implements the colexecop.Operator interface.
func (v *ValuesOp) AddInput(context.Context, coldata.Batch) error {
	return errors.AssertionFailedf("values operator does not take input")
}

// GetOutput implements the colexecop.Operator interface.
func (v *ValuesOp) GetOutput(context.Context) (coldata.Batch, error) {
	if len(v.batches) == 0 {
		return nil, nil
	}
	b := v.batches[0]
	v.batches = v.batches[1:]
	return b, nil
}

// Finish implements the colexecop.Operator interface.
func (v *ValuesOp) Finish(context.Context) error { return nil }

// IsFinished implements the colexecop.Operator interface.
func (v *ValuesOp) IsFinished() bool { return len(v.batches) == 0 }

// IsBlocked implements the colexecop.Operator interface.
func (v *ValuesOp) IsBlocked() colexecop.Future { return colexecop.NotBlocked }

// Close implements the colexecop.Operator interface.
func (v *ValuesOp) Close(context.Context) error {
	v.closed = true
	v.batches = nil
	return nil
}

// CollectorOp is a sink operator retaining every batch it is handed.
type CollectorOp struct {
	batches  []coldata.Batch
	finished bool
	closed   bool
}

var _ colexecop.Operator = &CollectorOp{}

// NewCollectorOp returns an empty sink.
func NewCollectorOp() *CollectorOp {
	return &CollectorOp{}
}

// NeedsInput implements the colexecop.Operator interface.
func (c *CollectorOp) NeedsInput() bool { return !c.finished }

// AddInput implements the colexecop.Operator interface.
func (c *CollectorOp) AddInput(_ context.Context, batch coldata.Batch) error {
	if c.finished {
		return errors.AssertionFailedf("collector received input after finish")
	}
	if batch.Length() > 0 {
		c.batches = append(c.batches, batch)
	}
	return nil
}

// GetOutput implements the colexecop.Operator interface.
func (c *CollectorOp) GetOutput(context.Context) (coldata.Batch, error) { return nil, nil }

// Finish implements the colexecop.Operator interface.
func (c *CollectorOp) Finish(context.Context) error {
	c.finished = true
	return nil
}

// IsFinished implements the colexecop.Operator interface.
func (c *CollectorOp) IsFinished() bool { return c.finished }

// IsBlocked implements the colexecop.Operator interface.
func (c *CollectorOp) IsBlocked() colexecop.Future { return colexecop.NotBlocked }

// Close implements the colexecop.Operator interface.
func (c *CollectorOp) Close(context.Context) error {
	c.closed = true
	return nil
}

// Closed returns whether Close was called.
func (c *CollectorOp) Closed() bool { return c.closed }

// Batches returns the collected batches.
func (c *CollectorOp) Batches() []coldata.Batch { return c.batches }

// Rows returns the collected rows as Go native values, see coldata.ValueAt.
func (c *CollectorOp) Rows() [][]interface{} {
	var rows [][]interface{}
	for _, b := range c.batches {
		for i := 0; i < b.Length(); i++ {
			row := make([]interface{}, b.Width())
			for j := range row {
				row[j] = coldata.ValueAt(b.ColVec(j), i)
			}
			rows = append(rows, row)
		}
	}
	return rows
}
