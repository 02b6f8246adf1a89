// Copyright 2018 The Cockroach Authors.
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

	"github.com/cockroachdb/redact"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/sql/colexecop"
)

// simpleProjectOp is an operator that implements "simple projection" - removal of
// columns that aren't needed by later operators.
type simpleProjectOp struct {
	oneBatchHelper
	colexecop.NonExplainable

	projection []int
}

var _ colexecop.Operator = &simpleProjectOp{}

// projectingBatch is a Batch that applies a simple projection to another,
// underlying batch, discarding all columns but the ones in its projection
// slice, in order.
type projectingBatch struct {
	coldata.Batch

	projection []int
	colVecs    []coldata.Vec
	typs       []coltypes.T
}

// ProjectBatch returns a view of batch holding only the given columns, in
// order. No column data is copied.
func ProjectBatch(batch coldata.Batch, projection []int) coldata.Batch {
	p := &projectingBatch{
		Batch:      batch,
		projection: projection,
		colVecs:    make([]coldata.Vec, len(projection)),
		typs:       make([]coltypes.T, len(projection)),
	}
	for i, c := range projection {
		p.colVecs[i] = batch.ColVec(c)
		p.typs[i] = batch.Types()[c]
	}
	return p
}

func (b *projectingBatch) ColVec(i int) coldata.Vec {
	return b.colVecs[i]
}

func (b *projectingBatch) ColVecs() []coldata.Vec {
	return b.colVecs
}

func (b *projectingBatch) Width() int {
	return len(b.projection)
}

func (b *projectingBatch) Types() []coltypes.T {
	return b.typs
}

// SafeFormat implements the redact.SafeFormatter interface.
func (b *projectingBatch) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("Batch{width=%d,length=%d}", b.Width(), b.Length())
}

func (b *projectingBatch) String() string {
	return redact.StringWithoutMarkers(b)
}

// NewSimpleProjectOp returns a new simpleProjectOp that applies a simple
// projection on the columns in its input batch, returning a new batch with
// only the columns in the projection slice, in order. In a degenerate case
// when input already outputs batches that satisfy the projection, nil is
// returned and no operator needs to be planned.
func NewSimpleProjectOp(numInputCols int, projection []int) colexecop.Operator {
	if numInputCols == len(projection) {
		projectionIsRedundant := true
		for i := range projection {
			if projection[i] != i {
				projectionIsRedundant = false
			}
		}
		if projectionIsRedundant {
			return nil
		}
	}
	s := &simpleProjectOp{projection: make([]int, len(projection))}
	// We make a copy of projection to be safe.
	copy(s.projection, projection)
	return s
}

func (d *simpleProjectOp) AddInput(_ context.Context, batch coldata.Batch) error {
	if batch.Length() == 0 {
		return d.setPending(batch)
	}
	return d.setPending(ProjectBatch(batch, d.projection))
}
