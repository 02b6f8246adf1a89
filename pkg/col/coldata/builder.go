// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package coldata

import (
	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/col/coltypes"
)

// BatchBuilder accumulates rows column by column and produces immutable
// Batches. Every column must be appended to exactly once per row, and each
// row is ended with FinishRow. The row count is kept apart from the
// columns, so that a builder without columns still counts rows.
type BatchBuilder struct {
	typs     []coltypes.T
	capacity int
	cols     []*memColumn
	length   int
}

// NewBatchBuilder returns a builder for batches with the given schema.
// capacity is a hint for the number of rows per batch.
func NewBatchBuilder(typs []coltypes.T, capacity int) *BatchBuilder {
	b := &BatchBuilder{typs: typs, capacity: capacity}
	b.reset()
	return b
}

func (b *BatchBuilder) reset() {
	b.length = 0
	b.cols = make([]*memColumn, len(b.typs))
	for i, t := range b.typs {
		b.cols[i] = newMemColumn(t, b.capacity)
	}
}

// Types returns the schema of the batches being built.
func (b *BatchBuilder) Types() []coltypes.T {
	return b.typs
}

// Length returns the number of rows finished so far.
func (b *BatchBuilder) Length() int {
	return b.length
}

// FinishRow ends the current row.
func (b *BatchBuilder) FinishRow() {
	b.length++
	for i, c := range b.cols {
		if c.Length() != b.length {
			panic(errors.AssertionFailedf(
				"column %d has %d values at the end of row %d", i, c.Length(), b.length))
		}
	}
}

// IsEmpty returns whether no rows have been appended since the last Build.
func (b *BatchBuilder) IsEmpty() bool {
	return b.Length() == 0
}

// AppendFrom appends src[srcIdx] to column colIdx.
func (b *BatchBuilder) AppendFrom(colIdx int, src Vec, srcIdx int) {
	b.cols[colIdx].appendValueFrom(src, srcIdx)
}

// AppendNull appends a NULL to column colIdx.
func (b *BatchBuilder) AppendNull(colIdx int) {
	b.cols[colIdx].appendNull()
}

// AppendDatum appends a Go native value to column colIdx. nil appends NULL.
func (b *BatchBuilder) AppendDatum(colIdx int, v interface{}) error {
	return b.cols[colIdx].appendDatum(v)
}

// AppendRow appends one value per column.
func (b *BatchBuilder) AppendRow(vals ...interface{}) error {
	if len(vals) != len(b.cols) {
		return errors.Newf("expected %d values, found %d", len(b.cols), len(vals))
	}
	for i, v := range vals {
		if err := b.AppendDatum(i, v); err != nil {
			return errors.Wrapf(err, "column %d", i)
		}
	}
	b.FinishRow()
	return nil
}

// Build returns a Batch holding every row appended since the previous call.
// Ownership of the columns moves to the returned Batch; the builder starts
// over with fresh storage.
func (b *BatchBuilder) Build() Batch {
	vecs := make([]Vec, len(b.cols))
	length := b.length
	for i, c := range b.cols {
		if c.Length() != length {
			panic(errors.AssertionFailedf(
				"column %d has %d values, expected %d", i, c.Length(), length))
		}
		vecs[i] = c
	}
	b.reset()
	return &memBatch{length: length, typs: b.typs, b: vecs}
}

// BatchFromRows is a convenience wrapper around BatchBuilder.
func BatchFromRows(typs []coltypes.T, rows ...[]interface{}) (Batch, error) {
	b := NewBatchBuilder(typs, len(rows))
	for _, row := range rows {
		if err := b.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
