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
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/simpligility/trino/pkg/col/coltypes"
)

// Batch is the type that columnar operators receive and produce. It
// represents a set of column vectors (partial data columns) as well as
// metadata about a batch, like its length. A Batch is immutable once it has
// been produced by a BatchBuilder.
type Batch interface {
	// Length returns the number of values in the columns in the batch.
	Length() int
	// Width returns the number of columns in the batch.
	Width() int
	// ColVec returns the ith Vec in this batch.
	ColVec(i int) Vec
	// ColVecs returns all of the underlying Vecs in this batch.
	ColVecs() []Vec
	// Types returns the type of every column in the batch.
	Types() []coltypes.T
}

var _ Batch = &memBatch{}

// defaultBatchSize is the size of batches that is used in the non-test
// setting.
const defaultBatchSize = 1024

var batchSize int64 = defaultBatchSize

// BatchSize is the maximum number of tuples that fit in a column batch.
func BatchSize() int {
	return int(atomic.LoadInt64(&batchSize))
}

// SetBatchSize sets the maximum number of tuples per batch for the process.
// It must be called before any operator is created.
func SetBatchSize(newBatchSize int) error {
	if newBatchSize < 1 {
		return errors.Newf("batch size %d is invalid", newBatchSize)
	}
	atomic.StoreInt64(&batchSize, int64(newBatchSize))
	return nil
}

// SetBatchSizeForTests modifies batchSize variable. It should only be used in
// tests. It returns a function that restores the previous value.
func SetBatchSizeForTests(newBatchSize int) func() {
	if newBatchSize < 1 {
		panic(errors.AssertionFailedf("batch size %d is invalid", newBatchSize))
	}
	prev := atomic.SwapInt64(&batchSize, int64(newBatchSize))
	return func() { atomic.StoreInt64(&batchSize, prev) }
}

// memBatch is the type that columnar operators receive and produce. It
// represents a set of column vectors (partial data columns) as well as
// metadata about a batch, like its length.
type memBatch struct {
	length int
	typs   []coltypes.T
	b      []Vec
}

func (m *memBatch) Length() int {
	return m.length
}

func (m *memBatch) Width() int {
	return len(m.b)
}

func (m *memBatch) ColVec(i int) Vec {
	return m.b[i]
}

func (m *memBatch) ColVecs() []Vec {
	return m.b
}

func (m *memBatch) Types() []coltypes.T {
	return m.typs
}

// SafeFormat implements the redact.SafeFormatter interface.
func (m *memBatch) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("Batch{width=%d,length=%d}", m.Width(), m.Length())
}

// String implements the fmt.Stringer interface.
func (m *memBatch) String() string {
	return redact.StringWithoutMarkers(m)
}

// ZeroBatch is a schema-less Batch of length 0.
var ZeroBatch Batch = &memBatch{}
