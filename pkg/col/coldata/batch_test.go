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
	"fmt"
	"testing"

	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/stretchr/testify/require"
)

func TestBatchBuilder(t *testing.T) {
	typs := []coltypes.T{coltypes.Int64, coltypes.Bytes, coltypes.Float64}
	b := NewBatchBuilder(typs, 2)
	require.True(t, b.IsEmpty())
	require.NoError(t, b.AppendRow(1, "a", 1.5))
	require.NoError(t, b.AppendRow(nil, "b", nil))
	require.NoError(t, b.AppendRow(3, nil, 2))
	require.Equal(t, 3, b.Length())

	batch := b.Build()
	require.True(t, b.IsEmpty())
	require.Equal(t, 3, batch.Length())
	require.Equal(t, 3, batch.Width())
	require.Equal(t, typs, batch.Types())
	require.Equal(t, []int64{1, 0, 3}, batch.ColVec(0).Int64())
	require.True(t, batch.ColVec(0).Nulls().NullAt(1))
	require.Nil(t, ValueAt(batch.ColVec(1), 2))
	require.Equal(t, 2.0, ValueAt(batch.ColVec(2), 2))
	require.Equal(t, "Batch{width=3,length=3}", fmt.Sprint(batch))

	// The built batch must not observe rows appended afterwards.
	require.NoError(t, b.AppendRow(4, "d", 4.0))
	require.Equal(t, 3, batch.Length())
	require.Equal(t, 1, b.Build().Length())
}

func TestBatchBuilderErrors(t *testing.T) {
	b := NewBatchBuilder([]coltypes.T{coltypes.Int64}, 1)
	require.Error(t, b.AppendRow(1, 2))
	require.Error(t, b.AppendRow("x"))

	b = NewBatchBuilder([]coltypes.T{coltypes.Int64, coltypes.Int64}, 1)
	b.AppendNull(0)
	require.Panics(t, func() { b.FinishRow() })
}

func TestBatchBuilderWithoutColumns(t *testing.T) {
	b := NewBatchBuilder(nil, 4)
	require.True(t, b.IsEmpty())
	for i := 0; i < 3; i++ {
		b.FinishRow()
	}
	require.Equal(t, 3, b.Length())
	batch := b.Build()
	require.Equal(t, 3, batch.Length())
	require.Equal(t, 0, batch.Width())
	require.True(t, b.IsEmpty())

	batch, err := BatchFromRows(nil, []interface{}{}, []interface{}{})
	require.NoError(t, err)
	require.Equal(t, 2, batch.Length())
}

func TestAppendFrom(t *testing.T) {
	src, err := BatchFromRows([]coltypes.T{coltypes.Geometry, coltypes.Bool},
		[]interface{}{[]byte{1, 2}, true},
		[]interface{}{nil, nil},
	)
	require.NoError(t, err)

	b := NewBatchBuilder([]coltypes.T{coltypes.Bool, coltypes.Geometry}, 2)
	for i := 0; i < src.Length(); i++ {
		b.AppendFrom(0, src.ColVec(1), i)
		b.AppendFrom(1, src.ColVec(0), i)
		b.FinishRow()
	}
	out := b.Build()
	require.Equal(t, true, ValueAt(out.ColVec(0), 0))
	require.Equal(t, []byte{1, 2}, ValueAt(out.ColVec(1), 0))
	require.True(t, out.ColVec(0).Nulls().NullAt(1))
	require.True(t, out.ColVec(1).Nulls().NullAt(1))
	require.Equal(t, "NULL", out.ColVec(1).PrettyValueAt(1))

	require.Panics(t, func() { b.AppendFrom(0, src.ColVec(0), 0) })
}

func TestSetBatchSizeForTests(t *testing.T) {
	restore := SetBatchSizeForTests(7)
	require.Equal(t, 7, BatchSize())
	restore()
	require.Equal(t, defaultBatchSize, BatchSize())
}
