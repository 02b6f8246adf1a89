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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/stretchr/testify/require"
)

var testTypes = []coltypes.T{coltypes.Int64, coltypes.Bytes, coltypes.Float64}

func testBatch(t *testing.T, rows ...[]interface{}) coldata.Batch {
	b, err := coldata.BatchFromRows(testTypes, rows...)
	require.NoError(t, err)
	return b
}

func TestValuesAndCollector(t *testing.T) {
	ctx := context.Background()
	values := NewValuesOp(
		testBatch(t, []interface{}{1, "a", 1.5}),
		testBatch(t),
		testBatch(t, []interface{}{2, nil, 2.5}),
	)
	require.False(t, values.NeedsInput())
	require.Error(t, values.AddInput(ctx, testBatch(t)))

	sink := NewCollectorOp()
	for !values.IsFinished() {
		b, err := values.GetOutput(ctx)
		require.NoError(t, err)
		require.True(t, sink.NeedsInput())
		require.NoError(t, sink.AddInput(ctx, b))
	}
	require.NoError(t, sink.Finish(ctx))
	require.True(t, sink.IsFinished())
	require.False(t, sink.NeedsInput())
	require.Error(t, sink.AddInput(ctx, testBatch(t)))

	require.Equal(t, [][]interface{}{
		{int64(1), []byte("a"), 1.5},
		{int64(2), nil, 2.5},
	}, sink.Rows())
	require.NoError(t, sink.Close(ctx))
	require.True(t, sink.Closed())
}

func TestSimpleProjectOp(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, NewSimpleProjectOp(3, []int{0, 1, 2}))

	op := NewSimpleProjectOp(3, []int{2, 0})
	require.True(t, op.NeedsInput())
	require.NoError(t, op.AddInput(ctx, testBatch(t, []interface{}{7, "x", 0.5})))
	require.False(t, op.NeedsInput())

	out, err := op.GetOutput(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, out.Width())
	require.Equal(t, []coltypes.T{coltypes.Float64, coltypes.Int64}, out.Types())
	require.Equal(t, 0.5, coldata.ValueAt(out.ColVec(0), 0))
	require.Equal(t, int64(7), coldata.ValueAt(out.ColVec(1), 0))
	require.Equal(t, "Batch{width=2,length=1}", out.(*projectingBatch).String())

	require.False(t, op.IsFinished())
	require.NoError(t, op.Finish(ctx))
	require.True(t, op.IsFinished())
}

func TestFnOp(t *testing.T) {
	ctx := context.Background()
	var seen int
	boom := errors.New("boom")
	op := NewFnOp(func(_ context.Context, b coldata.Batch) error {
		seen += b.Length()
		if seen > 2 {
			return boom
		}
		return nil
	})
	require.NoError(t, op.AddInput(ctx, testBatch(t, []interface{}{1, "a", 1.0}, []interface{}{2, "b", 2.0})))
	out, err := op.GetOutput(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, out.Length())
	require.True(t, errors.Is(op.AddInput(ctx, testBatch(t, []interface{}{3, "c", 3.0})), boom))
	require.Equal(t, 3, seen)
}
