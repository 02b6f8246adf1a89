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
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/simpligility/trino/pkg/util/admission"
	"github.com/stretchr/testify/require"
)

func TestPromise(t *testing.T) {
	require.True(t, IsDone(NotBlocked))

	p := NewPromise()
	require.False(t, IsDone(p))
	p.Resolve()
	p.Resolve()
	require.True(t, IsDone(p))
}

func TestAnyOf(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, NotBlocked, AnyOf(ctx))

	a, b := NewPromise(), NewPromise()
	require.Same(t, a, AnyOf(ctx, a))

	f := AnyOf(ctx, a, b)
	require.False(t, IsDone(f))
	b.Resolve()
	select {
	case <-f.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("AnyOf did not resolve")
	}
	require.Equal(t, NotBlocked, AnyOf(ctx, a, b))

	cctx, cancel := context.WithCancel(ctx)
	f = AnyOf(cctx, NewPromise(), NewPromise())
	cancel()
	select {
	case <-f.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("AnyOf did not resolve on cancellation")
	}
}

type testCloser struct {
	closed int
	err    error
}

func (c *testCloser) Close(context.Context) error {
	c.closed++
	return c.err
}

func TestClosers(t *testing.T) {
	a, b := &testCloser{err: errors.New("a")}, &testCloser{err: errors.New("b")}
	err := Closers{a, b}.Close(context.Background())
	require.EqualError(t, err, "a")
	require.Equal(t, 1, a.closed)
	require.Equal(t, 1, b.closed)
}

func TestDriverContext(t *testing.T) {
	d := NewDriverContext(4)
	ctx := d.AnnotateCtx(context.Background())
	require.NotNil(t, d.Yield)
	require.False(t, d.Yield.IsSet())
	require.Same(t, d.Yield, admission.YieldSignalFromContext(ctx))
	require.Equal(t, "driver=4", logtags.FromContext(ctx).String())
}
