// Copyright 2022 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package admission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestYieldSignal(t *testing.T) {
	y := NewYieldSignal()
	require.False(t, y.IsSet())

	y.SetWithDelay(time.Millisecond)
	require.Eventually(t, y.IsSet, 10*time.Second, time.Millisecond)

	y.Reset()
	require.False(t, y.IsSet())

	// A reset cancels the pending timer.
	y.SetWithDelay(5 * time.Millisecond)
	y.Reset()
	time.Sleep(20 * time.Millisecond)
	require.False(t, y.IsSet())

	// Re-arming replaces the pending timer.
	y.SetWithDelay(time.Hour)
	y.SetWithDelay(time.Millisecond)
	require.Eventually(t, y.IsSet, 10*time.Second, time.Millisecond)
	y.Reset()

	y.SetWithDelay(0)
	require.True(t, y.IsSet())
	y.Reset()

	y.ForceYieldForTesting()
	require.True(t, y.IsSet())
	y.Reset()
	require.False(t, y.IsSet())
}

func TestYieldSignalNil(t *testing.T) {
	var y *YieldSignal
	require.False(t, y.IsSet())
}

func TestYieldSignalContext(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, YieldSignalFromContext(ctx))
	require.Equal(t, ctx, ContextWithYieldSignal(ctx, nil))

	y := NewYieldSignal()
	require.Same(t, y, YieldSignalFromContext(ContextWithYieldSignal(ctx, y)))
}
