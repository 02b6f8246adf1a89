// Copyright 2022 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package admission contains the cooperative scheduling primitives shared
// by the execution engine: a driver is given a time quantum and the
// operators it runs check a YieldSignal in their tight loops to give the
// goroutine back once the quantum is used up.
package admission

import (
	"context"
	"time"

	"github.com/simpligility/trino/pkg/util/syncutil"
)

// YieldSignal is a per-driver flag raised when the driver has used up its
// time quantum. IsSet is a single atomic load and is meant to be polled in
// tight loops; the other methods are called by the driver once per quantum.
type YieldSignal struct {
	set syncutil.AtomicBool

	mu struct {
		syncutil.Mutex
		timer *time.Timer
		// gen is bumped whenever the pending timer is replaced or cancelled,
		// so that a timer which already fired cannot raise the flag for a
		// later quantum.
		gen uint64
	}
}

// NewYieldSignal returns a YieldSignal that is not set and not armed.
func NewYieldSignal() *YieldSignal {
	return &YieldSignal{}
}

// SetWithDelay arms the signal to be raised after d. Re-arming replaces the
// pending timer. A non-positive d raises the signal immediately.
func (y *YieldSignal) SetWithDelay(d time.Duration) {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.stopLocked()
	if d <= 0 {
		y.set.Set(true)
		return
	}
	gen := y.mu.gen
	y.mu.timer = time.AfterFunc(d, func() {
		y.mu.Lock()
		defer y.mu.Unlock()
		if y.mu.gen == gen {
			y.set.Set(true)
		}
	})
}

// Reset disarms the signal and clears the flag.
func (y *YieldSignal) Reset() {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.stopLocked()
	y.set.Set(false)
}

func (y *YieldSignal) stopLocked() {
	y.mu.gen++
	if y.mu.timer != nil {
		y.mu.timer.Stop()
		y.mu.timer = nil
	}
}

// IsSet returns whether the holder of the signal should yield. It is safe
// to call on a nil signal, which never asks to yield.
func (y *YieldSignal) IsSet() bool {
	if y == nil {
		return false
	}
	return y.set.Get()
}

// ForceYieldForTesting raises the flag immediately.
func (y *YieldSignal) ForceYieldForTesting() {
	y.set.Set(true)
}

type yieldSignalKey struct{}

// ContextWithYieldSignal returns a Context wrapping the supplied yield
// signal, if any.
func ContextWithYieldSignal(ctx context.Context, y *YieldSignal) context.Context {
	if y == nil {
		return ctx
	}
	return context.WithValue(ctx, yieldSignalKey{}, y)
}

// YieldSignalFromContext returns the yield signal contained in the Context,
// if any.
func YieldSignalFromContext(ctx context.Context) *YieldSignal {
	y, _ := ctx.Value(yieldSignalKey{}).(*YieldSignal)
	return y
}
