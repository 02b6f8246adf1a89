// Copyright 2016 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package mon

import (
	"context"

	"github.com/cockroachdb/errors"
)

// BoundAccount tracks the memory usage of a single component against a
// monitor. It is not safe for concurrent use.
//
// The zero value is an account that is not bound to any monitor and
// accepts every reservation, which is convenient in tests.
type BoundAccount struct {
	used int64
	mon  *BytesMonitor
}

// MakeBoundAccount creates a BoundAccount connected to the given monitor.
func (mm *BytesMonitor) MakeBoundAccount() BoundAccount {
	return BoundAccount{mon: mm}
}

// Used returns the number of bytes currently reserved by the account.
func (b *BoundAccount) Used() int64 {
	return b.used
}

// Monitor returns the monitor the account is bound to, if any.
func (b *BoundAccount) Monitor() *BytesMonitor {
	return b.mon
}

// Grow requests x more bytes. On failure nothing is reserved and the error
// carries pgcode.OutOfMemory.
func (b *BoundAccount) Grow(ctx context.Context, x int64) error {
	if x < 0 {
		return errors.AssertionFailedf("cannot grow account by negative %d bytes", x)
	}
	if b.mon != nil {
		if err := b.mon.reserveBytes(ctx, x); err != nil {
			return err
		}
	}
	b.used += x
	return nil
}

// Shrink releases x bytes, which must have been reserved.
func (b *BoundAccount) Shrink(ctx context.Context, x int64) {
	if x > b.used {
		x = b.used
	}
	if b.mon != nil {
		b.mon.releaseBytes(ctx, x)
	}
	b.used -= x
}

// Resize changes the reservation of an allocation from oldSz to newSz.
func (b *BoundAccount) Resize(ctx context.Context, oldSz, newSz int64) error {
	delta := newSz - oldSz
	switch {
	case delta > 0:
		return b.Grow(ctx, delta)
	case delta < 0:
		b.Shrink(ctx, -delta)
	}
	return nil
}

// Clear releases everything the account reserved but keeps it open.
func (b *BoundAccount) Clear(ctx context.Context) {
	b.Shrink(ctx, b.used)
}

// Close releases everything the account reserved. The account can be
// reused afterwards.
func (b *BoundAccount) Close(ctx context.Context) {
	b.Clear(ctx)
}
