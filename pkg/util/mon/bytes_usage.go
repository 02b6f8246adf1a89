// Copyright 2016 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package mon tracks the memory retained by query execution.
//
// A BytesMonitor enforces a byte limit over all the accounts opened against
// it, and forwards its reservations to a parent monitor if it has one.
// Components register their allocations through a BoundAccount, which
// remembers how much it has reserved so that it can give everything back
// on Close.
package mon

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/dustin/go-humanize"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/simpligility/trino/pkg/util/syncutil"
)

// Options configures a BytesMonitor.
type Options struct {
	// Name identifies the monitor in logs and errors.
	Name redact.SafeString
	// Limit is the maximum number of bytes the monitor allows to be
	// reserved. Zero or negative means no limit.
	Limit int64
}

// BytesMonitor defines an object that can track and limit memory usage by
// other components. It is safe for concurrent use.
type BytesMonitor struct {
	name   redact.SafeString
	limit  int64
	parent *BytesMonitor

	mu struct {
		syncutil.Mutex
		// curAllocated is the number of bytes currently reserved by the
		// accounts of this monitor.
		curAllocated int64
		// maxAllocated is the high water mark of curAllocated.
		maxAllocated int64
		stopped      bool
	}
}

// NewMonitor creates a new monitor. Start must be called before accounts
// can be used.
func NewMonitor(opts Options) *BytesMonitor {
	limit := opts.Limit
	if limit <= 0 {
		limit = math.MaxInt64
	}
	return &BytesMonitor{name: opts.Name, limit: limit}
}

// NewUnlimitedMonitor creates a started monitor without a limit.
func NewUnlimitedMonitor(ctx context.Context, name redact.SafeString) *BytesMonitor {
	m := NewMonitor(Options{Name: name})
	m.Start(ctx, nil /* parent */)
	return m
}

// Start begins a monitoring region. Reservations are forwarded to parent,
// which may be nil.
func (mm *BytesMonitor) Start(ctx context.Context, parent *BytesMonitor) {
	mm.parent = parent
	if log.V(2) {
		log.Infof(ctx, "%s: starting monitor, limit %s", mm.name, redact.Safe(mm.limitString()))
	}
}

// Stop ends the monitoring region. Any bytes still reserved indicate a leak
// and are reported, then released from the parent.
func (mm *BytesMonitor) Stop(ctx context.Context) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.mu.stopped {
		return
	}
	mm.mu.stopped = true
	if mm.mu.curAllocated != 0 {
		log.Errorf(ctx, "%s: unexpected %d leftover bytes", mm.name, redact.Safe(mm.mu.curAllocated))
		if mm.parent != nil {
			mm.parent.releaseBytes(ctx, mm.mu.curAllocated)
		}
		mm.mu.curAllocated = 0
	}
	if log.V(1) {
		log.Infof(ctx, "%s: stopped with maximum usage %s",
			mm.name, redact.Safe(humanize.IBytes(uint64(mm.mu.maxAllocated))))
	}
}

// Name returns the name of the monitor.
func (mm *BytesMonitor) Name() redact.SafeString {
	return mm.name
}

// Limit returns the byte limit of the monitor.
func (mm *BytesMonitor) Limit() int64 {
	return mm.limit
}

// AllocBytes returns the current number of reserved bytes.
func (mm *BytesMonitor) AllocBytes() int64 {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.mu.curAllocated
}

// MaximumBytes returns the maximum number of bytes that were reserved at
// any one time.
func (mm *BytesMonitor) MaximumBytes() int64 {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.mu.maxAllocated
}

func (mm *BytesMonitor) limitString() string {
	if mm.limit == math.MaxInt64 {
		return "unlimited"
	}
	return humanize.IBytes(uint64(mm.limit))
}

func (mm *BytesMonitor) reserveBytes(ctx context.Context, x int64) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.mu.stopped {
		return errors.AssertionFailedf("%s: reservation on stopped monitor", mm.name)
	}
	if mm.mu.curAllocated > mm.limit-x {
		return pgerror.WithCandidateCode(
			errors.Newf("%s: memory budget exceeded: %s requested, %s currently allocated, %s budget",
				mm.name,
				redact.Safe(humanize.IBytes(uint64(x))),
				redact.Safe(humanize.IBytes(uint64(mm.mu.curAllocated))),
				redact.Safe(mm.limitString()),
			),
			pgcode.OutOfMemory,
		)
	}
	if mm.parent != nil {
		if err := mm.parent.reserveBytes(ctx, x); err != nil {
			return errors.Wrapf(err, "%s", mm.name)
		}
	}
	mm.mu.curAllocated += x
	if mm.mu.curAllocated > mm.mu.maxAllocated {
		mm.mu.maxAllocated = mm.mu.curAllocated
	}
	return nil
}

func (mm *BytesMonitor) releaseBytes(ctx context.Context, x int64) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.mu.curAllocated < x {
		log.Errorf(ctx, "%s: no bytes to release, current %d, free %d",
			mm.name, redact.Safe(mm.mu.curAllocated), redact.Safe(x))
		x = mm.mu.curAllocated
	}
	mm.mu.curAllocated -= x
	if mm.parent != nil {
		mm.parent.releaseBytes(ctx, x)
	}
}
