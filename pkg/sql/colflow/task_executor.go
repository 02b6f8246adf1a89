// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package colflow

import (
	"context"
	"time"

	"github.com/marusama/semaphore"
	"github.com/simpligility/trino/pkg/base"
	"github.com/simpligility/trino/pkg/sql/colexecop"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/simpligility/trino/pkg/util/syncutil"
	"golang.org/x/sync/errgroup"
)

// DefaultQuantum is the time a driver runs before it is asked to yield.
const DefaultQuantum = base.DefaultQuantum

// blockedLogLimiter rate limits the reports of blocked drivers.
var blockedLogLimiter = log.Every(10 * time.Second)

// TaskExecutor runs drivers with a bounded number of them running at any
// time. A driver waiting on a future does not hold a slot.
type TaskExecutor struct {
	slots   semaphore.Semaphore
	quantum time.Duration

	// parked holds the ids of the drivers waiting on a future.
	parked syncutil.Set[int]
}

// NewTaskExecutor returns an executor running at most workers drivers at
// once, each for at most quantum before it is rescheduled.
func NewTaskExecutor(workers int, quantum time.Duration) *TaskExecutor {
	if workers < 1 {
		workers = 1
	}
	if quantum <= 0 {
		quantum = DefaultQuantum
	}
	return &TaskExecutor{slots: semaphore.New(workers), quantum: quantum}
}

// NumParked returns the number of drivers currently waiting on a future.
func (e *TaskExecutor) NumParked() int {
	return e.parked.Len()
}

// Run runs every driver to completion. The first driver error cancels the
// others and is returned. Every driver is closed when Run returns.
func (e *TaskExecutor) Run(ctx context.Context, drivers ...*Driver) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, d := range drivers {
		d := d
		g.Go(func() error {
			return e.runDriver(gCtx, d)
		})
	}
	err := g.Wait()
	for _, d := range drivers {
		if closeErr := d.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

func (e *TaskExecutor) runDriver(ctx context.Context, d *Driver) error {
	for {
		if err := e.slots.Acquire(ctx, 1); err != nil {
			return cancelDriver(ctx, d)
		}
		blocked, err := d.ProcessFor(ctx, e.quantum)
		e.slots.Release(1)
		if err != nil {
			return err
		}
		if d.IsFinished() {
			log.VEventf(ctx, 2, "driver %d finished", d.Context().ID)
			return nil
		}
		id := d.Context().ID
		if !colexecop.IsDone(blocked) {
			e.parked.Add(id)
			if log.V(1) && blockedLogLimiter.ShouldLog() {
				log.Infof(ctx, "driver %d is blocked, %d drivers waiting", id, e.parked.Len())
			}
		}
		select {
		case <-blocked.Done():
			e.parked.Remove(id)
		case <-ctx.Done():
			e.parked.Remove(id)
			return cancelDriver(ctx, d)
		}
	}
}

// cancelDriver lets d observe the cancellation of ctx, which fails and
// closes it.
func cancelDriver(ctx context.Context, d *Driver) error {
	_, err := d.ProcessUntilBlocked(ctx)
	return err
}
