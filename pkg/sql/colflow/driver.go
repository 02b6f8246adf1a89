// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package colflow runs pipelines of operators.
//
// A Driver owns one pipeline and moves batches between adjacent operators
// whenever it is given a goroutine. It never blocks: when no operator can
// make progress it returns a future the caller waits on before calling it
// again. The TaskExecutor multiplexes many drivers over a bounded number of
// concurrently running ones.
package colflow

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/sql/colexecerror"
	"github.com/simpligility/trino/pkg/sql/colexecop"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
	"github.com/simpligility/trino/pkg/util/log"
)

// Driver runs a pipeline of operators, the first being the source and the
// last the sink. A Driver must only be used by one goroutine at a time.
type Driver struct {
	dctx *colexecop.DriverContext
	ops  []colexecop.Operator

	// err is the error the driver failed with, if any.
	err    error
	closed bool
	// stopWait releases the wait on the blocked operators started by the
	// last call to processOnce.
	stopWait context.CancelFunc
}

// NewDriver returns a driver for the given pipeline.
func NewDriver(dctx *colexecop.DriverContext, ops ...colexecop.Operator) (*Driver, error) {
	if len(ops) == 0 {
		return nil, errors.AssertionFailedf("driver needs at least one operator")
	}
	return &Driver{dctx: dctx, ops: ops}, nil
}

// Context returns the context describing the driver.
func (d *Driver) Context() *colexecop.DriverContext {
	return d.dctx
}

// Operators returns the pipeline.
func (d *Driver) Operators() []colexecop.Operator {
	return d.ops
}

// IsFinished returns whether the sink finished or the driver failed.
func (d *Driver) IsFinished() bool {
	return d.closed || d.err != nil || d.ops[len(d.ops)-1].IsFinished()
}

// ProcessFor runs the pipeline until it is blocked, finished, or quantum
// elapsed. The yield signal of the driver is raised once quantum elapses so
// that long running operators return early.
func (d *Driver) ProcessFor(ctx context.Context, quantum time.Duration) (colexecop.Future, error) {
	d.dctx.Yield.SetWithDelay(quantum)
	defer d.dctx.Yield.Reset()
	deadline := time.Now().Add(quantum)
	return d.process(ctx, func() bool { return time.Now().Before(deadline) })
}

// ProcessUntilBlocked runs the pipeline until it is blocked or finished.
func (d *Driver) ProcessUntilBlocked(ctx context.Context) (colexecop.Future, error) {
	return d.process(ctx, func() bool { return true })
}

func (d *Driver) process(ctx context.Context, keepGoing func() bool) (colexecop.Future, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.closed {
		return colexecop.NotBlocked, nil
	}
	ctx = d.dctx.AnnotateCtx(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return nil, d.fail(ctx, pgerror.Wrap(err, pgcode.QueryCanceled, "driver canceled"))
		}
		var blocked colexecop.Future
		if err := colexecerror.CatchVectorizedRuntimeError(func() {
			var err error
			blocked, err = d.processOnce(ctx)
			if err != nil {
				colexecerror.ExpectedError(err)
			}
		}); err != nil {
			return nil, d.fail(ctx, err)
		}
		if d.IsFinished() {
			return colexecop.NotBlocked, d.Close(ctx)
		}
		if !colexecop.IsDone(blocked) {
			return blocked, nil
		}
		if !keepGoing() {
			return colexecop.NotBlocked, nil
		}
	}
}

// processOnce moves at most one batch between each pair of adjacent
// operators. If nothing moved, it returns a future resolved once any
// blocked operator may make progress.
func (d *Driver) processOnce(ctx context.Context) (colexecop.Future, error) {
	moved := false
	for i := 0; i < len(d.ops)-1; i++ {
		cur, next := d.ops[i], d.ops[i+1]
		if !colexecop.IsDone(cur.IsBlocked()) || !colexecop.IsDone(next.IsBlocked()) {
			continue
		}
		if !cur.IsFinished() && next.NeedsInput() {
			batch, err := cur.GetOutput(ctx)
			if err != nil {
				return nil, err
			}
			if batch != nil && batch.Length() > 0 {
				if err := next.AddInput(ctx, batch); err != nil {
					return nil, err
				}
				moved = true
			}
		}
		if cur.IsFinished() {
			if err := next.Finish(ctx); err != nil {
				return nil, err
			}
		}
	}
	if moved {
		return colexecop.NotBlocked, nil
	}
	var blocked []colexecop.Future
	for _, op := range d.ops {
		if f := op.IsBlocked(); !colexecop.IsDone(f) {
			blocked = append(blocked, f)
		}
	}
	if len(blocked) == 0 {
		return colexecop.NotBlocked, nil
	}
	d.releaseWait()
	ctx, d.stopWait = context.WithCancel(ctx)
	return colexecop.AnyOf(ctx, blocked...), nil
}

// releaseWait resolves the future returned by the last call to processOnce
// if it is still pending.
func (d *Driver) releaseWait() {
	if d.stopWait != nil {
		d.stopWait()
		d.stopWait = nil
	}
}

func (d *Driver) fail(ctx context.Context, err error) error {
	d.err = err
	log.VEventf(ctx, 1, "driver failed: %v", err)
	if closeErr := d.Close(ctx); closeErr != nil {
		log.Warningf(ctx, "error closing failed driver: %v", closeErr)
	}
	return err
}

// Close closes every operator of the pipeline. It is idempotent.
func (d *Driver) Close(ctx context.Context) error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.releaseWait()
	closers := make(colexecop.Closers, len(d.ops))
	for i, op := range d.ops {
		closers[i] = op
	}
	return closers.Close(ctx)
}
