// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package colflow_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/sql/colexec/colexecbase"
	"github.com/simpligility/trino/pkg/sql/colexecop"
	"github.com/simpligility/trino/pkg/sql/colflow"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
	"github.com/simpligility/trino/pkg/util/leaktest"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/stretchr/testify/require"
)

func TestTaskExecutorBoundsRunningDrivers(t *testing.T) {
	defer leaktest.AfterTest(t)()
	defer log.Scope(t).Close(t)

	const numDrivers, numWorkers = 8, 2
	var running, maxRunning int32
	var drivers []*colflow.Driver
	var sinks []*colexecbase.CollectorOp
	for i := 0; i < numDrivers; i++ {
		fn := colexecbase.NewFnOp(func(context.Context, coldata.Batch) error {
			n := atomic.AddInt32(&running, 1)
			defer atomic.AddInt32(&running, -1)
			for {
				max := atomic.LoadInt32(&maxRunning)
				if n <= max || atomic.CompareAndSwapInt32(&maxRunning, max, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			return nil
		})
		sink := colexecbase.NewCollectorOp()
		d, err := colflow.NewDriver(colexecop.NewDriverContext(i),
			colexecbase.NewValuesOp(intBatches(t, 5)...), fn, sink)
		require.NoError(t, err)
		drivers = append(drivers, d)
		sinks = append(sinks, sink)
	}

	e := colflow.NewTaskExecutor(numWorkers, time.Millisecond)
	require.NoError(t, e.Run(context.Background(), drivers...))
	for i, d := range drivers {
		require.True(t, d.IsFinished())
		require.Len(t, sinks[i].Rows(), 5)
	}
	require.LessOrEqual(t, atomic.LoadInt32(&maxRunning), int32(numWorkers))
}

func TestTaskExecutorWaitsOnBlockedDrivers(t *testing.T) {
	defer leaktest.AfterTest(t)()
	defer log.Scope(t).Close(t)

	// The consumer is blocked until the producer ran, and holds no slot
	// while it waits.
	gate := newGateOp()
	consumerSink := colexecbase.NewCollectorOp()
	consumer, err := colflow.NewDriver(colexecop.NewDriverContext(0),
		colexecbase.NewValuesOp(intBatches(t, 1)...), gate, consumerSink)
	require.NoError(t, err)
	producer, err := colflow.NewDriver(colexecop.NewDriverContext(1),
		colexecbase.NewValuesOp(intBatches(t, 1)...),
		colexecbase.NewFnOp(func(context.Context, coldata.Batch) error {
			gate.gate.Resolve()
			return nil
		}),
		colexecbase.NewCollectorOp())
	require.NoError(t, err)

	e := colflow.NewTaskExecutor(1, colflow.DefaultQuantum)
	require.NoError(t, e.Run(context.Background(), consumer, producer))
	require.Len(t, consumerSink.Rows(), 1)
	require.Zero(t, e.NumParked())
}

func TestTaskExecutorCancelsOnError(t *testing.T) {
	defer leaktest.AfterTest(t)()
	defer log.Scope(t).Close(t)

	boom := errors.New("boom")
	gate := newGateOp()
	stuckSink := colexecbase.NewCollectorOp()
	stuck, err := colflow.NewDriver(colexecop.NewDriverContext(0),
		colexecbase.NewValuesOp(intBatches(t, 1)...), gate, stuckSink)
	require.NoError(t, err)
	failing, err := colflow.NewDriver(colexecop.NewDriverContext(1),
		colexecbase.NewValuesOp(intBatches(t, 1)...),
		colexecbase.NewFnOp(func(context.Context, coldata.Batch) error { return boom }),
		colexecbase.NewCollectorOp())
	require.NoError(t, err)

	e := colflow.NewTaskExecutor(4, colflow.DefaultQuantum)
	err = e.Run(context.Background(), stuck, failing)
	require.True(t, errors.Is(err, boom), "%+v", err)
	require.True(t, stuckSink.Closed())
	require.True(t, gate.closed)
	require.Zero(t, e.NumParked())

	_, err = stuck.ProcessUntilBlocked(context.Background())
	require.Equal(t, pgcode.QueryCanceled, pgerror.GetPGCode(err))
}
