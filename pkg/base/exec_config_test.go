// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package base_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/simpligility/trino/pkg/base"
	"github.com/simpligility/trino/pkg/util/leaktest"
	"github.com/simpligility/trino/pkg/util/log/logconfig"
	"github.com/stretchr/testify/require"
)

func TestParseExecConfig(t *testing.T) {
	defer leaktest.AfterTest(t)()

	cfg, err := base.ParseExecConfig([]byte(`
batch_size: 64
quantum: 50ms
workers: 3
build_memory_limit: 64 MiB
partitions: 4
log:
  verbosity: 2
  format: json
`))
	require.NoError(t, err)
	require.Equal(t, 64, cfg.BatchSize)
	require.Equal(t, 50*time.Millisecond, cfg.Quantum)
	require.Equal(t, 3, cfg.NumWorkers())
	require.Equal(t, int64(64<<20), cfg.BuildMemoryLimitBytes())
	require.Equal(t, 4, cfg.Partitions)
	require.Equal(t, base.DefaultPartitionSampleSize, cfg.PartitionSampleSize)
	require.Equal(t, 2, cfg.Log.Verbosity)
	require.Equal(t, logconfig.FormatJSON, cfg.Log.Format)
	require.Equal(t, logconfig.DestStderr, cfg.Log.Dest)

	// The rendered configuration parses back to itself.
	again, err := base.ParseExecConfig([]byte(cfg.String()))
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestParseExecConfigDefaults(t *testing.T) {
	defer leaktest.AfterTest(t)()

	cfg, err := base.ParseExecConfig(nil)
	require.NoError(t, err)
	require.Equal(t, base.DefaultBatchSize, cfg.BatchSize)
	require.Equal(t, base.DefaultQuantum, cfg.Quantum)
	require.Equal(t, runtime.GOMAXPROCS(0), cfg.NumWorkers())
	require.Equal(t, int64(1<<30), cfg.BuildMemoryLimitBytes())
}

func TestParseExecConfigErrors(t *testing.T) {
	defer leaktest.AfterTest(t)()

	for _, tc := range []struct {
		input string
		err   string
	}{
		{input: `batch_size: 0`, err: `batch_size must be positive, got 0`},
		{input: `quantum: -1s`, err: `quantum must be positive, got -1s`},
		{input: `workers: -2`, err: `workers must not be negative, got -2`},
		{input: `partitions: -1`, err: `partitions must not be negative, got -1`},
		{input: `partition_sample_size: 0`, err: `partition_sample_size must be positive, got 0`},
		{input: `build_memory_limit: lots`, err: `invalid build_memory_limit "lots"`},
		{input: `log: {verbosity: 9}`, err: `invalid log config: verbosity must be between 0 and 5, got 9`},
		{input: `log: {format: xml}`, err: `invalid log config: unknown log format "xml"`},
		{input: `bogus: 1`, err: `parsing exec config`},
	} {
		t.Run(tc.input, func(t *testing.T) {
			_, err := base.ParseExecConfig([]byte(tc.input))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.err)
		})
	}
}
