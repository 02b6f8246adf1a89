// Copyright 2021 The Cockroach Authors.
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
	"strings"
	"testing"
	"time"

	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/sql/colexec/colexecbase"
	"github.com/simpligility/trino/pkg/sql/colexecop"
	"github.com/simpligility/trino/pkg/sql/colflow"
	"github.com/simpligility/trino/pkg/sql/execinfrapb"
	"github.com/stretchr/testify/require"
)

type statsOp struct {
	*colexecbase.CollectorOp
	stats execinfrapb.ComponentStats
}

func (s *statsOp) Stats() *execinfrapb.ComponentStats {
	return &s.stats
}

func TestExplainDrivers(t *testing.T) {
	sink := &statsOp{CollectorOp: colexecbase.NewCollectorOp()}
	sink.stats.Inputs = make([]execinfrapb.InputStats, 1)
	sink.stats.Inputs[0].NumTuples.Set(3)
	sink.stats.Exec.ExecTime.Set(2 * time.Microsecond)

	var drivers []*colflow.Driver
	for _, id := range []int{1, 0} {
		ops := []colexecop.Operator{
			colexecbase.NewValuesOp(),
			colexecbase.NewFnOp(func(context.Context, coldata.Batch) error { return nil }),
		}
		if id == 0 {
			ops = append(ops, sink)
		} else {
			ops = append(ops, colexecbase.NewCollectorOp())
		}
		d, err := colflow.NewDriver(colexecop.NewDriverContext(id), ops...)
		require.NoError(t, err)
		drivers = append(drivers, d)
	}

	require.Equal(t, strings.TrimSpace(`
driver 0
├── *colexecbase.ValuesOp
└── *colflow_test.statsOp
      input tuples: 3
      execution time: 2µs
driver 1
├── *colexecbase.ValuesOp
└── *colexecbase.CollectorOp`), strings.Join(colflow.ExplainDrivers(drivers, false /* verbose */), "\n"))

	require.Equal(t, strings.TrimSpace(`
driver 1
├── *colexecbase.ValuesOp
├── *colexecbase.fnOp
└── *colexecbase.CollectorOp`), strings.Join(colflow.ExplainDrivers(drivers[:1], true /* verbose */), "\n"))
}
