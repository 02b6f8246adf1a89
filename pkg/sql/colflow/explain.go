// Copyright 2021 The Cockroach Authors.
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
	"fmt"
	"reflect"
	"sort"

	"github.com/simpligility/trino/pkg/sql/colexecop"
)

// ExplainDrivers returns the string representation of the pipelines of the
// given drivers, ordered by driver id, together with the statistics the
// operators collected.
func ExplainDrivers(drivers []*Driver, verbose bool) []string {
	sorted := make([]*Driver, len(drivers))
	copy(sorted, drivers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Context().ID < sorted[j].Context().ID })

	var rows []string
	for _, d := range sorted {
		rows = append(rows, fmt.Sprintf("driver %d", d.Context().ID))
		ops := explainableOps(d.Operators(), verbose)
		for i, op := range ops {
			branch, indent := "├── ", "│   "
			if i == len(ops)-1 {
				branch, indent = "└── ", "    "
			}
			rows = append(rows, branch+reflect.TypeOf(op).String())
			if sc, ok := op.(colexecop.StatsCollector); ok {
				for _, s := range sc.Stats().StatsForQueryPlan() {
					rows = append(rows, indent+"  "+s)
				}
			}
		}
	}
	return rows
}

func shouldOutput(op colexecop.Operator, verbose bool) bool {
	_, nonExplainable := op.(colexecop.NonExplainable)
	return !nonExplainable || verbose
}

func explainableOps(ops []colexecop.Operator, verbose bool) []colexecop.Operator {
	res := make([]colexecop.Operator, 0, len(ops))
	for _, op := range ops {
		if shouldOutput(op, verbose) {
			res = append(res, op)
		}
	}
	return res
}
