// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package execinfrapb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComponentStatsFormat(t *testing.T) {
	var s ComponentStats
	s.Inputs = make([]InputStats, 2)
	s.Inputs[0].NumTuples.Set(3)
	s.Inputs[1].NumTuples.Set(5)
	s.Inputs[1].NumNulls.Set(1)
	s.Spatial.Matches.Add(2)
	s.Spatial.Matches.Add(2)
	s.Exec.ExecTime.Set(1500 * time.Nanosecond)
	s.Exec.MaxAllocatedMem.MaybeSetMax(2048)
	s.Exec.MaxAllocatedMem.MaybeSetMax(1024)
	s.Output.NumTuples.Set(4)

	require.Equal(t, []string{
		"build tuples: 3",
		"probe tuples: 5",
		"probe nulls: 1",
		"matches: 4",
		"execution time: 2µs",
		"max memory allocated: 2.0 KiB",
		"tuples output: 4",
	}, s.StatsForQueryPlan())

	require.Equal(t, "4", s.Stats()["matches"])
	require.Equal(t, "3", s.Stats()["build.tuples"])

	s.MakeDeterministic()
	require.True(t, s.Exec.ExecTime.HasValue())
	require.Equal(t, time.Duration(0), s.Exec.ExecTime.Value())
	require.False(t, s.Output.NumBatches.HasValue())
}

func TestParseJoinType(t *testing.T) {
	for _, tc := range []struct {
		in  string
		exp JoinType
	}{
		{"inner", InnerJoin},
		{"LEFT", LeftOuterJoin},
		{"left outer", LeftOuterJoin},
	} {
		jt, err := ParseJoinType(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.exp, jt)
	}
	_, err := ParseJoinType("full")
	require.EqualError(t, err, `unsupported spatial join type "full"`)
}

func TestParseSpatialRelationship(t *testing.T) {
	for _, r := range []SpatialRelationship{Contains, Within, Intersects, DWithin} {
		parsed, err := ParseSpatialRelationship("ST_" + r.String())
		require.NoError(t, err)
		require.Equal(t, r, parsed)
	}
	_, err := ParseSpatialRelationship("st_touches")
	require.Error(t, err)
}
