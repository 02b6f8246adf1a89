// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geomfn

import (
	"fmt"
	"math"
	"testing"

	"github.com/simpligility/trino/pkg/geo"
	"github.com/stretchr/testify/require"
)

func TestMinDistance(t *testing.T) {
	testCases := []struct {
		a        string
		b        string
		expected float64
	}{
		{"POINT(0 0)", "POINT(3 4)", 5},
		{"POINT(0 0)", "LINESTRING(-1 1, 1 1)", 1},
		{"POINT(5 5)", "POLYGON((0 0, 1 0, 1 1, 0 1, 0 0))", math.Sqrt(32)},
		{"POINT(0.5 0.5)", "POLYGON((0 0, 1 0, 1 1, 0 1, 0 0))", 0},
		{"LINESTRING(0 0, 0 2)", "LINESTRING(3 1, 3 5)", 3},
		{"LINESTRING(0 0, 2 2)", "LINESTRING(0 2, 2 0)", 0},
		{"POLYGON((0 0, 1 0, 1 1, 0 1, 0 0))", "POLYGON((3 0, 4 0, 4 1, 3 1, 3 0))", 2},
		{"MULTIPOINT((10 10), (0 2))", "POINT(0 0)", 2},
		{"POLYGON((0 0, 10 0, 10 10, 0 10, 0 0), (4 4, 6 4, 6 6, 4 6, 4 4))", "POINT(5 5)", 1},
	}
	for i, tc := range testCases {
		t.Run(fmt.Sprintf("tc:%d", i), func(t *testing.T) {
			a := geo.MustParseGeometry(tc.a)
			b := geo.MustParseGeometry(tc.b)
			d, err := MinDistance(a, b)
			require.NoError(t, err)
			require.InDelta(t, tc.expected, d, 1e-9)
			d, err = MinDistance(b, a)
			require.NoError(t, err)
			require.InDelta(t, tc.expected, d, 1e-9)
		})
	}
}

func TestDWithin(t *testing.T) {
	origin := geo.MakePoint(0, 0)
	for _, tc := range []struct {
		other    geo.Geometry
		d        float64
		expected bool
	}{
		{geo.MakePoint(0, 1), 1.5, true},
		{geo.MakePoint(1, 1), 1.5, true},
		{geo.MakePoint(1, 1), 1.4, false},
		{geo.MakePoint(3, 0), 3, true},
		{geo.MakePoint(3, 0), 0, false},
		{origin, 0, true},
	} {
		t.Run(fmt.Sprintf("%s/%g", tc.other, tc.d), func(t *testing.T) {
			ok, err := DWithin(origin, tc.other, tc.d)
			require.NoError(t, err)
			require.Equal(t, tc.expected, ok)
		})
	}
	_, err := DWithin(origin, origin, -1)
	require.Error(t, err)
}
