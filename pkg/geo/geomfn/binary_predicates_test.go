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
	"testing"

	"github.com/simpligility/trino/pkg/geo"
	"github.com/stretchr/testify/require"
)

var (
	leftRect           = geo.MustParseGeometry("POLYGON((-1.0 0.0, 0.0 0.0, 0.0 1.0, -1.0 1.0, -1.0 0.0))")
	leftRectPoint      = geo.MustParseGeometry("POINT(-0.5 0.5)")
	rightRect          = geo.MustParseGeometry("POLYGON((1.0 0.0, 2.0 0.0, 2.0 1.0, 1.0 1.0, 1.0 0.0))")
	rightRectPoint     = geo.MustParseGeometry("POINT(1.5 0.5)")
	overlappingRight   = geo.MustParseGeometry("POLYGON((1.5 0.5, 3.0 0.5, 3.0 2.0, 1.5 2.0, 1.5 0.5))")
	middleLine         = geo.MustParseGeometry("LINESTRING(-0.5 0.5, 0.5 0.5)")
	rightRectCorner    = geo.MustParseGeometry("POINT(1.0 0.0)")
	innerRightLine     = geo.MustParseGeometry("LINESTRING(1.2 0.2, 1.8 0.8)")
	rightRectEdgeLine  = geo.MustParseGeometry("LINESTRING(1.0 0.0, 2.0 0.0)")
	donut              = geo.MustParseGeometry("POLYGON((0 0, 10 0, 10 10, 0 10, 0 0), (4 4, 6 4, 6 6, 4 6, 4 4))")
	donutHolePoint     = geo.MustParseGeometry("POINT(5 5)")
	donutRingPoint     = geo.MustParseGeometry("POINT(2 2)")
	donutHoleEdgePoint = geo.MustParseGeometry("POINT(4 5)")
	squareOverHole     = geo.MustParseGeometry("POLYGON((3 3, 7 3, 7 7, 3 7, 3 3))")
	concave            = geo.MustParseGeometry("POLYGON((0 0, 4 0, 4 4, 2 1, 0 4, 0 0))")
	chordAcrossNotch   = geo.MustParseGeometry("LINESTRING(0.5 3, 3.5 3)")
	multiPoint         = geo.MustParseGeometry("MULTIPOINT((1.5 0.5), (-0.5 0.5))")
	bothRects          = geo.MustParseGeometry("MULTIPOLYGON(((-1.0 0.0, 0.0 0.0, 0.0 1.0, -1.0 1.0, -1.0 0.0)), ((1.0 0.0, 2.0 0.0, 2.0 1.0, 1.0 1.0, 1.0 0.0)))")
)

func TestIntersects(t *testing.T) {
	testCases := []struct {
		a        geo.Geometry
		b        geo.Geometry
		expected bool
	}{
		{rightRect, rightRectPoint, true},
		{rightRectPoint, rightRect, true},
		{leftRect, rightRect, false},
		{rightRect, overlappingRight, true},
		{middleLine, leftRect, true},
		{middleLine, rightRect, false},
		{rightRectCorner, rightRect, true},
		{innerRightLine, rightRect, true},
		{rightRectEdgeLine, rightRectCorner, true},
		{donut, donutHolePoint, false},
		{donut, donutHoleEdgePoint, true},
		{donut, squareOverHole, true},
		{multiPoint, leftRect, true},
		{leftRectPoint, leftRectPoint, true},
		{leftRectPoint, rightRectPoint, false},
	}
	for i, tc := range testCases {
		t.Run(fmt.Sprintf("tc:%d", i), func(t *testing.T) {
			intersects, err := Intersects(tc.a, tc.b)
			require.NoError(t, err)
			require.Equal(t, tc.expected, intersects)
		})
	}
}

func TestContainsWithinCovers(t *testing.T) {
	testCases := []struct {
		desc     string
		a        geo.Geometry
		b        geo.Geometry
		contains bool
		covers   bool
	}{
		{"point inside polygon", rightRect, rightRectPoint, true, true},
		{"point on polygon corner", rightRect, rightRectCorner, false, true},
		{"point outside polygon", leftRect, rightRectPoint, false, false},
		{"line inside polygon", rightRect, innerRightLine, true, true},
		{"line on polygon edge", rightRect, rightRectEdgeLine, false, true},
		{"line crossing polygons", leftRect, middleLine, false, false},
		{"polygon contains itself", rightRect, rightRect, true, true},
		{"overlapping polygons", rightRect, overlappingRight, false, false},
		{"point in hole", donut, donutHolePoint, false, false},
		{"point in ring", donut, donutRingPoint, true, true},
		{"point on hole edge", donut, donutHoleEdgePoint, false, true},
		{"polygon over hole", donut, squareOverHole, false, false},
		{"chord across concave notch", concave, chordAcrossNotch, false, false},
		{"multipoint in multipolygon", bothRects, multiPoint, true, true},
		{"multipoint in one polygon", rightRect, multiPoint, false, false},
		{"point contains point", rightRectPoint, rightRectPoint, true, true},
		{"line contains its endpoint", rightRectEdgeLine, rightRectCorner, false, true},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			contains, err := Contains(tc.a, tc.b)
			require.NoError(t, err)
			require.Equal(t, tc.contains, contains, "contains")

			within, err := Within(tc.b, tc.a)
			require.NoError(t, err)
			require.Equal(t, tc.contains, within, "within")

			covers, err := Covers(tc.a, tc.b)
			require.NoError(t, err)
			require.Equal(t, tc.covers, covers, "covers")

			coveredBy, err := CoveredBy(tc.b, tc.a)
			require.NoError(t, err)
			require.Equal(t, tc.covers, coveredBy, "coveredby")
		})
	}
}

func TestMixedSRID(t *testing.T) {
	a := geo.MustParseGeometry("SRID=4326;POINT(1 1)")
	b := geo.MustParseGeometry("SRID=3857;POINT(1 1)")
	_, err := Intersects(a, b)
	require.Error(t, err)
	_, err = Contains(a, b)
	require.Error(t, err)
	_, err = MinDistance(a, b)
	require.Error(t, err)
}
