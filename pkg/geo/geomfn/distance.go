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
	"math"

	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
)

// ErrEmptyGeometry is returned when a distance involves an empty geometry.
var ErrEmptyGeometry = pgerror.New(pgcode.InvalidParameterValue, "distance is undefined for empty geometries")

// MinDistance returns the minimum cartesian distance between a and b.
func MinDistance(a, b geo.Geometry) (float64, error) {
	if err := requireSameSRID(a, b); err != nil {
		return 0, err
	}
	if a.Empty() || b.Empty() {
		return 0, ErrEmptyGeometry
	}
	sa, err := decompose(a)
	if err != nil {
		return 0, err
	}
	sb, err := decompose(b)
	if err != nil {
		return 0, err
	}
	if shapesIntersect(&sa, &sb) {
		return 0, nil
	}
	// The shapes are disjoint, so the distance is realized between a vertex
	// of one shape and an edge or vertex of the other.
	d := math.Inf(1)
	chainsA := append(sa.chains(), pointsAsChains(sa.points)...)
	chainsB := append(sb.chains(), pointsAsChains(sb.points)...)
	for _, ca := range chainsA {
		for _, cb := range chainsB {
			d = math.Min(d, chainDistance(ca, cb))
		}
	}
	return d, nil
}

func pointsAsChains(points [][2]float64) [][]float64 {
	ret := make([][]float64, len(points))
	for i, p := range points {
		ret[i] = []float64{p[0], p[1]}
	}
	return ret
}

// DWithin determines if any part of a is within d units of b, inclusive.
func DWithin(a, b geo.Geometry, d float64) (bool, error) {
	if d < 0 {
		return false, pgerror.Newf(pgcode.InvalidParameterValue, "dwithin distance cannot be less than zero")
	}
	if a.Empty() || b.Empty() {
		return false, nil
	}
	if !a.BoundingBox().Expand(d).Intersects(b.BoundingBox()) {
		return false, nil
	}
	dist, err := MinDistance(a, b)
	if err != nil {
		return false, err
	}
	return dist <= d, nil
}
