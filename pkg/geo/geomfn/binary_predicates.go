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

import "github.com/simpligility/trino/pkg/geo"

// Intersects returns whether the given geometries share at least one point.
func Intersects(a, b geo.Geometry) (bool, error) {
	if err := requireSameSRID(a, b); err != nil {
		return false, err
	}
	if !a.BoundingBox().Intersects(b.BoundingBox()) {
		return false, nil
	}
	// Optimization for point in polygon calculations.
	if isPointKind(a) && isPolygonKind(b) {
		return PointKindIntersectsPolygonKind(a, b)
	} else if isPolygonKind(a) && isPointKind(b) {
		return PointKindIntersectsPolygonKind(b, a)
	}
	sa, err := decompose(a)
	if err != nil {
		return false, err
	}
	sb, err := decompose(b)
	if err != nil {
		return false, err
	}
	return shapesIntersect(&sa, &sb), nil
}

func shapesIntersect(sa, sb *shapeSet) bool {
	for _, p := range sa.points {
		if sb.coversPoint(p[0], p[1]) {
			return true
		}
	}
	for _, p := range sb.points {
		if sa.coversPoint(p[0], p[1]) {
			return true
		}
	}
	chainsB := sb.chains()
	for _, ca := range sa.chains() {
		for _, cb := range chainsB {
			if chainsIntersect(ca, cb) {
				return true
			}
		}
	}
	// With no boundary crossing, one shape can still lie entirely inside a
	// polygon of the other.
	return firstVertexInside(sa, sb) || firstVertexInside(sb, sa)
}

// firstVertexInside returns whether any line or polygon of inner has its
// first vertex covered by a polygon of outer.
func firstVertexInside(inner, outer *shapeSet) bool {
	if len(outer.polygons) == 0 {
		return false
	}
	for _, c := range inner.chains() {
		for _, rings := range outer.polygons {
			if findPointSideOfPolygon(c[0], c[1], rings) != outsideLinearRing {
				return true
			}
		}
	}
	return false
}

// Covers returns whether no point of b lies outside a.
func Covers(a, b geo.Geometry) (bool, error) {
	if err := requireSameSRID(a, b); err != nil {
		return false, err
	}
	if a.Empty() || b.Empty() || !a.BoundingBox().Covers(b.BoundingBox()) {
		return false, nil
	}
	// Optimization for point in polygon calculations.
	if isPolygonKind(a) && isPointKind(b) {
		return PointKindCoveredByPolygonKind(b, a)
	}
	sa, err := decompose(a)
	if err != nil {
		return false, err
	}
	sb, err := decompose(b)
	if err != nil {
		return false, err
	}
	return shapeCovers(&sa, &sb), nil
}

// CoveredBy returns whether no point of a lies outside b.
func CoveredBy(a, b geo.Geometry) (bool, error) {
	return Covers(b, a)
}

func shapeCovers(sa, sb *shapeSet) bool {
	for _, p := range sb.points {
		if !sa.coversPoint(p[0], p[1]) {
			return false
		}
	}
	for _, l := range sb.lines {
		if !sa.coversChain(l) {
			return false
		}
	}
	for _, rings := range sb.polygons {
		// An area can only be covered by another area.
		if len(sa.polygons) == 0 {
			return false
		}
		for _, r := range rings {
			if !sa.coversChain(r) {
				return false
			}
		}
		// The boundary of b is covered, but a hole of a may still be
		// punched through the interior of b.
		for _, ringsA := range sa.polygons {
			for _, hole := range ringsA[1:] {
				if len(hole) >= 2 && findPointSideOfPolygon(hole[0], hole[1], rings) == insideLinearRing {
					return false
				}
			}
		}
	}
	return true
}

// Contains returns whether no point of b lies outside a, and at least one
// point of the interior of b lies in the interior of a.
func Contains(a, b geo.Geometry) (bool, error) {
	if err := requireSameSRID(a, b); err != nil {
		return false, err
	}
	if a.Empty() || b.Empty() || !a.BoundingBox().Covers(b.BoundingBox()) {
		return false, nil
	}
	// Optimization for point in polygon calculations.
	if isPolygonKind(a) && isPointKind(b) {
		return PointKindWithinPolygonKind(b, a)
	}
	sa, err := decompose(a)
	if err != nil {
		return false, err
	}
	sb, err := decompose(b)
	if err != nil {
		return false, err
	}
	if !shapeCovers(&sa, &sb) {
		return false, nil
	}
	if len(sb.polygons) > 0 {
		// A covered area always shares interior points with the covering area.
		return true, nil
	}
	for _, p := range sb.points {
		if sa.interiorContainsPoint(p[0], p[1]) {
			return true, nil
		}
	}
	for _, l := range sb.lines {
		for i := 0; i+3 < len(l); i += 2 {
			ts := sa.splitParams(l[i], l[i+1], l[i+2], l[i+3])
			for j := 1; j < len(ts); j++ {
				m := (ts[j] + ts[j-1]) / 2
				if sa.interiorContainsPoint(l[i]+m*(l[i+2]-l[i]), l[i+1]+m*(l[i+3]-l[i+1])) {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// Within returns whether a is contained by b.
func Within(a, b geo.Geometry) (bool, error) {
	return Contains(b, a)
}
