// Copyright 2021 The Cockroach Authors.
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
	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/geo/geopb"
)

// pointPolygonRelation is a relationship between a (multi)point and a
// (multi)polygon that can be decided one point at a time.
type pointPolygonRelation int

const (
	// somePointTouches holds when a point lies inside or on the boundary of
	// a polygon.
	somePointTouches pointPolygonRelation = iota
	// everyPointTouches holds when no point lies outside every polygon.
	everyPointTouches
	// everyPointTouchesOneInside is everyPointTouches with at least one
	// point strictly inside a polygon.
	everyPointTouchesOneInside
)

// isPointKind returns whether g is a non-empty (multi)point.
func isPointKind(g geo.Geometry) bool {
	switch g.ShapeType() {
	case geopb.ShapeType_Point, geopb.ShapeType_MultiPoint:
		return !g.Empty()
	}
	return false
}

// isPolygonKind returns whether g is a non-empty (multi)polygon.
func isPolygonKind(g geo.Geometry) bool {
	switch g.ShapeType() {
	case geopb.ShapeType_Polygon, geopb.ShapeType_MultiPolygon:
		return !g.Empty()
	}
	return false
}

// PointKindIntersectsPolygonKind returns whether a (multi)point and a
// (multi)polygon intersect.
func PointKindIntersectsPolygonKind(pointKind, polygonKind geo.Geometry) (bool, error) {
	return relatePointsToPolygons(pointKind, polygonKind, somePointTouches)
}

// PointKindCoveredByPolygonKind returns whether a (multi)point is covered
// by a (multi)polygon.
func PointKindCoveredByPolygonKind(pointKind, polygonKind geo.Geometry) (bool, error) {
	return relatePointsToPolygons(pointKind, polygonKind, everyPointTouches)
}

// PointKindWithinPolygonKind returns whether a (multi)point is within a
// (multi)polygon.
func PointKindWithinPolygonKind(pointKind, polygonKind geo.Geometry) (bool, error) {
	return relatePointsToPolygons(pointKind, polygonKind, everyPointTouchesOneInside)
}

// relatePointsToPolygons walks the points of pointKind once, stopping as
// soon as rel is decided.
func relatePointsToPolygons(
	pointKind, polygonKind geo.Geometry, rel pointPolygonRelation,
) (bool, error) {
	polygons, err := decompose(polygonKind)
	if err != nil {
		return false, err
	}
	points := geo.NewGeomTIterator(pointKind.AsGeomT(), geo.EmptyBehaviorOmit)
	insideOnce := false
	for {
		point, ok, err := points.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
		flat := point.FlatCoords()
		side := bestSideOfPolygons(flat[0], flat[1], polygons.polygons)
		switch {
		case side == outsideLinearRing && rel != somePointTouches:
			return false, nil
		case side != outsideLinearRing && rel == somePointTouches:
			return true, nil
		case side == insideLinearRing:
			insideOnce = true
		}
	}
	switch rel {
	case everyPointTouches:
		return true, nil
	case everyPointTouchesOneInside:
		return insideOnce, nil
	default:
		return false, nil
	}
}

// bestSideOfPolygons returns insideLinearRing if (x, y) is strictly inside
// one of polygons, onLinearRing if it only lies on a boundary, and
// outsideLinearRing otherwise.
func bestSideOfPolygons(x, y float64, polygons [][][]float64) linearRingSide {
	best := outsideLinearRing
	for _, rings := range polygons {
		switch findPointSideOfPolygon(x, y, rings) {
		case insideLinearRing:
			return insideLinearRing
		case onLinearRing:
			best = onLinearRing
		}
	}
	return best
}
