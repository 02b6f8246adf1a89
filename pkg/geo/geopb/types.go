// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geopb

// ShapeType is the type of a spatial shape. Each of these corresponds to a
// different representation and serialization format.
type ShapeType int32

const (
	ShapeType_Unset              ShapeType = 0
	ShapeType_Point              ShapeType = 1
	ShapeType_LineString         ShapeType = 2
	ShapeType_Polygon            ShapeType = 3
	ShapeType_MultiPoint         ShapeType = 4
	ShapeType_MultiLineString    ShapeType = 5
	ShapeType_MultiPolygon       ShapeType = 6
	ShapeType_GeometryCollection ShapeType = 7
)

var shapeTypeNames = map[ShapeType]string{
	ShapeType_Unset:              "Unset",
	ShapeType_Point:              "Point",
	ShapeType_LineString:         "LineString",
	ShapeType_Polygon:            "Polygon",
	ShapeType_MultiPoint:         "MultiPoint",
	ShapeType_MultiLineString:    "MultiLineString",
	ShapeType_MultiPolygon:       "MultiPolygon",
	ShapeType_GeometryCollection: "GeometryCollection",
}

func (s ShapeType) String() string {
	return shapeTypeNames[s]
}

// SRID is a Spatial Reference Identifier. All geometries in a join share one
// SRID; 0 means unknown.
type SRID int32

// EWKB is the Extended Well Known Bytes form of a spatial object.
type EWKB []byte
