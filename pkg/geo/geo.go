// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geo contains the planar GEOMETRY type used by spatial joins.
//
// Subpackages are available that perform operations using this type:
//   - geo/geomfn implements the spatial relationships evaluated by joins.
//   - geo/geoindex implements the immutable index built over the build side
//     of a spatial join.
//   - geo/geopartition implements the KDB tree used to route rows to
//     partitions in distributed joins.
package geo

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/geo/geopb"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// DefaultEWKBEncodingFormat is the default encoding format for EWKB.
var DefaultEWKBEncodingFormat = binary.LittleEndian

// Geometry is planar spatial object.
type Geometry struct {
	t     geom.T
	ewkb  geopb.EWKB
	bbox  geopb.BoundingBox
	shape geopb.ShapeType
}

// MakeGeometryFromGeomT creates a new Geometry object from a geom.T object.
func MakeGeometryFromGeomT(g geom.T) (Geometry, error) {
	shape, err := shapeTypeFromGeomT(g)
	if err != nil {
		return Geometry{}, err
	}
	b, err := ewkb.Marshal(g, DefaultEWKBEncodingFormat)
	if err != nil {
		return Geometry{}, pgerror.Wrapf(err, pgcode.InvalidParameterValue, "error encoding geometry")
	}
	return Geometry{t: g, ewkb: b, bbox: boundingBoxFromGeomT(g), shape: shape}, nil
}

// MakePoint returns a Point geometry at (x, y).
func MakePoint(x, y float64) Geometry {
	g, err := MakeGeometryFromGeomT(geom.NewPointFlat(geom.XY, []float64{x, y}))
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "encoding point"))
	}
	return g
}

// AsGeomT returns the geometry as a geom.T. The result must not be modified.
func (g Geometry) AsGeomT() geom.T {
	return g.t
}

// EWKB returns the EWKB representation of the Geometry.
func (g Geometry) EWKB() geopb.EWKB {
	return g.ewkb
}

// BoundingBox returns the bounding box of the Geometry. It is empty for empty
// geometries.
func (g Geometry) BoundingBox() geopb.BoundingBox {
	return g.bbox
}

// ShapeType returns the shape type of the Geometry.
func (g Geometry) ShapeType() geopb.ShapeType {
	return g.shape
}

// SRID returns the SRID of the Geometry.
func (g Geometry) SRID() geopb.SRID {
	return geopb.SRID(g.t.SRID())
}

// Empty returns whether the given Geometry is empty.
func (g Geometry) Empty() bool {
	return g.bbox.IsEmpty()
}

// IsPoint returns whether the geometry is a single non-empty point.
func (g Geometry) IsPoint() bool {
	return g.shape == geopb.ShapeType_Point && !g.Empty()
}

func (g Geometry) String() string {
	s, err := g.AsEWKT(-1)
	if err != nil {
		return fmt.Sprintf("<invalid geometry: %v>", err)
	}
	return s
}

func shapeTypeFromGeomT(t geom.T) (geopb.ShapeType, error) {
	switch t.(type) {
	case *geom.Point:
		return geopb.ShapeType_Point, nil
	case *geom.LineString:
		return geopb.ShapeType_LineString, nil
	case *geom.Polygon:
		return geopb.ShapeType_Polygon, nil
	case *geom.MultiPoint:
		return geopb.ShapeType_MultiPoint, nil
	case *geom.MultiLineString:
		return geopb.ShapeType_MultiLineString, nil
	case *geom.MultiPolygon:
		return geopb.ShapeType_MultiPolygon, nil
	case *geom.GeometryCollection:
		return geopb.ShapeType_GeometryCollection, nil
	default:
		return geopb.ShapeType_Unset, pgerror.Newf(pgcode.InvalidParameterValue, "unknown shape: %T", t)
	}
}

// boundingBoxFromGeomT returns the 2D bounding box of t.
func boundingBoxFromGeomT(t geom.T) geopb.BoundingBox {
	bbox := geopb.NewBoundingBox()
	if gc, ok := t.(*geom.GeometryCollection); ok {
		for _, sub := range gc.Geoms() {
			*bbox = bbox.Union(boundingBoxFromGeomT(sub))
		}
		return *bbox
	}
	flat := t.FlatCoords()
	stride := t.Stride()
	for i := 0; i+1 < len(flat) && stride > 0; i += stride {
		bbox.Update(flat[i], flat[i+1])
	}
	return *bbox
}
