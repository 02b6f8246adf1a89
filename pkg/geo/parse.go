// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geo

import (
	"strconv"
	"strings"

	"github.com/simpligility/trino/pkg/geo/geopb"
	"github.com/simpligility/trino/pkg/geo/wkt"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/ewkbhex"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ParseGeometry parses a Geometry from a given text, which may be WKT, EWKT,
// EWKB hex or GeoJSON.
func ParseGeometry(str string) (Geometry, error) {
	t, err := parseAmbiguousText(str, 0)
	if err != nil {
		return Geometry{}, err
	}
	return MakeGeometryFromGeomT(t)
}

// MustParseGeometry behaves as ParseGeometry, but panics if there is an error.
func MustParseGeometry(str string) Geometry {
	g, err := ParseGeometry(str)
	if err != nil {
		panic(err)
	}
	return g
}

// ParseGeometryFromEWKB parses the EWKB into a Geometry.
func ParseGeometryFromEWKB(b geopb.EWKB) (Geometry, error) {
	t, err := ewkb.Unmarshal(b)
	if err != nil {
		return Geometry{}, pgerror.Wrapf(err, pgcode.InvalidParameterValue, "error decoding EWKB")
	}
	shape, err := shapeTypeFromGeomT(t)
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{t: t, ewkb: b, bbox: boundingBoxFromGeomT(t), shape: shape}, nil
}

// parseAmbiguousText parses a text as a number of different options
// that is available in the geospatial world using the first character as
// a heuristic.
func parseAmbiguousText(str string, defaultSRID geopb.SRID) (geom.T, error) {
	str = strings.TrimSpace(str)
	if len(str) == 0 {
		return nil, pgerror.Newf(pgcode.InvalidParameterValue, "geo: parsing empty string to geo type")
	}

	var t geom.T
	var err error
	switch str[0] {
	case '0':
		// Parse as EWKB hex.
		t, err = ewkbhex.Decode(str)
		if err != nil {
			return nil, pgerror.Wrapf(err, pgcode.InvalidParameterValue, "error parsing EWKB hex")
		}
	case '{':
		if err := geojson.Unmarshal([]byte(str), &t); err != nil {
			return nil, pgerror.Wrapf(err, pgcode.InvalidParameterValue, "error parsing GeoJSON")
		}
	default:
		return decodeEWKT(str, defaultSRID)
	}
	if defaultSRID != 0 && t.SRID() == 0 {
		adjustGeomSRID(t, defaultSRID)
	}
	return t, nil
}

// adjustGeomSRID adjusts the SRID of a given geom.T.
// Ideally SetSRID is an interface of geom.T, but that is not the case.
func adjustGeomSRID(t geom.T, srid geopb.SRID) {
	switch t := t.(type) {
	case *geom.Point:
		t.SetSRID(int(srid))
	case *geom.LineString:
		t.SetSRID(int(srid))
	case *geom.Polygon:
		t.SetSRID(int(srid))
	case *geom.GeometryCollection:
		t.SetSRID(int(srid))
	case *geom.MultiPoint:
		t.SetSRID(int(srid))
	case *geom.MultiLineString:
		t.SetSRID(int(srid))
	case *geom.MultiPolygon:
		t.SetSRID(int(srid))
	}
}

const sridPrefix = "SRID="
const sridPrefixLen = len(sridPrefix)

// decodeEWKT decodes a WKT string, with an optional SRID prefix.
func decodeEWKT(str string, defaultSRID geopb.SRID) (geom.T, error) {
	srid := defaultSRID
	if strings.HasPrefix(strings.ToUpper(str), sridPrefix) {
		end := strings.Index(str[sridPrefixLen:], ";")
		if end == -1 {
			return nil, pgerror.Newf(pgcode.InvalidParameterValue,
				"geo: failed to find ; character with SRID declaration during EWKT decode: %q", str)
		}
		sridInt64, err := strconv.ParseInt(str[sridPrefixLen:sridPrefixLen+end], 10, 32)
		if err != nil {
			return nil, pgerror.Wrapf(err, pgcode.InvalidParameterValue, "error parsing SRID")
		}
		// Only override the SRID if the SRID is not zero.
		if sridInt64 != 0 {
			srid = geopb.SRID(sridInt64)
		}
		str = str[sridPrefixLen+end+1:]
	}

	t, err := wkt.Unmarshal(str)
	if err != nil {
		return nil, pgerror.WithCandidateCode(err, pgcode.InvalidParameterValue)
	}
	if srid != 0 {
		adjustGeomSRID(t, srid)
	}
	return t, nil
}
