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
	"fmt"
	"strings"

	"github.com/twpayne/go-geom/encoding/ewkbhex"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// DefaultGeoJSONDecimalDigits is the default number of digits coordinates in GeoJSON.
const DefaultGeoJSONDecimalDigits = 9

// AsWKT returns the WKT form of the geometry. A negative maxDecimalDigits
// prints full precision.
func (g Geometry) AsWKT(maxDecimalDigits int) (string, error) {
	return wkt.Marshal(g.t, wkt.EncodeOptionWithMaxDecimalDigits(maxDecimalDigits))
}

// AsEWKT returns the WKT form of the geometry prefixed by its SRID, if any.
func (g Geometry) AsEWKT(maxDecimalDigits int) (string, error) {
	ret, err := g.AsWKT(maxDecimalDigits)
	if err != nil {
		return "", err
	}
	if g.t.SRID() != 0 {
		ret = fmt.Sprintf("SRID=%d;%s", g.t.SRID(), ret)
	}
	return ret, nil
}

// AsGeoJSON returns the GeoJSON form of the geometry.
func (g Geometry) AsGeoJSON(maxDecimalDigits int) ([]byte, error) {
	return geojson.Marshal(g.t, geojson.EncodeGeometryWithMaxDecimalDigits(maxDecimalDigits))
}

// AsEWKBHex returns the upper case hex form of the EWKB.
func (g Geometry) AsEWKBHex() (string, error) {
	ret, err := ewkbhex.Encode(g.t, DefaultEWKBEncodingFormat)
	return strings.ToUpper(ret), err
}
