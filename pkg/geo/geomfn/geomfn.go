// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geomfn contains functions that are used for geometry-based builtins
// and the spatial join predicates. All operations are planar.
package geomfn

import (
	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
)

// requireSameSRID returns an error if the two geometries do not share an
// SRID. An unset SRID matches anything.
func requireSameSRID(a, b geo.Geometry) error {
	if a.SRID() != 0 && b.SRID() != 0 && a.SRID() != b.SRID() {
		return pgerror.Newf(pgcode.InvalidParameterValue,
			"operation on mixed SRIDs forbidden: (%s, %d) != (%s, %d)",
			a.ShapeType(), a.SRID(), b.ShapeType(), b.SRID())
	}
	return nil
}
