// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package colexecspatial

import (
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/geo/geomfn"
	"github.com/simpligility/trino/pkg/sql/execinfrapb"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
)

// SpatialPredicate tests a build geometry against a probe geometry. radius
// is the build row's distance value; hasRadius is false when the join has
// no radius column.
type SpatialPredicate func(build, probe geo.Geometry, radius float64, hasRadius bool) (bool, error)

// MakeSpatialPredicate returns the predicate evaluating rel as
// rel(build, probe).
func MakeSpatialPredicate(rel execinfrapb.SpatialRelationship) (SpatialPredicate, error) {
	switch rel {
	case execinfrapb.Contains:
		return func(build, probe geo.Geometry, _ float64, _ bool) (bool, error) {
			return geomfn.Contains(build, probe)
		}, nil
	case execinfrapb.Within:
		return func(build, probe geo.Geometry, _ float64, _ bool) (bool, error) {
			return geomfn.Within(build, probe)
		}, nil
	case execinfrapb.Intersects:
		return func(build, probe geo.Geometry, _ float64, _ bool) (bool, error) {
			return geomfn.Intersects(build, probe)
		}, nil
	case execinfrapb.DWithin:
		return func(build, probe geo.Geometry, radius float64, hasRadius bool) (bool, error) {
			if !hasRadius {
				return false, nil
			}
			return geomfn.DWithin(build, probe, radius)
		}, nil
	}
	return nil, pgerror.Newf(pgcode.FeatureNotSupported, "unsupported spatial relationship %s", rel)
}

// JoinFilterFunction is an additional join condition evaluated on a pair
// of rows that satisfied the spatial predicate. It may be arbitrarily
// expensive.
type JoinFilterFunction interface {
	Filter(probeRow int, probe coldata.Batch, buildRow int, build coldata.Batch) (bool, error)
}

// JoinFilterFunc is a function implementing JoinFilterFunction.
type JoinFilterFunc func(probeRow int, probe coldata.Batch, buildRow int, build coldata.Batch) (bool, error)

// Filter implements the JoinFilterFunction interface.
func (f JoinFilterFunc) Filter(
	probeRow int, probe coldata.Batch, buildRow int, build coldata.Batch,
) (bool, error) {
	return f(probeRow, probe, buildRow, build)
}
