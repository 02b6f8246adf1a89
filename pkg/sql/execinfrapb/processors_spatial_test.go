// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package execinfrapb

import (
	"testing"

	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
	"github.com/stretchr/testify/require"
)

func TestSpatialIndexBuilderSpecValidate(t *testing.T) {
	typs := []coltypes.T{coltypes.Geometry, coltypes.Bytes, coltypes.Float64, coltypes.Int64}
	valid := SpatialIndexBuilderSpec{
		Types:           typs,
		GeometryColumn:  0,
		RadiusColumn:    NoColumn,
		PartitionColumn: NoColumn,
		OutputColumns:   []int{1},
		Relationship:    Contains,
	}
	require.NoError(t, valid.Validate())

	for _, tc := range []struct {
		name   string
		mutate func(*SpatialIndexBuilderSpec)
		err    string
	}{
		{"geometry out of range", func(s *SpatialIndexBuilderSpec) { s.GeometryColumn = 4 },
			"geometry column 4 out of range for 4 input columns"},
		{"geometry wrong type", func(s *SpatialIndexBuilderSpec) { s.GeometryColumn = 1 },
			"geometry column 1 has type bytes, expected geometry"},
		{"radius wrong type", func(s *SpatialIndexBuilderSpec) { s.RadiusColumn = 3; s.Relationship = DWithin },
			"radius column 3 has type int64, expected float64"},
		{"dwithin without radius", func(s *SpatialIndexBuilderSpec) { s.Relationship = DWithin },
			"dwithin requires a radius column"},
		{"radius without dwithin", func(s *SpatialIndexBuilderSpec) { s.RadiusColumn = 2 },
			"contains does not take a radius"},
		{"partition without tree", func(s *SpatialIndexBuilderSpec) { s.PartitionColumn = 3 },
			"partitioned spatial join requires a kdb tree"},
		{"output out of range", func(s *SpatialIndexBuilderSpec) { s.OutputColumns = []int{-1} },
			"output column -1 out of range for 4 input columns"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			spec := valid
			tc.mutate(&spec)
			err := spec.Validate()
			require.EqualError(t, err, tc.err)
			require.Equal(t, pgcode.InvalidParameterValue, pgerror.GetPGCode(err))
		})
	}
}

func TestSpatialJoinerSpecValidate(t *testing.T) {
	spec := SpatialJoinerSpec{
		Type:            LeftOuterJoin,
		Types:           []coltypes.T{coltypes.Bytes, coltypes.Geometry},
		GeometryColumn:  1,
		PartitionColumn: NoColumn,
		OutputColumns:   []int{0},
	}
	require.NoError(t, spec.Validate())

	spec.PartitionColumn = 0
	require.EqualError(t, spec.Validate(), "partition column 0 has type bytes, expected int64")

	spec.PartitionColumn = NoColumn
	spec.Type = JoinType(7)
	err := spec.Validate()
	require.EqualError(t, err, "unsupported spatial join type 7")
	require.Equal(t, pgcode.FeatureNotSupported, pgerror.GetPGCode(err))
}
