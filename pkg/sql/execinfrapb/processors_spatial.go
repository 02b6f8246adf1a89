// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package execinfrapb holds the specifications of the spatial join
// processors: what a planner hands to the operator factories.
package execinfrapb

import (
	"strings"

	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
)

// NoColumn marks an optional column reference as unset.
const NoColumn = -1

// JoinType is the type of a spatial join.
type JoinType int

const (
	// InnerJoin emits only matched pairs.
	InnerJoin JoinType = iota
	// LeftOuterJoin additionally emits every probe row without a match,
	// padded with NULL build columns.
	LeftOuterJoin
)

func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "INNER"
	case LeftOuterJoin:
		return "LEFT OUTER"
	}
	return "UNKNOWN"
}

// SafeValue implements redact.SafeValue.
func (JoinType) SafeValue() {}

// ParseJoinType parses "inner" or "left".
func ParseJoinType(s string) (JoinType, error) {
	switch strings.ToLower(s) {
	case "inner":
		return InnerJoin, nil
	case "left", "left outer", "left_outer":
		return LeftOuterJoin, nil
	}
	return 0, pgerror.Newf(pgcode.FeatureNotSupported, "unsupported spatial join type %q", s)
}

// SpatialRelationship is the spatial predicate a join is planned for. It
// is evaluated as f(build, probe).
type SpatialRelationship int

const (
	// Contains matches when the build geometry contains the probe geometry.
	Contains SpatialRelationship = iota
	// Within matches when the build geometry is within the probe geometry.
	Within
	// Intersects matches when the geometries share at least one point.
	Intersects
	// DWithin matches when the geometries are within the build row's
	// radius of each other.
	DWithin
)

var relationshipNames = [...]string{
	Contains:   "contains",
	Within:     "within",
	Intersects: "intersects",
	DWithin:    "dwithin",
}

func (r SpatialRelationship) String() string {
	if r < 0 || int(r) >= len(relationshipNames) {
		return "unknown"
	}
	return relationshipNames[r]
}

// SafeValue implements redact.SafeValue.
func (SpatialRelationship) SafeValue() {}

// ParseSpatialRelationship parses a relationship name, with or without the
// st_ prefix.
func ParseSpatialRelationship(s string) (SpatialRelationship, error) {
	name := strings.TrimPrefix(strings.ToLower(s), "st_")
	for r, n := range relationshipNames {
		if n == name {
			return SpatialRelationship(r), nil
		}
	}
	return 0, pgerror.Newf(pgcode.FeatureNotSupported, "unsupported spatial relationship %q", s)
}

// SpatialIndexBuilderSpec is the specification of the build side of a
// spatial join.
type SpatialIndexBuilderSpec struct {
	// Types are the types of the build input columns.
	Types []coltypes.T
	// GeometryColumn is the index of the build geometry.
	GeometryColumn int
	// RadiusColumn is the index of the Float64 distance column for DWithin
	// joins, or NoColumn.
	RadiusColumn int
	// PartitionColumn is the index of the Int64 spatial partition column in
	// distributed joins, or NoColumn.
	PartitionColumn int
	// KdbTree is the JSON form of the partition router. It is required
	// when PartitionColumn is set.
	KdbTree []byte
	// LocalPartitions are the partitions this instance is responsible for.
	// Rows of other partitions are discarded. Empty means all partitions.
	LocalPartitions []int
	// OutputColumns are the build columns appended to every output row.
	OutputColumns []int
	// Relationship is the spatial predicate.
	Relationship SpatialRelationship
}

// SpatialJoinerSpec is the specification of the probe side of a spatial
// join.
type SpatialJoinerSpec struct {
	Type JoinType
	// Types are the types of the probe input columns.
	Types []coltypes.T
	// GeometryColumn is the index of the probe geometry.
	GeometryColumn int
	// PartitionColumn is the index of the Int64 spatial partition column in
	// distributed joins, or NoColumn.
	PartitionColumn int
	// OutputColumns are the probe columns leading every output row.
	OutputColumns []int
}

func checkColumn(typs []coltypes.T, idx int, want coltypes.T, what string, optional bool) error {
	if idx == NoColumn && optional {
		return nil
	}
	if idx < 0 || idx >= len(typs) {
		return pgerror.Newf(pgcode.InvalidParameterValue,
			"%s column %d out of range for %d input columns", what, idx, len(typs))
	}
	if typs[idx] != want {
		return pgerror.Newf(pgcode.InvalidParameterValue,
			"%s column %d has type %s, expected %s", what, idx, typs[idx], want)
	}
	return nil
}

func checkOutputColumns(typs []coltypes.T, cols []int) error {
	for _, c := range cols {
		if c < 0 || c >= len(typs) {
			return pgerror.Newf(pgcode.InvalidParameterValue,
				"output column %d out of range for %d input columns", c, len(typs))
		}
	}
	return nil
}

// Validate checks the column references of the spec.
func (s *SpatialIndexBuilderSpec) Validate() error {
	if err := checkColumn(s.Types, s.GeometryColumn, coltypes.Geometry, "geometry", false); err != nil {
		return err
	}
	if err := checkColumn(s.Types, s.RadiusColumn, coltypes.Float64, "radius", true); err != nil {
		return err
	}
	if err := checkColumn(s.Types, s.PartitionColumn, coltypes.Int64, "partition", true); err != nil {
		return err
	}
	if s.PartitionColumn != NoColumn && len(s.KdbTree) == 0 {
		return pgerror.New(pgcode.InvalidParameterValue, "partitioned spatial join requires a kdb tree")
	}
	if s.Relationship == DWithin && s.RadiusColumn == NoColumn {
		return pgerror.New(pgcode.InvalidParameterValue, "dwithin requires a radius column")
	}
	if s.Relationship != DWithin && s.RadiusColumn != NoColumn {
		return pgerror.Newf(pgcode.InvalidParameterValue, "%s does not take a radius", s.Relationship)
	}
	if s.Relationship < Contains || s.Relationship > DWithin {
		return pgerror.Newf(pgcode.FeatureNotSupported, "unsupported spatial relationship %d", int(s.Relationship))
	}
	return checkOutputColumns(s.Types, s.OutputColumns)
}

// Validate checks the column references of the spec.
func (s *SpatialJoinerSpec) Validate() error {
	if s.Type != InnerJoin && s.Type != LeftOuterJoin {
		return pgerror.Newf(pgcode.FeatureNotSupported, "unsupported spatial join type %d", int(s.Type))
	}
	if err := checkColumn(s.Types, s.GeometryColumn, coltypes.Geometry, "geometry", false); err != nil {
		return err
	}
	if err := checkColumn(s.Types, s.PartitionColumn, coltypes.Int64, "partition", true); err != nil {
		return err
	}
	return checkOutputColumns(s.Types, s.OutputColumns)
}
