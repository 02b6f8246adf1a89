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
	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/geo/geoindex"
	"github.com/simpligility/trino/pkg/geo/geopartition"
	"github.com/simpligility/trino/pkg/geo/geopb"
)

// SpatialIndex is the published result of a build: the immutable index
// over the build rows plus everything a prober needs to evaluate a
// candidate pair. It is shared by every probe operator and never mutated.
type SpatialIndex struct {
	index     *geoindex.SpatialIndex
	predicate SpatialPredicate
	filter    JoinFilterFunction

	// kdbTree is set for partitioned joins.
	kdbTree *geopartition.KdbTree
	// localPartitions is nil if every partition is local.
	localPartitions map[int]struct{}

	buildTypes         []coltypes.T
	buildOutputColumns []int
}

// Len returns the number of indexed build rows.
func (s *SpatialIndex) Len() int {
	return s.index.Len()
}

// Partitioned returns whether the join runs in distributed mode.
func (s *SpatialIndex) Partitioned() bool {
	return s.kdbTree != nil
}

// KdbTree returns the partition router, or nil.
func (s *SpatialIndex) KdbTree() *geopartition.KdbTree {
	return s.kdbTree
}

// isLocal returns whether partition p is processed by this instance.
func (s *SpatialIndex) isLocal(p int) bool {
	if s.localPartitions == nil {
		return true
	}
	_, ok := s.localPartitions[p]
	return ok
}

// candidates appends the ids of the entries whose box intersects the probe
// box, in build order.
func (s *SpatialIndex) candidates(probe geopb.BoundingBox, buf []int) []int {
	return s.index.Candidates(probe, buf)
}

// eligible returns whether the candidate pair must be evaluated by the
// instance processing probePartition. In distributed mode both sides were
// replicated to every partition they overlap; the pair is owned by the
// single partition containing the lower-left corner of the intersection of
// the two boxes.
func (s *SpatialIndex) eligible(e *geoindex.Entry, probe geopb.BoundingBox, probePartition int) bool {
	if s.kdbTree == nil {
		return true
	}
	if e.Partition != probePartition {
		return false
	}
	ref := e.BBox.Intersection(probe)
	if ref.IsEmpty() {
		return false
	}
	return s.kdbTree.PartitionForPoint(ref.MinX, ref.MinY) == probePartition
}

// matches evaluates the spatial predicate on a candidate pair.
func (s *SpatialIndex) matches(e *geoindex.Entry, probe geo.Geometry) (bool, error) {
	return s.predicate(e.Geometry, probe, e.Radius, e.HasRadius)
}

// passesFilter evaluates the optional filter function on a matched pair.
func (s *SpatialIndex) passesFilter(e *geoindex.Entry, probeRow int, probe coldata.Batch) (bool, error) {
	if s.filter == nil {
		return true, nil
	}
	return s.filter.Filter(probeRow, probe, e.Row, s.index.Batch(e.Batch))
}

// appendBuildColumns appends the build output columns of entry e, starting
// at output column offset.
func (s *SpatialIndex) appendBuildColumns(b *coldata.BatchBuilder, offset int, e *geoindex.Entry) {
	batch := s.index.Batch(e.Batch)
	for i, c := range s.buildOutputColumns {
		b.AppendFrom(offset+i, batch.ColVec(c), e.Row)
	}
}

// appendNullBuildColumns appends NULL to every build output column.
func (s *SpatialIndex) appendNullBuildColumns(b *coldata.BatchBuilder, offset int) {
	for i := range s.buildOutputColumns {
		b.AppendNull(offset + i)
	}
}
