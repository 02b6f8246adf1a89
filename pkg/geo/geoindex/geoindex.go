// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geoindex contains the immutable in-memory spatial index that the
// build side of a spatial join is materialized into.
//
// Geometries are organized in a linear quadtree over the bounds of all
// indexed boxes. Each entry is stored once, under the finest quadtree cell
// that fully contains its bounding box, in a btree ordered by (level, Z-order
// code). A lookup visits, for every level in use, the Z-order range spanning
// the query box at that level and filters the entries by their exact
// bounding boxes.
package geoindex

import (
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/geo/geopb"
)

// Entry is one indexed build row.
type Entry struct {
	// Batch and Row locate the originating row among the index's batches.
	Batch int
	Row   int
	// Geometry is the decoded build geometry.
	Geometry geo.Geometry
	// BBox is the bounding box of Geometry, grown by Radius if HasRadius.
	BBox geopb.BoundingBox
	// Radius is the distance associated with the row for distance joins.
	Radius    float64
	HasRadius bool
	// Partition is the partition the row was routed to in distributed mode,
	// or -1.
	Partition int
}

// EntryOverhead is the fixed in-memory size of an Entry, not counting the
// geometry bytes.
const EntryOverhead = int64(unsafe.Sizeof(Entry{})) + int64(unsafe.Sizeof(indexEntry{}))*2

// MemoryUsage estimates the bytes retained by the entry.
func (e *Entry) MemoryUsage() int64 {
	return EntryOverhead + int64(len(e.Geometry.EWKB()))
}

// Builder is the growable buffer into which build rows are accumulated. It
// is owned by a single goroutine until Build hands its contents over to the
// index.
type Builder struct {
	batches []coldata.Batch
	entries []Entry
	built   bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddBatch registers a batch whose rows will be referenced by entries and
// returns its ordinal. The batch is retained, not copied.
func (b *Builder) AddBatch(batch coldata.Batch) int {
	b.assertNotBuilt()
	b.batches = append(b.batches, batch)
	return len(b.batches) - 1
}

// Add appends an entry. Entries are numbered in the order they are added.
func (b *Builder) Add(e Entry) {
	b.assertNotBuilt()
	if e.Batch < 0 || e.Batch >= len(b.batches) {
		panic(errors.AssertionFailedf("entry references unknown batch %d", e.Batch))
	}
	b.entries = append(b.entries, e)
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

func (b *Builder) assertNotBuilt() {
	if b.built {
		panic(errors.AssertionFailedf("spatial index builder used after Build"))
	}
}

// Build moves the accumulated rows into an immutable SpatialIndex. The
// Builder cannot be used afterwards.
func (b *Builder) Build() *SpatialIndex {
	b.assertNotBuilt()
	b.built = true
	idx := &SpatialIndex{
		batches: b.batches,
		entries: b.entries,
		bounds:  *geopb.NewBoundingBox(),
		store:   newIndexStore(),
	}
	b.batches, b.entries = nil, nil

	for i := range idx.entries {
		if bbox := idx.entries[i].BBox; !bbox.IsEmpty() {
			idx.bounds = idx.bounds.Union(bbox)
		}
	}
	for i := range idx.entries {
		bbox := idx.entries[i].BBox
		if bbox.IsEmpty() {
			continue
		}
		key := idx.keyFor(bbox)
		idx.levels |= 1 << uint(key.Level())
		idx.store.Write(key, i)
	}
	return idx
}

// SpatialIndex is an immutable index over build rows. It is safe for
// concurrent use by any number of readers.
type SpatialIndex struct {
	batches []coldata.Batch
	entries []Entry
	bounds  geopb.BoundingBox
	store   *indexStore
	// levels has bit L set if any entry is stored at quadtree level L.
	levels uint32
}

// Len returns the number of indexed rows.
func (s *SpatialIndex) Len() int {
	return len(s.entries)
}

// Entry returns the entry with the given id.
func (s *SpatialIndex) Entry(id int) *Entry {
	return &s.entries[id]
}

// Batch returns the build batch with the given ordinal.
func (s *SpatialIndex) Batch(i int) coldata.Batch {
	return s.batches[i]
}

// Bounds returns the union of all indexed boxes.
func (s *SpatialIndex) Bounds() geopb.BoundingBox {
	return s.bounds
}

// MemoryUsage estimates the bytes retained by the index entries.
func (s *SpatialIndex) MemoryUsage() int64 {
	var total int64
	for i := range s.entries {
		total += s.entries[i].MemoryUsage()
	}
	return total
}

// Candidates appends to buf (after truncating it) the ids of every entry whose
// box intersects bbox, in ascending order, i.e. build order.
func (s *SpatialIndex) Candidates(bbox geopb.BoundingBox, buf []int) []int {
	buf = buf[:0]
	if len(s.entries) == 0 || !bbox.Intersects(s.bounds) {
		return buf
	}
	x0, y0 := s.cell(bbox.MinX, bbox.MinY)
	x1, y1 := s.cell(bbox.MaxX, bbox.MaxY)
	spans := make([]KeySpan, 0, MaxLevel+1)
	for level := 0; level <= MaxLevel; level++ {
		if s.levels&(1<<uint(level)) == 0 {
			continue
		}
		shift := uint(MaxLevel - level)
		spans = append(spans, KeySpan{
			Start: makeKey(level, x0>>shift, y0>>shift),
			End:   makeKey(level, x1>>shift, y1>>shift),
		})
	}
	return s.store.Read(spans, buf, func(id int) bool {
		return s.entries[id].BBox.Intersects(bbox)
	})
}

// keyFor returns the finest cell containing the whole box.
func (s *SpatialIndex) keyFor(bbox geopb.BoundingBox) Key {
	x0, y0 := s.cell(bbox.MinX, bbox.MinY)
	x1, y1 := s.cell(bbox.MaxX, bbox.MaxY)
	level := MaxLevel
	for ; level > 0; level-- {
		shift := uint(MaxLevel - level)
		if x0>>shift == x1>>shift && y0>>shift == y1>>shift {
			break
		}
	}
	shift := uint(MaxLevel - level)
	return makeKey(level, x0>>shift, y0>>shift)
}

// cell maps a point to its finest level cell, clamping to the bounds.
func (s *SpatialIndex) cell(x, y float64) (uint32, uint32) {
	return scale(x, s.bounds.MinX, s.bounds.MaxX), scale(y, s.bounds.MinY, s.bounds.MaxY)
}

func scale(v, lo, hi float64) uint32 {
	const cells = 1 << MaxLevel
	width := hi - lo
	if width <= 0 || math.IsNaN(v) {
		return 0
	}
	c := math.Floor((v - lo) / width * cells)
	if c < 0 {
		return 0
	}
	if c >= cells {
		return cells - 1
	}
	return uint32(c)
}
