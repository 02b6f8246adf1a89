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

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// BoundingBox is an axis aligned rectangle. Edges are inclusive.
type BoundingBox struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
}

// NewBoundingBox returns a properly initialized, empty bounding box.
func NewBoundingBox() *BoundingBox {
	return &BoundingBox{
		MinX: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MinY: math.MaxFloat64,
		MaxY: -math.MaxFloat64,
	}
}

// MakeBoundingBox returns the box spanning the given corners.
func MakeBoundingBox(minX, minY, maxX, maxY float64) BoundingBox {
	return BoundingBox{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY}
}

// Update updates the BoundingBox coordinates.
func (b *BoundingBox) Update(x, y float64) {
	b.MinX = math.Min(b.MinX, x)
	b.MaxX = math.Max(b.MaxX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxY = math.Max(b.MaxY, y)
}

// IsEmpty returns whether the box contains no points.
func (b BoundingBox) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// Width returns the extent along X.
func (b BoundingBox) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the extent along Y.
func (b BoundingBox) Height() float64 {
	return b.MaxY - b.MinY
}

// R2 returns the box as an r2.Rect.
func (b BoundingBox) R2() r2.Rect {
	if b.IsEmpty() {
		return r2.EmptyRect()
	}
	return r2.Rect{
		X: r1.Interval{Lo: b.MinX, Hi: b.MaxX},
		Y: r1.Interval{Lo: b.MinY, Hi: b.MaxY},
	}
}

// FromR2 converts an r2.Rect into a BoundingBox.
func FromR2(r r2.Rect) BoundingBox {
	if r.IsEmpty() {
		return *NewBoundingBox()
	}
	return BoundingBox{MinX: r.X.Lo, MaxX: r.X.Hi, MinY: r.Y.Lo, MaxY: r.Y.Hi}
}

// Intersects returns whether the two boxes share at least one point.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	return b.R2().Intersects(o.R2())
}

// Intersection returns the box shared by b and o, which is empty if they do
// not intersect.
func (b BoundingBox) Intersection(o BoundingBox) BoundingBox {
	return FromR2(b.R2().Intersection(o.R2()))
}

// Union returns the smallest box covering both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return FromR2(b.R2().Union(o.R2()))
}

// Expand returns b grown by d on every side.
func (b BoundingBox) Expand(d float64) BoundingBox {
	if b.IsEmpty() || d == 0 {
		return b
	}
	return FromR2(b.R2().ExpandedByMargin(d))
}

// ContainsPoint returns whether (x, y) lies in b, edges included.
func (b BoundingBox) ContainsPoint(x, y float64) bool {
	return !b.IsEmpty() && b.R2().ContainsPoint(r2.Point{X: x, Y: y})
}

// Covers returns whether o lies entirely in b.
func (b BoundingBox) Covers(o BoundingBox) bool {
	if o.IsEmpty() {
		return true
	}
	return !b.IsEmpty() && b.R2().Contains(o.R2())
}

func (b BoundingBox) String() string {
	if b.IsEmpty() {
		return "BOX EMPTY"
	}
	return fmt.Sprintf("BOX(%g %g,%g %g)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}
