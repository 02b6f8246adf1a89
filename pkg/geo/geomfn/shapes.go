// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geomfn

import (
	"math"
	"sort"

	"github.com/simpligility/trino/pkg/geo"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// shapeSet is a geometry decomposed into its non-empty components, with all
// coordinates reduced to XY.
type shapeSet struct {
	points   [][2]float64
	lines    [][]float64
	polygons [][][]float64
}

func (s *shapeSet) empty() bool {
	return len(s.points) == 0 && len(s.lines) == 0 && len(s.polygons) == 0
}

// chains returns every linestring and polygon ring of the set.
func (s *shapeSet) chains() [][]float64 {
	ret := append([][]float64(nil), s.lines...)
	for _, rings := range s.polygons {
		ret = append(ret, rings...)
	}
	return ret
}

func decompose(g geo.Geometry) (shapeSet, error) {
	var s shapeSet
	it := geo.NewGeomTIterator(g.AsGeomT(), geo.EmptyBehaviorOmit)
	for {
		t, ok, err := it.Next()
		if err != nil {
			return shapeSet{}, err
		}
		if !ok {
			return s, nil
		}
		switch t := t.(type) {
		case *geom.Point:
			s.points = append(s.points, [2]float64{t.X(), t.Y()})
		case *geom.LineString:
			s.lines = append(s.lines, xyFlat(t.FlatCoords(), t.Stride()))
		case *geom.Polygon:
			rings := make([][]float64, 0, t.NumLinearRings())
			for i := 0; i < t.NumLinearRings(); i++ {
				r := t.LinearRing(i)
				rings = append(rings, xyFlat(r.FlatCoords(), r.Stride()))
			}
			s.polygons = append(s.polygons, rings)
		}
	}
}

// xyFlat drops any Z and M ordinates.
func xyFlat(flat []float64, stride int) []float64 {
	if stride == 2 {
		return flat
	}
	ret := make([]float64, 0, len(flat)/stride*2)
	for i := 0; i+1 < len(flat); i += stride {
		ret = append(ret, flat[i], flat[i+1])
	}
	return ret
}

// linearRingSide represents the side of a linear ring a point is located.
type linearRingSide int

const (
	outsideLinearRing linearRingSide = iota
	onLinearRing
	insideLinearRing
)

func onChain(x, y float64, chain []float64) bool {
	if len(chain) == 2 {
		return chain[0] == x && chain[1] == y
	}
	return xy.IsOnLine(geom.XY, geom.Coord{x, y}, chain)
}

// findPointSideOfRing uses ray casting against a closed ring.
func findPointSideOfRing(x, y float64, ring []float64) linearRingSide {
	if len(ring) < 6 {
		return outsideLinearRing
	}
	if onChain(x, y, ring) {
		return onLinearRing
	}
	inside := false
	n := len(ring) / 2
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[2*i], ring[2*i+1]
		xj, yj := ring[2*j], ring[2*j+1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	if inside {
		return insideLinearRing
	}
	return outsideLinearRing
}

// findPointSideOfPolygon accounts for holes: a point inside a hole is
// outside the polygon, a point on a hole's ring is on the boundary.
func findPointSideOfPolygon(x, y float64, rings [][]float64) linearRingSide {
	if len(rings) == 0 {
		return outsideLinearRing
	}
	side := findPointSideOfRing(x, y, rings[0])
	if side != insideLinearRing {
		return side
	}
	for _, hole := range rings[1:] {
		switch findPointSideOfRing(x, y, hole) {
		case insideLinearRing:
			return outsideLinearRing
		case onLinearRing:
			return onLinearRing
		}
	}
	return insideLinearRing
}

// coversPoint returns whether (x, y) lies in the closure of s.
func (s *shapeSet) coversPoint(x, y float64) bool {
	for _, p := range s.points {
		if p[0] == x && p[1] == y {
			return true
		}
	}
	for _, l := range s.lines {
		if onChain(x, y, l) {
			return true
		}
	}
	for _, rings := range s.polygons {
		if findPointSideOfPolygon(x, y, rings) != outsideLinearRing {
			return true
		}
	}
	return false
}

// interiorContainsPoint returns whether (x, y) lies in the interior of s:
// strictly inside a polygon, on a line away from its endpoints, or on one
// of its points.
func (s *shapeSet) interiorContainsPoint(x, y float64) bool {
	for _, rings := range s.polygons {
		if findPointSideOfPolygon(x, y, rings) == insideLinearRing {
			return true
		}
	}
	for _, l := range s.lines {
		if !onChain(x, y, l) {
			continue
		}
		n := len(l)
		closed := l[0] == l[n-2] && l[1] == l[n-1]
		if closed || !((x == l[0] && y == l[1]) || (x == l[n-2] && y == l[n-1])) {
			return true
		}
	}
	if len(s.polygons) == 0 && len(s.lines) == 0 {
		for _, p := range s.points {
			if p[0] == x && p[1] == y {
				return true
			}
		}
	}
	return false
}

func orientation(ax, ay, bx, by, cx, cy float64) float64 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

func sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	}
	return 0
}

func onSegment(px, py, ax, ay, bx, by float64) bool {
	return orientation(ax, ay, bx, by, px, py) == 0 &&
		math.Min(ax, bx) <= px && px <= math.Max(ax, bx) &&
		math.Min(ay, by) <= py && py <= math.Max(ay, by)
}

// segmentsIntersect returns whether segments ab and cd share a point.
func segmentsIntersect(ax, ay, bx, by, cx, cy, dx, dy float64) bool {
	o1 := sign(orientation(ax, ay, bx, by, cx, cy))
	o2 := sign(orientation(ax, ay, bx, by, dx, dy))
	o3 := sign(orientation(cx, cy, dx, dy, ax, ay))
	o4 := sign(orientation(cx, cy, dx, dy, bx, by))
	if o1 != o2 && o3 != o4 {
		return true
	}
	return (o1 == 0 && onSegment(cx, cy, ax, ay, bx, by)) ||
		(o2 == 0 && onSegment(dx, dy, ax, ay, bx, by)) ||
		(o3 == 0 && onSegment(ax, ay, cx, cy, dx, dy)) ||
		(o4 == 0 && onSegment(bx, by, cx, cy, dx, dy))
}

func chainsIntersect(a, b []float64) bool {
	if len(a) == 2 {
		return onChain(a[0], a[1], b)
	}
	if len(b) == 2 {
		return onChain(b[0], b[1], a)
	}
	for i := 0; i+3 < len(a); i += 2 {
		for j := 0; j+3 < len(b); j += 2 {
			if segmentsIntersect(a[i], a[i+1], a[i+2], a[i+3], b[j], b[j+1], b[j+2], b[j+3]) {
				return true
			}
		}
	}
	return false
}

// splitParams returns the sorted positions along segment pq, as fractions
// in [0, 1], at which pq meets any chain of s. Between two consecutive
// positions pq lies either entirely inside or entirely outside s.
func (s *shapeSet) splitParams(px, py, qx, qy float64) []float64 {
	ts := []float64{0, 1}
	dx, dy := qx-px, qy-py
	lenSq := dx*dx + dy*dy
	project := func(x, y float64) {
		if lenSq == 0 {
			return
		}
		t := ((x-px)*dx + (y-py)*dy) / lenSq
		if t > 0 && t < 1 && onSegment(x, y, px, py, qx, qy) {
			ts = append(ts, t)
		}
	}
	for _, c := range s.chains() {
		for j := 0; j+3 < len(c); j += 2 {
			cx, cy, ex, ey := c[j], c[j+1], c[j+2], c[j+3]
			if !segmentsIntersect(px, py, qx, qy, cx, cy, ex, ey) {
				continue
			}
			denom := dx*(ey-cy) - dy*(ex-cx)
			if denom != 0 {
				t := ((cx-px)*(ey-cy) - (cy-py)*(ex-cx)) / denom
				if t > 0 && t < 1 {
					ts = append(ts, t)
				}
				continue
			}
			// Collinear overlap: the endpoints of cd split pq.
			project(cx, cy)
			project(ex, ey)
		}
	}
	for _, p := range s.points {
		project(p[0], p[1])
	}
	sort.Float64s(ts)
	return ts
}

// coversSegment returns whether every point of segment pq lies in the closure
// of s.
func (s *shapeSet) coversSegment(px, py, qx, qy float64) bool {
	if !s.coversPoint(px, py) || !s.coversPoint(qx, qy) {
		return false
	}
	ts := s.splitParams(px, py, qx, qy)
	for i := 1; i < len(ts); i++ {
		if ts[i] == ts[i-1] {
			continue
		}
		m := (ts[i] + ts[i-1]) / 2
		if !s.coversPoint(px+m*(qx-px), py+m*(qy-py)) {
			return false
		}
	}
	return true
}

func (s *shapeSet) coversChain(chain []float64) bool {
	if len(chain) == 2 {
		return s.coversPoint(chain[0], chain[1])
	}
	for i := 0; i+3 < len(chain); i += 2 {
		if !s.coversSegment(chain[i], chain[i+1], chain[i+2], chain[i+3]) {
			return false
		}
	}
	return true
}

func pointSegmentDistance(px, py, ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}

func pointChainDistance(x, y float64, chain []float64) float64 {
	if len(chain) == 2 {
		return math.Hypot(x-chain[0], y-chain[1])
	}
	d := math.Inf(1)
	for i := 0; i+3 < len(chain); i += 2 {
		d = math.Min(d, pointSegmentDistance(x, y, chain[i], chain[i+1], chain[i+2], chain[i+3]))
	}
	return d
}

// chainDistance assumes the chains do not intersect.
func chainDistance(a, b []float64) float64 {
	d := math.Inf(1)
	for i := 0; i+1 < len(a); i += 2 {
		d = math.Min(d, pointChainDistance(a[i], a[i+1], b))
	}
	for j := 0; j+1 < len(b); j += 2 {
		d = math.Min(d, pointChainDistance(b[j], b[j+1], a))
	}
	return d
}
