// Copyright 2021 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geopartition contains the KdbTree used to route geometries to the
// spatial partitions of a distributed spatial join.
//
// Every instance taking part in a distributed join must use a byte-identical
// tree, which is why trees are shipped around in their JSON form.
package geopartition

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/geo/geopb"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
)

// Axis is the coordinate an internal node splits on.
type Axis int

const (
	// AxisX splits into a left child with x < Split and a right child with
	// x >= Split.
	AxisX Axis = iota
	// AxisY splits into a lower child with y < Split and an upper child with
	// y >= Split.
	AxisY
)

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}

// Node is a node of a KdbTree. A node is either a leaf, carrying a
// partition id, or an internal node with exactly two children whose extents
// tile the node's extent.
type Node struct {
	Extent geopb.BoundingBox
	// LeafID is the partition id of a leaf, -1 for internal nodes.
	LeafID int
	Left   *Node
	Right  *Node

	axis  Axis
	split float64
}

// IsLeaf returns whether n is a leaf.
func (n *Node) IsLeaf() bool {
	return n.Left == nil
}

// NewLeaf returns a leaf node.
func NewLeaf(extent geopb.BoundingBox, id int) *Node {
	return &Node{Extent: extent, LeafID: id}
}

// NewInternal returns an internal node over two children, deriving the
// split from the children's extents.
func NewInternal(extent geopb.BoundingBox, left, right *Node) (*Node, error) {
	n := &Node{Extent: extent, LeafID: -1, Left: left, Right: right}
	if err := n.deriveSplit(); err != nil {
		return nil, err
	}
	return n, nil
}

// MustNewInternal is like NewInternal but panics on error.
func MustNewInternal(extent geopb.BoundingBox, left, right *Node) *Node {
	n, err := NewInternal(extent, left, right)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *Node) deriveSplit() error {
	l, r, e := n.Left.Extent, n.Right.Extent, n.Extent
	switch {
	case l.MaxX == r.MinX && l.MinX == e.MinX && r.MaxX == e.MaxX &&
		l.MinY == e.MinY && r.MinY == e.MinY && l.MaxY == e.MaxY && r.MaxY == e.MaxY:
		n.axis, n.split = AxisX, l.MaxX
	case l.MaxY == r.MinY && l.MinY == e.MinY && r.MaxY == e.MaxY &&
		l.MinX == e.MinX && r.MinX == e.MinX && l.MaxX == e.MaxX && r.MaxX == e.MaxX:
		n.axis, n.split = AxisY, l.MaxY
	default:
		return pgerror.Newf(pgcode.InvalidParameterValue,
			"children %s and %s do not split %s", l, r, e)
	}
	return nil
}

// KdbTree is an immutable binary space partition. It is safe for concurrent
// use.
type KdbTree struct {
	root   *Node
	leaves []Leaf
}

// Leaf describes one partition of a KdbTree.
type Leaf struct {
	ID     int
	Extent geopb.BoundingBox
}

// NewKdbTree validates the tree rooted at root. Leaf ids must be unique and
// non-negative.
func NewKdbTree(root *Node) (*KdbTree, error) {
	if root == nil {
		return nil, pgerror.New(pgcode.InvalidParameterValue, "kdb tree has no root")
	}
	t := &KdbTree{root: root}
	seen := make(map[int]struct{})
	var walk func(n *Node) error
	walk = func(n *Node) error {
		if (n.Left == nil) != (n.Right == nil) {
			return pgerror.Newf(pgcode.InvalidParameterValue,
				"kdb tree node %s has a single child", n.Extent)
		}
		if n.IsLeaf() {
			if n.LeafID < 0 {
				return pgerror.Newf(pgcode.InvalidParameterValue,
					"kdb tree leaf %s has invalid id %d", n.Extent, n.LeafID)
			}
			if _, ok := seen[n.LeafID]; ok {
				return pgerror.Newf(pgcode.InvalidParameterValue,
					"kdb tree leaf id %d is not unique", n.LeafID)
			}
			seen[n.LeafID] = struct{}{}
			t.leaves = append(t.leaves, Leaf{ID: n.LeafID, Extent: n.Extent})
			return nil
		}
		n.LeafID = -1
		if err := n.deriveSplit(); err != nil {
			return err
		}
		if err := walk(n.Left); err != nil {
			return err
		}
		return walk(n.Right)
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	sort.Slice(t.leaves, func(i, j int) bool { return t.leaves[i].ID < t.leaves[j].ID })
	return t, nil
}

// Leaves returns the partitions of the tree ordered by id.
func (t *KdbTree) Leaves() []Leaf {
	return t.leaves
}

// HasLeaf returns whether id is the id of a leaf.
func (t *KdbTree) HasLeaf(id int) bool {
	i := sort.Search(len(t.leaves), func(i int) bool { return t.leaves[i].ID >= id })
	return i < len(t.leaves) && t.leaves[i].ID == id
}

// NumPartitions returns the number of leaves.
func (t *KdbTree) NumPartitions() int {
	return len(t.leaves)
}

// DefaultPartition returns the partition that owns rows which have no
// location, such as NULL geometries. It is the lowest leaf id.
func (t *KdbTree) DefaultPartition() int {
	return t.leaves[0].ID
}

// FindIntersectingLeaves returns the ids, in ascending order, of the
// partitions a box must be replicated to. A box is sent to every side of a
// split it reaches, where the lower side is reached when the box starts
// strictly below the split and the upper side when it ends at or above it.
// Boxes outside the root extent are routed to the closest partitions, so
// every non-empty box is routed somewhere. An empty box is routed nowhere.
func (t *KdbTree) FindIntersectingLeaves(bbox geopb.BoundingBox) []int {
	if bbox.IsEmpty() {
		return nil
	}
	var res []int
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			res = append(res, n.LeafID)
			return
		}
		lo, hi := bbox.MinX, bbox.MaxX
		if n.axis == AxisY {
			lo, hi = bbox.MinY, bbox.MaxY
		}
		if lo < n.split {
			walk(n.Left)
		}
		if hi >= n.split {
			walk(n.Right)
		}
	}
	walk(t.root)
	sort.Ints(res)
	return res
}

// PartitionForPoint returns the single partition owning (x, y). It is
// always one of the partitions FindIntersectingLeaves returns for any box
// containing the point.
func (t *KdbTree) PartitionForPoint(x, y float64) int {
	n := t.root
	for !n.IsLeaf() {
		v := x
		if n.axis == AxisY {
			v = y
		}
		if v < n.split {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.LeafID
}

// String renders the tree one node per line, children indented under their
// parent.
func (t *KdbTree) String() string {
	var sb strings.Builder
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		if n.IsLeaf() {
			fmt.Fprintf(&sb, "leaf %d %s\n", n.LeafID, n.Extent)
			return
		}
		fmt.Fprintf(&sb, "split %s=%g %s\n", n.axis, n.split, n.Extent)
		walk(n.Left, depth+1)
		walk(n.Right, depth+1)
	}
	walk(t.root, 0)
	return sb.String()
}

type jsonNode struct {
	Extent geopb.BoundingBox `json:"extent"`
	LeafID *int              `json:"leafId,omitempty"`
	Left   *jsonNode         `json:"left,omitempty"`
	Right  *jsonNode         `json:"right,omitempty"`
}

type jsonTree struct {
	Root *jsonNode `json:"root"`
}

func toJSONNode(n *Node) *jsonNode {
	if n.IsLeaf() {
		id := n.LeafID
		return &jsonNode{Extent: n.Extent, LeafID: &id}
	}
	return &jsonNode{Extent: n.Extent, Left: toJSONNode(n.Left), Right: toJSONNode(n.Right)}
}

func fromJSONNode(j *jsonNode) (*Node, error) {
	if j == nil {
		return nil, pgerror.New(pgcode.InvalidParameterValue, "kdb tree node is missing")
	}
	if j.LeafID != nil {
		if j.Left != nil || j.Right != nil {
			return nil, pgerror.Newf(pgcode.InvalidParameterValue,
				"kdb tree leaf %d has children", *j.LeafID)
		}
		return NewLeaf(j.Extent, *j.LeafID), nil
	}
	left, err := fromJSONNode(j.Left)
	if err != nil {
		return nil, err
	}
	right, err := fromJSONNode(j.Right)
	if err != nil {
		return nil, err
	}
	return &Node{Extent: j.Extent, LeafID: -1, Left: left, Right: right}, nil
}

// MarshalJSON implements json.Marshaler.
func (t *KdbTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonTree{Root: toJSONNode(t.root)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *KdbTree) UnmarshalJSON(data []byte) error {
	var j jsonTree
	if err := json.Unmarshal(data, &j); err != nil {
		return pgerror.Wrap(err, pgcode.InvalidParameterValue, "invalid kdb tree json")
	}
	root, err := fromJSONNode(j.Root)
	if err != nil {
		return err
	}
	parsed, err := NewKdbTree(root)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}

// ParseKdbTree decodes a tree produced by MarshalJSON.
func ParseKdbTree(data []byte) (*KdbTree, error) {
	var t KdbTree
	if err := t.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &t, nil
}

// BuildKdbTree splits extent until no leaf holds more than maxItemsPerNode
// of the sample boxes or maxLevels is reached. Each split is at the median
// of the items' lower bounds along alternating axes, starting with x. Leaf
// ids are assigned in depth-first, lower-side-first order.
func BuildKdbTree(
	maxItemsPerNode, maxLevels int, extent geopb.BoundingBox, items []geopb.BoundingBox,
) (*KdbTree, error) {
	if maxItemsPerNode <= 0 {
		return nil, pgerror.Newf(pgcode.InvalidParameterValue,
			"max items per node must be positive, got %d", maxItemsPerNode)
	}
	if maxLevels < 0 {
		return nil, pgerror.Newf(pgcode.InvalidParameterValue,
			"max levels must not be negative, got %d", maxLevels)
	}
	if extent.IsEmpty() {
		return nil, pgerror.New(pgcode.InvalidParameterValue, "kdb tree extent is empty")
	}
	nextID := 0
	var build func(extent geopb.BoundingBox, items []geopb.BoundingBox, level int) *Node
	build = func(extent geopb.BoundingBox, items []geopb.BoundingBox, level int) *Node {
		if len(items) > maxItemsPerNode && level < maxLevels {
			for _, axis := range []Axis{Axis(level % 2), Axis((level + 1) % 2)} {
				if n := trySplit(extent, items, axis, level, build); n != nil {
					return n
				}
			}
		}
		n := NewLeaf(extent, nextID)
		nextID++
		return n
	}
	root := build(extent, items, 0)
	return NewKdbTree(root)
}

// trySplit splits extent along axis at the median of the items' lower
// bounds, or returns nil if that split would leave a side empty.
func trySplit(
	extent geopb.BoundingBox,
	items []geopb.BoundingBox,
	axis Axis,
	level int,
	build func(geopb.BoundingBox, []geopb.BoundingBox, int) *Node,
) *Node {
	lower := func(b geopb.BoundingBox) float64 {
		if axis == AxisX {
			return b.MinX
		}
		return b.MinY
	}
	upper := func(b geopb.BoundingBox) float64 {
		if axis == AxisX {
			return b.MaxX
		}
		return b.MaxY
	}
	sorted := append([]geopb.BoundingBox(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return lower(sorted[i]) < lower(sorted[j]) })
	split := lower(sorted[len(sorted)/2])
	lo, hi := extent.MinX, extent.MaxX
	if axis == AxisY {
		lo, hi = extent.MinY, extent.MaxY
	}
	if split <= lo || split >= hi {
		return nil
	}
	var leftItems, rightItems []geopb.BoundingBox
	for _, b := range sorted {
		if lower(b) < split {
			leftItems = append(leftItems, b)
		}
		if upper(b) >= split {
			rightItems = append(rightItems, b)
		}
	}
	leftExtent, rightExtent := extent, extent
	if axis == AxisX {
		leftExtent.MaxX, rightExtent.MinX = split, split
	} else {
		leftExtent.MaxY, rightExtent.MinY = split, split
	}
	left := build(leftExtent, leftItems, level+1)
	right := build(rightExtent, rightItems, level+1)
	return &Node{Extent: extent, LeafID: -1, Left: left, Right: right, axis: axis, split: split}
}

// MustParseKdbTree is like ParseKdbTree but panics on error.
func MustParseKdbTree(data string) *KdbTree {
	t, err := ParseKdbTree([]byte(data))
	if err != nil {
		panic(errors.Wrap(err, "parsing kdb tree"))
	}
	return t
}
