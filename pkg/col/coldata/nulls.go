// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package coldata

// onesMask is a max uint64, where every bit is set to 1.
const onesMask = ^uint64(0)

// Nulls represents a list of potentially nullable values using a bitmap. It is
// intended to be used alongside a slice (e.g. in the Vec interface) -- if the
// ith bit is on, then the ith element in the slice is null.
type Nulls struct {
	nulls []uint64
	// maybeHasNulls is a best-effort representation of whether or not the
	// vector has any null values set. If it is false, there definitely will be
	// no null values. If it is true, there may or may not be null values.
	maybeHasNulls bool
}

// NewNulls returns a new nulls vector, initialized with a length.
func NewNulls(len int) Nulls {
	if len > 0 {
		return Nulls{nulls: make([]uint64, (len-1)>>6+1)}
	}
	return Nulls{}
}

// MaybeHasNulls returns true if the column possibly has any null values, and
// returns false if the column definitely has no null values.
func (n *Nulls) MaybeHasNulls() bool {
	return n.maybeHasNulls
}

// NullAt returns true if the ith value of the column is null.
func (n *Nulls) NullAt(i int) bool {
	idx := i >> 6
	if idx >= len(n.nulls) {
		return false
	}
	return n.nulls[idx]&(1<<(uint(i)%64)) != 0
}

// SetNull sets the ith value of the column to null.
func (n *Nulls) SetNull(i int) {
	n.ensure(i + 1)
	n.maybeHasNulls = true
	n.nulls[i>>6] |= 1 << (uint(i) % 64)
}

// UnsetNull unsets the ith value of the column.
func (n *Nulls) UnsetNull(i int) {
	if i>>6 < len(n.nulls) {
		n.nulls[i>>6] &^= 1 << (uint(i) % 64)
	}
}

// SetNullRange sets all the values in [start, end) to null.
func (n *Nulls) SetNullRange(start, end int) {
	if start >= end {
		return
	}
	for i := start; i < end; i++ {
		n.SetNull(i)
	}
}

// UnsetNullRange unsets all the nulls in the range [start, end).
func (n *Nulls) UnsetNullRange(start, end int) {
	for i := start; i < end; i++ {
		n.UnsetNull(i)
	}
}

// SetNulls sets the column to have only null values.
func (n *Nulls) SetNulls() {
	n.maybeHasNulls = true
	for i := range n.nulls {
		n.nulls[i] = onesMask
	}
}

// UnsetNulls sets the column to have 0 null values.
func (n *Nulls) UnsetNulls() {
	n.maybeHasNulls = false
	for i := range n.nulls {
		n.nulls[i] = 0
	}
}

// NullBitmap returns the null bitmap.
func (n *Nulls) NullBitmap() []uint64 {
	return n.nulls
}

// ensure grows the bitmap so that it can address length values.
func (n *Nulls) ensure(length int) {
	need := 0
	if length > 0 {
		need = (length-1)>>6 + 1
	}
	for len(n.nulls) < need {
		n.nulls = append(n.nulls, 0)
	}
}
