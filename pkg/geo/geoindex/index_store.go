// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geoindex

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
)

// Key is a cell of the index's linear quadtree: the level in the top bits
// and the Z-order (Morton) code of the cell at that level in the rest.
type Key uint64

const levelShift = 58

// MaxLevel is the finest level of the quadtree. A level L cell is one of
// 4^L equal subdivisions of the index bounds.
const MaxLevel = 16

func makeKey(level int, x, y uint32) Key {
	return Key(uint64(level)<<levelShift | interleave(x, y))
}

// Level returns the quadtree level of the key.
func (k Key) Level() int {
	return int(k >> levelShift)
}

func (k Key) String() string {
	x, y := deinterleave(uint64(k) & (1<<levelShift - 1))
	return fmt.Sprintf("L%d/(%d,%d)", k.Level(), x, y)
}

// KeySpan represents a range of Keys, inclusive at both ends.
type KeySpan struct {
	Start, End Key
}

// interleave spreads the bits of x and y so that x occupies the even bits.
func interleave(x, y uint32) uint64 {
	return spread(x) | spread(y)<<1
}

func spread(v uint32) uint64 {
	x := uint64(v)
	x = (x | x<<16) & 0x0000FFFF0000FFFF
	x = (x | x<<8) & 0x00FF00FF00FF00FF
	x = (x | x<<4) & 0x0F0F0F0F0F0F0F0F
	x = (x | x<<2) & 0x3333333333333333
	x = (x | x<<1) & 0x5555555555555555
	return x
}

func deinterleave(z uint64) (x, y uint32) {
	return compact(z), compact(z >> 1)
}

func compact(z uint64) uint32 {
	x := z & 0x5555555555555555
	x = (x | x>>1) & 0x3333333333333333
	x = (x | x>>2) & 0x0F0F0F0F0F0F0F0F
	x = (x | x>>4) & 0x00FF00FF00FF00FF
	x = (x | x>>8) & 0x0000FFFF0000FFFF
	x = (x | x>>16) & 0x00000000FFFFFFFF
	return uint32(x)
}

type indexEntry struct {
	key Key
	id  int
}

func (e indexEntry) Less(than btree.Item) bool {
	k1, k2 := e.key, than.(indexEntry).key
	if k1 == k2 {
		return e.id < than.(indexEntry).id
	}
	return k1 < k2
}

// indexStore maps quadtree cells to the entries stored in them.
type indexStore struct {
	bt *btree.BTree
}

func newIndexStore() *indexStore {
	return &indexStore{bt: btree.New(8)}
}

func (i *indexStore) Write(key Key, id int) {
	if existing := i.bt.ReplaceOrInsert(indexEntry{key: key, id: id}); existing != nil {
		panic(errors.AssertionFailedf(`inserted twice: (%s,%d)`, key, id))
	}
}

// Read appends to buf the ids stored under any key in spans, for which
// filter returns true, sorted and deduplicated.
func (i *indexStore) Read(spans []KeySpan, buf []int, filter func(id int) bool) []int {
	buf = buf[:0]
	for _, span := range spans {
		i.bt.AscendRange(indexEntry{key: span.Start, id: -1}, indexEntry{key: span.End + 1, id: -1},
			func(it btree.Item) bool {
				if e := it.(indexEntry); filter(e.id) {
					buf = append(buf, e.id)
				}
				return true
			})
	}
	sort.Ints(buf)
	// Every id is stored under a single key, but spans may overlap.
	out := buf[:0]
	for _, id := range buf {
		if len(out) == 0 || id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

func (i *indexStore) Len() int {
	return i.bt.Len()
}
