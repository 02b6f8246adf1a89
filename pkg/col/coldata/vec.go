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

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/col/coltypes"
)

// column is an interface that represents a raw array of a Go native type.
type column interface{}

// Vec is an interface that represents a column vector that's accessible by
// Go native types. Vecs reachable from a Batch must not be modified.
type Vec interface {
	// Type returns the type of data stored in this Vec.
	Type() coltypes.T
	// Length returns the number of values in this Vec.
	Length() int

	// Bool returns a bool list.
	Bool() []bool
	// Int64 returns an int64 slice.
	Int64() []int64
	// Float64 returns a float64 slice.
	Float64() []float64
	// Bytes returns a [][]byte slice. Geometry columns are stored as Bytes.
	Bytes() [][]byte

	// Col returns the raw, typeless backing storage for this Vec.
	Col() interface{}

	// Nulls returns the nulls vector for the column.
	Nulls() *Nulls

	// MaybeHasNulls returns true if the column possibly has any null values.
	MaybeHasNulls() bool

	// PrettyValueAt returns a "pretty" value for the idx'th value in this Vec.
	PrettyValueAt(idx int) string
}

var _ Vec = &memColumn{}

// memColumn is a simple pass-through implementation of Vec that just casts
// a generic interface{} to the proper type when requested.
type memColumn struct {
	t     coltypes.T
	col   column
	nulls Nulls
}

// NewMemColumn returns a new memColumn with capacity for n values and length
// zero.
func NewMemColumn(t coltypes.T, n int) Vec {
	return newMemColumn(t, n)
}

func newMemColumn(t coltypes.T, n int) *memColumn {
	m := &memColumn{t: t, nulls: NewNulls(n)}
	switch t.Physical() {
	case coltypes.Bool:
		m.col = make([]bool, 0, n)
	case coltypes.Bytes:
		m.col = make([][]byte, 0, n)
	case coltypes.Int64:
		m.col = make([]int64, 0, n)
	case coltypes.Float64:
		m.col = make([]float64, 0, n)
	default:
		panic(fmt.Sprintf("unhandled type %s", t))
	}
	return m
}

func (m *memColumn) Type() coltypes.T {
	return m.t
}

func (m *memColumn) Length() int {
	switch col := m.col.(type) {
	case []bool:
		return len(col)
	case [][]byte:
		return len(col)
	case []int64:
		return len(col)
	case []float64:
		return len(col)
	default:
		panic(fmt.Sprintf("unhandled column %T", col))
	}
}

func (m *memColumn) Bool() []bool {
	return m.col.([]bool)
}

func (m *memColumn) Int64() []int64 {
	return m.col.([]int64)
}

func (m *memColumn) Float64() []float64 {
	return m.col.([]float64)
}

func (m *memColumn) Bytes() [][]byte {
	return m.col.([][]byte)
}

func (m *memColumn) Col() interface{} {
	return m.col
}

func (m *memColumn) Nulls() *Nulls {
	return &m.nulls
}

func (m *memColumn) MaybeHasNulls() bool {
	return m.nulls.MaybeHasNulls()
}

func (m *memColumn) PrettyValueAt(idx int) string {
	if m.nulls.NullAt(idx) {
		return "NULL"
	}
	switch m.t {
	case coltypes.Bool:
		return strconv.FormatBool(m.Bool()[idx])
	case coltypes.Int64:
		return strconv.FormatInt(m.Int64()[idx], 10)
	case coltypes.Float64:
		return strconv.FormatFloat(m.Float64()[idx], 'g', -1, 64)
	case coltypes.Geometry:
		return fmt.Sprintf("\\x%x", m.Bytes()[idx])
	default:
		return string(m.Bytes()[idx])
	}
}

// appendValueFrom appends src[srcIdx] (possibly NULL) to m.
func (m *memColumn) appendValueFrom(src Vec, srcIdx int) {
	if src.Type().Physical() != m.t.Physical() {
		panic(errors.AssertionFailedf("cannot append %s value to %s column", src.Type(), m.t))
	}
	if src.Nulls().NullAt(srcIdx) {
		m.appendNull()
		return
	}
	switch col := m.col.(type) {
	case []bool:
		m.col = append(col, src.Bool()[srcIdx])
	case [][]byte:
		m.col = append(col, src.Bytes()[srcIdx])
	case []int64:
		m.col = append(col, src.Int64()[srcIdx])
	case []float64:
		m.col = append(col, src.Float64()[srcIdx])
	}
}

// appendNull appends a NULL, using the zero value as a placeholder.
func (m *memColumn) appendNull() {
	idx := m.Length()
	switch col := m.col.(type) {
	case []bool:
		m.col = append(col, false)
	case [][]byte:
		m.col = append(col, nil)
	case []int64:
		m.col = append(col, 0)
	case []float64:
		m.col = append(col, 0)
	}
	m.nulls.SetNull(idx)
}

// appendDatum appends a Go native value. A nil value appends a NULL.
func (m *memColumn) appendDatum(v interface{}) error {
	if v == nil {
		m.appendNull()
		return nil
	}
	switch col := m.col.(type) {
	case []bool:
		b, ok := v.(bool)
		if !ok {
			return errors.Newf("expected bool for %s column, found %T", m.t, v)
		}
		m.col = append(col, b)
	case []int64:
		switch i := v.(type) {
		case int:
			m.col = append(col, int64(i))
		case int64:
			m.col = append(col, i)
		default:
			return errors.Newf("expected integer for %s column, found %T", m.t, v)
		}
	case []float64:
		switch f := v.(type) {
		case float64:
			m.col = append(col, f)
		case int:
			m.col = append(col, float64(f))
		default:
			return errors.Newf("expected float for %s column, found %T", m.t, v)
		}
	case [][]byte:
		switch b := v.(type) {
		case []byte:
			m.col = append(col, b)
		case string:
			m.col = append(col, []byte(b))
		default:
			return errors.Newf("expected bytes for %s column, found %T", m.t, v)
		}
	}
	return nil
}

// ValueAt returns the Go native value at position idx of v, or nil if the
// value is NULL. It is not suitable for calling in hot paths.
func ValueAt(v Vec, idx int) interface{} {
	if v.Nulls().NullAt(idx) {
		return nil
	}
	switch v.Type().Physical() {
	case coltypes.Bool:
		return v.Bool()[idx]
	case coltypes.Int64:
		return v.Int64()[idx]
	case coltypes.Float64:
		return v.Float64()[idx]
	case coltypes.Bytes:
		return v.Bytes()[idx]
	default:
		panic(fmt.Sprintf("unhandled type %s", v.Type()))
	}
}
