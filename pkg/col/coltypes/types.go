// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package coltypes

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// T represents an exec physical type - a bytes representation of a particular
// column type.
type T int

const (
	// Unhandled is a temporary value that represents an unhandled type.
	Unhandled T = iota
	// Bool is a column of type bool.
	Bool
	// Bytes is a column of type []byte. Strings are stored as Bytes.
	Bytes
	// Int64 is a column of type int64.
	Int64
	// Float64 is a column of type float64.
	Float64
	// Geometry is a column of EWKB-encoded geometries, physically Bytes.
	Geometry
)

// AllTypes is slice of all exec types.
var AllTypes = []T{Bool, Bytes, Int64, Float64, Geometry}

var typeNames = map[T]string{
	Unhandled: "unhandled",
	Bool:      "bool",
	Bytes:     "bytes",
	Int64:     "int64",
	Float64:   "float64",
	Geometry:  "geometry",
}

func (t T) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("T(%d)", int(t))
}

// Physical returns the in-memory representation used for t. Geometry shares
// its storage with Bytes.
func (t T) Physical() T {
	if t == Geometry {
		return Bytes
	}
	return t
}

// FromString parses a type name as printed by String. It is used by the CLI
// and by test fixtures.
func FromString(s string) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "string", "text", "varchar":
		return Bytes, nil
	case "int", "bigint", "integer":
		return Int64, nil
	case "float", "double":
		return Float64, nil
	}
	for t, name := range typeNames {
		if t != Unhandled && name == s {
			return t, nil
		}
	}
	return Unhandled, errors.Newf("unsupported column type %q", s)
}
