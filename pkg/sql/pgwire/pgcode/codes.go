// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package pgcode defines the PostgreSQL error codes attached to user-visible
// execution errors.
package pgcode

// Code is a wrapper around a string to ensure that pgcodes don't get
// interchanged with other strings.
type Code struct {
	code string
}

// MakeCode converts a string into a Code.
func MakeCode(s string) Code {
	return Code{code: s}
}

// String returns the underlying pgcode string.
func (c Code) String() string {
	return c.code
}

// SafeValue implements the redact.SafeValue interface.
func (c Code) SafeValue() {}

// PostgreSQL error codes, see
// https://www.postgresql.org/docs/current/errcodes-appendix.html.
var (
	// Section: Class 0A - Feature Not Supported
	FeatureNotSupported = MakeCode("0A000")
	// Section: Class 22 - Data Exception
	DataException         = MakeCode("22000")
	InvalidParameterValue = MakeCode("22023")
	// Section: Class 53 - Insufficient Resources
	OutOfMemory = MakeCode("53200")
	// Section: Class 57 - Operator Intervention
	QueryCanceled = MakeCode("57014")
	// Section: Class XX - Internal Error
	Internal = MakeCode("XX000")
	// Uncategorized is used for errors that flow out to a client when there's
	// no code known yet.
	Uncategorized = MakeCode("XXUUU")
)
