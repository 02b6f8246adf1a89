// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package clierror attaches process exit codes to errors.
package clierror

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/simpligility/trino/pkg/cli/exit"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
)

// Error wraps a cause with the exit code the process should terminate
// with.
type Error struct {
	exitCode exit.Code
	cause    error
}

// NewError instantiates a new Error.
func NewError(cause error, exitCode exit.Code) error {
	return &Error{
		exitCode: exitCode,
		cause:    cause,
	}
}

// GetExitCode returns the exit code to use for err. Out of memory
// conditions reported by the execution engine are recognized even when
// no code was attached.
func GetExitCode(err error) exit.Code {
	if ce := (*Error)(nil); errors.As(err, &ce) {
		return ce.exitCode
	}
	if pgerror.GetPGCode(err) == pgcode.OutOfMemory {
		return exit.OutOfMemory()
	}
	return exit.UnspecifiedError()
}

// Error implements the error interface.
func (e *Error) Error() string { return fmt.Sprintf("%v", e) }

// Cause implements causer.
func (e *Error) Cause() error { return e.cause }

// Unwrap implements the Go 1.13 unwrap interface.
func (e *Error) Unwrap() error { return e.cause }

// Format implements fmt.Formatter.
func (e *Error) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// FormatError implements errors.Formatter.
func (e *Error) FormatError(p errors.Printer) error {
	if p.Detail() {
		p.Printf("error with exit code: %d", redact.Safe(e.exitCode))
	}
	return e.cause
}
