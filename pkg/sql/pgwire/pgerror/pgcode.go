// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package pgerror

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
)

// WithCandidateCode decorates the error with a candidate postgres
// error code. It is called "candidate" because the code is only used
// by GetPGCode() below conditionally. The code is considered PII-free
// and is thus reportable.
func WithCandidateCode(err error, code pgcode.Code) error {
	if err == nil {
		return nil
	}
	return &withCandidateCode{cause: err, code: code.String()}
}

// HasCandidateCode returns true iff the error or one of its causes
// has a candidate pg error code.
func HasCandidateCode(err error) bool {
	return errors.HasType(err, (*withCandidateCode)(nil))
}

// GetPGCode retrieves a code for the error. It operates by combining the
// inner (cause) code and the code at the current level, at each level of
// cause. The innermost code wins, except that Uncategorized never
// overrides an outer code. Assertion failures without any code are Internal.
func GetPGCode(err error) pgcode.Code {
	code := pgcode.Uncategorized
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if w, ok := e.(*withCandidateCode); ok && w.code != pgcode.Uncategorized.String() {
			code = pgcode.MakeCode(w.code)
		}
	}
	if code == pgcode.Uncategorized && errors.IsAssertionFailure(err) {
		return pgcode.Internal
	}
	return code
}

// withCandidateCode is the error wrapper type used by WithCandidateCode.
type withCandidateCode struct {
	cause error
	code  string
}

var _ error = (*withCandidateCode)(nil)
var _ errors.SafeFormatter = (*withCandidateCode)(nil)
var _ fmt.Formatter = (*withCandidateCode)(nil)

func (w *withCandidateCode) Error() string { return w.cause.Error() }
func (w *withCandidateCode) Cause() error  { return w.cause }
func (w *withCandidateCode) Unwrap() error { return w.cause }

func (w *withCandidateCode) Format(s fmt.State, verb rune) { errors.FormatError(w, s, verb) }

func (w *withCandidateCode) SafeFormatError(p errors.Printer) (next error) {
	if p.Detail() {
		p.Printf("candidate pg code: %s", redact.Safe(w.code))
	}
	return w.cause
}
