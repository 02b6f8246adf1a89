// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package colexecerror converts the panics raised by operators and by the
// user functions they call into errors at the driver boundary.
package colexecerror

import (
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
)

// CatchVectorizedRuntimeError executes operation, catches a runtime error if
// it is coming from the execution engine, and returns it. Errors raised
// with ExpectedError, and errors carrying a pg code, are returned as-is;
// anything else is returned as an assertion failure.
func CatchVectorizedRuntimeError(operation func()) (retErr error) {
	defer func() {
		panicObj := recover()
		if panicObj == nil {
			// No panic happened, so the operation must have been executed
			// successfully.
			return
		}
		retErr = errorFromPanic(panicObj)
	}()
	operation()
	return retErr
}

func errorFromPanic(panicObj interface{}) error {
	err, ok := panicObj.(error)
	if !ok {
		return errors.AssertionFailedf("unexpected panic: %v", panicObj)
	}
	var nie *notInternalError
	if errors.As(err, &nie) {
		return nie.cause
	}
	if ie := (*internalError)(nil); errors.As(err, &ie) {
		return ie.cause
	}
	if _, isRuntime := err.(runtime.Error); isRuntime {
		return errors.NewAssertionErrorWithWrappedErrf(err, "unexpected runtime error")
	}
	if pgerror.HasCandidateCode(err) || errors.HasAssertionFailure(err) {
		return err
	}
	return errors.NewAssertionErrorWithWrappedErrf(err, "unexpected error")
}

// internalError is an error that occurred because of a bug in the engine.
type internalError struct {
	cause error
}

func (e *internalError) Error() string { return e.cause.Error() }
func (e *internalError) Cause() error  { return e.cause }
func (e *internalError) Unwrap() error { return e.cause }

// InternalError panics with the provided error, which is returned by
// CatchVectorizedRuntimeError as an assertion failure.
func InternalError(err error) {
	if !errors.HasAssertionFailure(err) {
		err = errors.NewAssertionErrorWithWrappedErrf(err, "internal error")
	}
	panic(&internalError{cause: err})
}

// notInternalError is an error that occurs not because the engine
// encounters an unexpected state, for example a failing user function.
type notInternalError struct {
	cause error
}

func (e *notInternalError) Error() string { return e.cause.Error() }
func (e *notInternalError) Cause() error  { return e.cause }
func (e *notInternalError) Unwrap() error { return e.cause }

// ExpectedError panics with the error that is wrapped by notInternalError,
// which is returned unchanged by CatchVectorizedRuntimeError.
func ExpectedError(err error) {
	panic(&notInternalError{cause: err})
}
