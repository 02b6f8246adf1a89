// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package colexecerror_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/sql/colexecerror"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
	"github.com/stretchr/testify/require"
)

func TestCatchVectorizedRuntimeError(t *testing.T) {
	require.NoError(t, colexecerror.CatchVectorizedRuntimeError(func() {}))

	// Expected errors are returned unchanged.
	userErr := errors.New("user function failed")
	err := colexecerror.CatchVectorizedRuntimeError(func() {
		colexecerror.ExpectedError(userErr)
	})
	require.Equal(t, userErr, err)

	// Coded errors keep their code.
	err = colexecerror.CatchVectorizedRuntimeError(func() {
		panic(pgerror.New(pgcode.DataException, "bad data"))
	})
	require.Equal(t, pgcode.DataException, pgerror.GetPGCode(err))

	// Internal errors become assertion failures.
	err = colexecerror.CatchVectorizedRuntimeError(func() {
		colexecerror.InternalError(errors.New("bug"))
	})
	require.True(t, errors.HasAssertionFailure(err))
	require.Equal(t, pgcode.Internal, pgerror.GetPGCode(err))
	require.Contains(t, err.Error(), "bug")

	// Runtime errors are caught too.
	err = colexecerror.CatchVectorizedRuntimeError(func() {
		var s []int
		_ = s[3]
	})
	require.True(t, errors.HasAssertionFailure(err))
	require.Contains(t, err.Error(), "index out of range")

	// Non-error panics.
	err = colexecerror.CatchVectorizedRuntimeError(func() {
		panic("oops")
	})
	require.True(t, errors.HasAssertionFailure(err))
	require.Contains(t, err.Error(), "unexpected panic: oops")

	// Uncoded errors are unexpected.
	err = colexecerror.CatchVectorizedRuntimeError(func() {
		panic(errors.New("plain"))
	})
	require.True(t, errors.HasAssertionFailure(err))
}
