// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package clierror_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/cli/clierror"
	"github.com/simpligility/trino/pkg/cli/exit"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
	"github.com/simpligility/trino/pkg/util/leaktest"
	"github.com/stretchr/testify/assert"
)

func TestGetExitCode(t *testing.T) {
	defer leaktest.AfterTest(t)()

	boom := errors.New("boom")
	for _, tc := range []struct {
		name string
		err  error
		code exit.Code
	}{
		{"plain", boom, exit.UnspecifiedError()},
		{"coded", clierror.NewError(boom, exit.CommandLineFlagError()), exit.CommandLineFlagError()},
		{"wrapped", errors.Wrap(clierror.NewError(boom, exit.JoinFailed()), "running"), exit.JoinFailed()},
		{"oom", errors.Wrap(pgerror.New(pgcode.OutOfMemory, "budget exceeded"), "building"), exit.OutOfMemory()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, clierror.GetExitCode(tc.err))
		})
	}

	err := clierror.NewError(boom, exit.JoinFailed())
	assert.Equal(t, "boom", err.Error())
	assert.True(t, errors.Is(err, boom))
}
