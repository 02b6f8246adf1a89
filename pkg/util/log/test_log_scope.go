// Copyright 2017 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package log

import (
	"bytes"
	"io"
	"testing"

	"github.com/simpligility/trino/pkg/util/syncutil"
)

// TestLogScope represents the lifetime of a logging output redirection for
// a test. Output produced while the scope is active is buffered and only
// shown if the test fails.
type TestLogScope struct {
	prev io.Writer
	buf  *syncBuffer
}

type syncBuffer struct {
	mu syncutil.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// Scope redirects the log output to a buffer for the duration of a test.
// Use as follows:
//
//	defer log.Scope(t).Close(t)
func Scope(t testing.TB) *TestLogScope {
	t.Helper()
	s := &TestLogScope{buf: &syncBuffer{}}
	logging.mu.Lock()
	defer logging.mu.Unlock()
	s.prev = logging.mu.out
	logging.mu.out = s.buf
	return s
}

// Output returns everything logged while the scope was active.
func (s *TestLogScope) Output() string {
	return s.buf.String()
}

// Close restores the previous log output. If the test failed, the buffered
// output is reported.
func (s *TestLogScope) Close(t testing.TB) {
	t.Helper()
	logging.mu.Lock()
	logging.mu.out = s.prev
	logging.mu.Unlock()
	if t.Failed() {
		t.Logf("log output:\n%s", s.Output())
	}
}
