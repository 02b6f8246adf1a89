// Copyright 2015 The Cockroach Authors.
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
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/simpligility/trino/pkg/util/log/logconfig"
	"github.com/stretchr/testify/require"
)

func applyForTest(t *testing.T, mutate func(*logconfig.Config)) *TestLogScope {
	cfg := logconfig.DefaultConfig()
	mutate(&cfg)
	cleanup, err := ApplyConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		cleanup()
		_, _ = ApplyConfig(logconfig.DefaultConfig())
	})
	// The scope is installed after ApplyConfig so that it captures output.
	return Scope(t)
}

func TestCrdbV1Format(t *testing.T) {
	s := applyForTest(t, func(*logconfig.Config) {})
	defer s.Close(t)

	ctx := logtags.AddTag(context.Background(), "n", 1)
	ctx = logtags.AddTag(ctx, "spatialjoiner", nil)
	ctx = logtags.AddTag(ctx, "driver", 3)
	Infof(ctx, "probed %d rows of %s", redact.Safe(7), "secret")

	out := s.Output()
	require.True(t, strings.HasPrefix(out, "I"), out)
	require.Contains(t, out, "log/log_test.go:")
	require.Contains(t, out, "] probed 7 rows of ‹secret›\n")
	require.Contains(t, redact.RedactableString(out).StripMarkers(), "[n1,spatialjoiner,driver=3] ")
}

func TestRedact(t *testing.T) {
	s := applyForTest(t, func(c *logconfig.Config) { c.Redact = true })
	defer s.Close(t)

	Warningf(context.Background(), "user value %s, safe value %s", "secret", redact.Safe("public"))
	out := s.Output()
	require.True(t, strings.HasPrefix(out, "W"), out)
	require.Contains(t, out, "user value ‹×›, safe value public")
	require.NotContains(t, out, "secret")
}

func TestNotRedactable(t *testing.T) {
	s := applyForTest(t, func(c *logconfig.Config) {
		redactable := false
		c.Redactable = &redactable
	})
	defer s.Close(t)

	Errorf(context.Background(), "value %s", "plain")
	out := s.Output()
	require.True(t, strings.HasPrefix(out, "E"), out)
	require.Contains(t, out, "value plain\n")
}

func TestJSONFormat(t *testing.T) {
	s := applyForTest(t, func(c *logconfig.Config) { c.Format = logconfig.FormatJSON })
	defer s.Close(t)

	ctx := logtags.AddTag(context.Background(), "idxbuilder", nil)
	Infof(ctx, "built index with %d entries", redact.Safe(4))

	var e jsonEntry
	require.NoError(t, json.Unmarshal([]byte(s.Output()), &e))
	require.Equal(t, "INFO", e.Severity)
	require.Equal(t, "idxbuilder", e.Tags)
	require.Equal(t, "built index with 4 entries", e.Message)
	require.Equal(t, "log_test.go", filepath.Base(e.File))
	_, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	require.NoError(t, err)
}

func TestVerbosity(t *testing.T) {
	s := Scope(t)
	defer s.Close(t)
	prev := SetVerbosity(1)
	defer SetVerbosity(prev)

	require.True(t, V(1))
	require.False(t, V(2))
	VEventf(context.Background(), 2, "hidden")
	VEventf(context.Background(), 1, "shown")
	require.NotContains(t, s.Output(), "hidden")
	require.Contains(t, s.Output(), "shown")
}

func TestFatalUsesExitFunc(t *testing.T) {
	s := Scope(t)
	defer s.Close(t)
	var code int
	SetExitFunc(true, func(c int) { code = c })
	defer ResetExitFunc()

	Fatalf(context.Background(), "boom")
	require.Equal(t, 255, code)
	require.True(t, strings.HasPrefix(s.Output(), "F"))
}

func TestEveryN(t *testing.T) {
	e := Every(time.Minute)
	start := time.Now()
	require.True(t, e.shouldLog(start))
	require.False(t, e.shouldLog(start.Add(time.Second)))
	require.True(t, e.shouldLog(start.Add(2*time.Minute)))
}
