// Copyright 2015 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package log is the logging library used by the spatial join engine.
//
// Messages are attached to a context.Context, whose logtags are rendered in
// front of every entry. Arguments are considered unsafe for reporting
// unless they implement redact.SafeValue or are wrapped with redact.Safe,
// and are enclosed in redaction markers in redactable output.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/redact"
	"github.com/simpligility/trino/pkg/util/log/logconfig"
	"github.com/simpligility/trino/pkg/util/syncutil"
)

// Severity is the importance of a log entry.
type Severity int32

// Severity levels, in increasing order.
const (
	Severity_INFO Severity = iota
	Severity_WARNING
	Severity_ERROR
	Severity_FATAL
)

func (s Severity) String() string {
	switch s {
	case Severity_INFO:
		return "INFO"
	case Severity_WARNING:
		return "WARNING"
	case Severity_ERROR:
		return "ERROR"
	case Severity_FATAL:
		return "FATAL"
	}
	return fmt.Sprintf("Severity(%d)", int32(s))
}

// SafeValue implements redact.SafeValue.
func (s Severity) SafeValue() {}

type loggingT struct {
	verbosity int32

	mu struct {
		syncutil.Mutex
		out        io.Writer
		closer     io.Closer
		format     logFormatter
		redactable bool
		redact     bool

		exitOverride struct {
			f         func(int)
			hideStack bool
		}
	}
}

var logging = func() *loggingT {
	l := &loggingT{}
	l.mu.out = os.Stderr
	l.mu.format = formatCrdbV1{}
	l.mu.redactable = true
	return l
}()

// ApplyConfig validates cfg and directs subsequent log output accordingly.
// The returned function closes the log file, if one was opened.
func ApplyConfig(cfg logconfig.Config) (cleanupFn func(), err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var out io.Writer = os.Stderr
	var closer io.Closer
	if cfg.Dest != logconfig.DestStderr {
		f, err := os.OpenFile(cfg.Dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		out, closer = f, f
	}
	logging.mu.Lock()
	defer logging.mu.Unlock()
	logging.mu.out = out
	logging.mu.closer = closer
	logging.mu.format = formatters[cfg.Format]
	logging.mu.redactable = *cfg.Redactable
	logging.mu.redact = cfg.Redact
	atomic.StoreInt32(&logging.verbosity, int32(cfg.Verbosity))
	return func() {
		if closer != nil {
			_ = closer.Close()
		}
	}, nil
}

// SetVerbosity changes the verbosity level and returns the previous one.
func SetVerbosity(level int32) int32 {
	return atomic.SwapInt32(&logging.verbosity, level)
}

// V returns true if the logging verbosity is set to the specified level or
// higher.
func V(level int32) bool {
	return atomic.LoadInt32(&logging.verbosity) >= level
}

// Infof logs to the INFO severity.
func Infof(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, Severity_INFO, format, args)
}

// Info logs a message without formatting directives to the INFO severity.
func Info(ctx context.Context, msg string) {
	logDepth(ctx, 1, Severity_INFO, "%s", []interface{}{redact.Safe(msg)})
}

// Warningf logs to the WARNING severity.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, Severity_WARNING, format, args)
}

// Errorf logs to the ERROR severity.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, Severity_ERROR, format, args)
}

// Fatalf logs to the FATAL severity and then exits the process, or calls
// the function installed with SetExitFunc.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, Severity_FATAL, format, args)
	exit()
}

// VEventf logs to the INFO severity if the verbosity is at least level.
func VEventf(ctx context.Context, level int32, format string, args ...interface{}) {
	if V(level) {
		logDepth(ctx, 1, Severity_INFO, format, args)
	}
}

// InfofDepth logs to the INFO severity, attributing the entry to the
// caller depth frames up the stack.
func InfofDepth(ctx context.Context, depth int, format string, args ...interface{}) {
	logDepth(ctx, depth+1, Severity_INFO, format, args)
}

func logDepth(
	ctx context.Context, depth int, sev Severity, format string, args []interface{},
) {
	entry := logEntry{
		sev:  sev,
		time: time.Now(),
		tags: renderTags(ctx),
		msg:  redact.Sprintf(format, args...),
	}
	if _, file, line, ok := runtime.Caller(depth + 1); ok {
		entry.file = filepath.Join(filepath.Base(filepath.Dir(file)), filepath.Base(file))
		entry.line = line
	}

	logging.mu.Lock()
	defer logging.mu.Unlock()
	if logging.mu.redact {
		entry.msg = entry.msg.Redact()
		entry.tags = entry.tags.Redact()
	}
	if !logging.mu.redactable {
		entry.msg = redact.RedactableString(entry.msg.StripMarkers())
		entry.tags = redact.RedactableString(entry.tags.StripMarkers())
	}
	_, _ = logging.mu.out.Write(logging.mu.format.formatEntry(entry))
}
