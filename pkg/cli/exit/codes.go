// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package exit

// Codes that are common to all commands follow.

// Success (0) represents a normal process termination.
func Success() Code { return Code{0} }

// UnspecifiedError (1) indicates the process has terminated with an
// error condition. The specific cause of the error can be found in
// the logging output.
func UnspecifiedError() Code { return Code{1} }

// UnspecifiedGoPanic (2) indicates the process has terminated due to
// an uncaught Go panic or some other error in the Go runtime.
func UnspecifiedGoPanic() Code { return Code{2} }

// Interrupted (3) indicates the process was interrupted with Ctrl+C /
// SIGINT.
func Interrupted() Code { return Code{3} }

// CommandLineFlagError (4) indicates there was an error in the
// command-line parameters.
func CommandLineFlagError() Code { return Code{4} }

// LoggingFileUnavailable (6) indicates that the log file could not be
// opened.
func LoggingFileUnavailable() Code { return Code{6} }

// Codes that are specific to a command follow. Command-specific exit
// codes are allocated down from 125.

// 'join' exit codes.

// JoinFailed (125) indicates that the join itself failed, as opposed to
// its setup.
func JoinFailed() Code { return Code{125} }

// OutOfMemory (124) indicates that the build side of a join exceeded its
// memory budget.
func OutOfMemory() Code { return Code{124} }
