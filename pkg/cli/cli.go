// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package cli implements the spatialjoin command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
	"github.com/simpligility/trino/pkg/cli/clierror"
	"github.com/simpligility/trino/pkg/cli/exit"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/spf13/cobra"
)

// Main is the entry point for the spatialjoin binary.
func Main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fatal errors and panics terminate the process with the code reserved
	// for Go runtime failures.
	log.SetExitFunc(false /* hideStack */, func(int) {
		exit.WithCode(exit.UnspecifiedGoPanic())
	})
	defer func() {
		if r := recover(); r != nil {
			log.Fatalf(ctx, "unexpected panic: %v\n%s", r, debug.Stack())
		}
	}()

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	go func() {
		if _, ok := <-interrupted; ok {
			cancel()
		}
	}()

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		defaultTableDisplayFormat = tableDisplayTSV
	}
	err := doMain(ctx, os.Args[1:])
	signal.Stop(interrupted)
	close(interrupted)

	errCode := exit.Success()
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		errCode = clierror.GetExitCode(err)
		if errors.Is(err, context.Canceled) {
			errCode = exit.Interrupted()
		}
	}
	exit.WithCode(errCode)
}

func doMain(ctx context.Context, args []string) error {
	setCLIDefaultsForTests()
	resetFlagsForTests(spatialJoinCmd)
	spatialJoinCmd.SetArgs(args)
	defer func() {
		if cliCtx.logCleanup != nil {
			cliCtx.logCleanup()
			cliCtx.logCleanup = nil
		}
	}()
	return spatialJoinCmd.ExecuteContext(ctx)
}

// Run executes the command line with args, without terminating the
// process.
func Run(args []string) error {
	return doMain(context.Background(), args)
}

// Proxy to allow overrides in tests.
var stderr = os.Stderr

var spatialJoinCmd = &cobra.Command{
	Use:   "spatialjoin [command] (flags)",
	Short: "pipelined spatial joins over CSV files",
	Long: `
Runs spatial joins between two CSV relations whose geometry columns hold
WKT or EWKT text, and computes spatial partitionings of geometry sets.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.EnableCommandSorting = false

	spatialJoinCmd.AddCommand(
		joinCmd,
		kdbTreeCmd,
	)
}
