// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package cli

import (
	"time"

	"github.com/simpligility/trino/pkg/base"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliContext captures the configuration shared by all commands.
type cliContext struct {
	// configFile is the path of the YAML configuration, if any.
	configFile string
	// execCfg is the configuration the command runs with, once the
	// configuration file was read and the flags applied.
	execCfg base.ExecConfig
	// logCleanup closes the log file opened for the command.
	logCleanup func()

	// Flag values overriding the configuration file. They only apply
	// when the flag was set.
	batchSize        int
	workers          int
	quantum          time.Duration
	verbosity        int
	partitions       int
	buildMemoryLimit string
}

// defaultTableDisplayFormat is the format of query results when --format
// is not given. Main switches it to tsv when stdout is not a terminal.
var defaultTableDisplayFormat = tableDisplayTable

// cliCtx is the CLI configuration.
var cliCtx = cliContext{}

// joinContext captures the command-line parameters of the join command.
type joinContext struct {
	buildFile    string
	probeFile    string
	buildGeom    string
	probeGeom    string
	radiusCol    string
	relationship string
	joinType     string
	columns      []string

	tableDisplayFormat tableDisplayFormat
	explain            bool
	showMetrics        bool
	graphiteEndpoint   string
}

var joinCtx = joinContext{}

// kdbTreeContext captures the command-line parameters of the kdbtree
// command.
type kdbTreeContext struct {
	inputFile string
	geomCol   string
	maxItems  int
	maxLevels int
	showStats bool
}

var kdbTreeCtx = kdbTreeContext{}

// setCLIDefaultsForTests resets all the contexts to their defaults, so
// that commands run one after another in tests do not see each other's
// flags.
func setCLIDefaultsForTests() {
	cliCtx = cliContext{
		execCfg: base.DefaultExecConfig(),
	}
	joinCtx = joinContext{
		buildGeom:          "geom",
		probeGeom:          "geom",
		relationship:       "intersects",
		joinType:           "inner",
		tableDisplayFormat: defaultTableDisplayFormat,
	}
	kdbTreeCtx = kdbTreeContext{
		geomCol:   "geom",
		maxItems:  1,
		maxLevels: base.DefaultMaxPartitionLevels,
	}
}

// resetFlagsForTests clears the changed bit of every flag of cmd and its
// sub-commands.
func resetFlagsForTests(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) { f.Changed = false }
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlagsForTests(c)
	}
}
