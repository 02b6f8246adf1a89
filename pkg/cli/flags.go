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
	"os"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/base"
	"github.com/simpligility/trino/pkg/cli/clierror"
	"github.com/simpligility/trino/pkg/cli/cliflags"
	"github.com/simpligility/trino/pkg/cli/exit"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagEnvVars maps the names of the flags that can be set through the
// environment to their variable.
var flagEnvVars = map[string]string{}

func registerEnvVar(flagInfo cliflags.FlagInfo) {
	if flagInfo.EnvVar != "" {
		flagEnvVars[flagInfo.Name] = flagInfo.EnvVar
	}
}

func stringFlag(f *pflag.FlagSet, valPtr *string, flagInfo cliflags.FlagInfo) {
	f.StringVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, *valPtr, flagInfo.Usage())
	registerEnvVar(flagInfo)
}

func intFlag(f *pflag.FlagSet, valPtr *int, flagInfo cliflags.FlagInfo) {
	f.IntVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, *valPtr, flagInfo.Usage())
	registerEnvVar(flagInfo)
}

func boolFlag(f *pflag.FlagSet, valPtr *bool, flagInfo cliflags.FlagInfo) {
	f.BoolVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, *valPtr, flagInfo.Usage())
	registerEnvVar(flagInfo)
}

func stringSliceFlag(f *pflag.FlagSet, valPtr *[]string, flagInfo cliflags.FlagInfo) {
	f.StringSliceVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, *valPtr, flagInfo.Usage())
	registerEnvVar(flagInfo)
}

func varFlag(f *pflag.FlagSet, value pflag.Value, flagInfo cliflags.FlagInfo) {
	f.VarP(value, flagInfo.Name, flagInfo.Shorthand, flagInfo.Usage())
	registerEnvVar(flagInfo)
}

func init() {
	setCLIDefaultsForTests()

	// Flags common to all commands.
	{
		f := spatialJoinCmd.PersistentFlags()
		stringFlag(f, &cliCtx.configFile, cliflags.Config)
		intFlag(f, &cliCtx.batchSize, cliflags.BatchSize)
		intFlag(f, &cliCtx.workers, cliflags.Workers)
		f.DurationVar(&cliCtx.quantum, cliflags.Quantum.Name, cliCtx.quantum, cliflags.Quantum.Usage())
		intFlag(f, &cliCtx.verbosity, cliflags.LogVerbosity)
	}

	{
		f := joinCmd.Flags()
		stringFlag(f, &joinCtx.buildFile, cliflags.BuildFile)
		stringFlag(f, &joinCtx.probeFile, cliflags.ProbeFile)
		stringFlag(f, &joinCtx.buildGeom, cliflags.BuildGeometryColumn)
		stringFlag(f, &joinCtx.probeGeom, cliflags.ProbeGeometryColumn)
		stringFlag(f, &joinCtx.radiusCol, cliflags.RadiusColumn)
		stringFlag(f, &joinCtx.relationship, cliflags.Relationship)
		stringFlag(f, &joinCtx.joinType, cliflags.JoinType)
		stringSliceFlag(f, &joinCtx.columns, cliflags.OutputColumns)
		intFlag(f, &cliCtx.partitions, cliflags.Partitions)
		stringFlag(f, &cliCtx.buildMemoryLimit, cliflags.BuildMemoryLimit)
		varFlag(f, &joinCtx.tableDisplayFormat, cliflags.TableDisplayFormat)
		boolFlag(f, &joinCtx.explain, cliflags.Explain)
		boolFlag(f, &joinCtx.showMetrics, cliflags.ShowMetrics)
		stringFlag(f, &joinCtx.graphiteEndpoint, cliflags.GraphiteEndpoint)
		_ = joinCmd.MarkFlagRequired(cliflags.BuildFile.Name)
		_ = joinCmd.MarkFlagRequired(cliflags.ProbeFile.Name)
	}

	{
		f := kdbTreeCmd.Flags()
		stringFlag(f, &kdbTreeCtx.inputFile, cliflags.InputFile)
		stringFlag(f, &kdbTreeCtx.geomCol, cliflags.GeometryColumn)
		intFlag(f, &kdbTreeCtx.maxItems, cliflags.MaxItemsPerNode)
		intFlag(f, &kdbTreeCtx.maxLevels, cliflags.MaxLevels)
		boolFlag(f, &kdbTreeCtx.showStats, cliflags.PartitionStats)
		_ = kdbTreeCmd.MarkFlagRequired(cliflags.InputFile.Name)
	}

	spatialJoinCmd.PersistentPreRunE = setupCommand
}

// applyEnvVars sets the flags that were not given on the command line from
// their environment variable, if set.
func applyEnvVars(f *pflag.FlagSet) error {
	for name, envVar := range flagEnvVars {
		flag := f.Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}
		if value, ok := os.LookupEnv(envVar); ok {
			if err := f.Set(name, value); err != nil {
				return errors.Wrapf(err, "invalid value for %s", envVar)
			}
		}
	}
	return nil
}

// setupCommand computes the configuration of the command from the
// configuration file and the flags, then applies it to the process.
func setupCommand(cmd *cobra.Command, _ []string) error {
	fs := cmd.Flags()
	if err := applyEnvVars(fs); err != nil {
		return clierror.NewError(err, exit.CommandLineFlagError())
	}

	cfg := base.DefaultExecConfig()
	if cliCtx.configFile != "" {
		var err error
		if cfg, err = base.LoadExecConfig(cliCtx.configFile); err != nil {
			return clierror.NewError(err, exit.CommandLineFlagError())
		}
	}
	if fs.Changed(cliflags.BatchSize.Name) {
		cfg.BatchSize = cliCtx.batchSize
	}
	if fs.Changed(cliflags.Workers.Name) {
		cfg.Workers = cliCtx.workers
	}
	if fs.Changed(cliflags.Quantum.Name) {
		cfg.Quantum = cliCtx.quantum
	}
	if fs.Changed(cliflags.LogVerbosity.Name) {
		cfg.Log.Verbosity = cliCtx.verbosity
	}
	if fs.Changed(cliflags.Partitions.Name) {
		cfg.Partitions = cliCtx.partitions
	}
	if fs.Changed(cliflags.BuildMemoryLimit.Name) {
		cfg.BuildMemoryLimit = cliCtx.buildMemoryLimit
	}
	if err := cfg.Validate(); err != nil {
		return clierror.NewError(err, exit.CommandLineFlagError())
	}

	if err := coldata.SetBatchSize(cfg.BatchSize); err != nil {
		return clierror.NewError(err, exit.CommandLineFlagError())
	}
	cleanup, err := log.ApplyConfig(cfg.Log)
	if err != nil {
		return clierror.NewError(err, exit.LoggingFileUnavailable())
	}
	cliCtx.execCfg = cfg
	cliCtx.logCleanup = cleanup
	log.VEventf(cmd.Context(), 1, "running with configuration:\n%s", cfg)
	return nil
}
