// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package cliflags holds the static information of the command line flags.
package cliflags

import "strings"

// FlagInfo contains the static information for a CLI flag and helper
// to format the description.
type FlagInfo struct {
	// Name of the flag as used on the command line.
	Name string

	// Shorthand is the short form of the flag (optional).
	Shorthand string

	// EnvVar is the name of the environment variable through which the flag
	// value can be controlled (optional).
	EnvVar string

	// Description of the flag.
	Description string
}

// Usage returns a formatted usage string for the flag.
func (f FlagInfo) Usage() string {
	s := "\n" + strings.TrimSpace(f.Description) + "\n"
	if f.EnvVar != "" {
		s += "Environment variable: " + f.EnvVar + "\n"
	}
	return s
}

// Flags shared by all commands.
var (
	Config = FlagInfo{
		Name:        "config",
		EnvVar:      "SPATIALJOIN_CONFIG",
		Description: `Path of a YAML file configuring execution and logging.`,
	}

	BatchSize = FlagInfo{
		Name:        "batch-size",
		Description: `Maximum number of rows per batch. Overrides the configuration file.`,
	}

	Workers = FlagInfo{
		Name:        "workers",
		EnvVar:      "SPATIALJOIN_WORKERS",
		Description: `Number of pipelines running at once, 0 meaning one per CPU.`,
	}

	Quantum = FlagInfo{
		Name:        "quantum",
		Description: `Time a pipeline runs before yielding to another one.`,
	}

	LogVerbosity = FlagInfo{
		Name:        "verbosity",
		Shorthand:   "v",
		Description: `Log verbosity level, from 0 to 5.`,
	}
)

// Flags of the join command.
var (
	BuildFile = FlagInfo{
		Name: "build",
		Description: `
CSV file holding the build side of the join, the relation the spatial
index is built from. The first line names the columns.`,
	}

	ProbeFile = FlagInfo{
		Name: "probe",
		Description: `
CSV file holding the probe side of the join, whose rows are looked up in
the spatial index. The first line names the columns.`,
	}

	BuildGeometryColumn = FlagInfo{
		Name:        "build-geometry",
		Description: `Name of the build column holding WKT or EWKT geometries.`,
	}

	ProbeGeometryColumn = FlagInfo{
		Name:        "probe-geometry",
		Description: `Name of the probe column holding WKT or EWKT geometries.`,
	}

	RadiusColumn = FlagInfo{
		Name:        "radius",
		Description: `Name of the build column holding the distance of a dwithin join.`,
	}

	Relationship = FlagInfo{
		Name:      "relationship",
		Shorthand: "r",
		Description: `
Spatial relationship between the build and the probe geometries: one of
contains, within, intersects or dwithin. The st_ prefix is accepted.`,
	}

	JoinType = FlagInfo{
		Name:        "type",
		Description: `Join type: inner or left.`,
	}

	OutputColumns = FlagInfo{
		Name: "columns",
		Description: `
Comma separated names of the columns to output, all of them by default.
A name found on both sides is qualified with probe. or build., as in
build.geom.`,
	}

	Partitions = FlagInfo{
		Name: "partitions",
		Description: `
Number of spatial partitions. With more than one, a kdb tree is built
from a sample of the build rows and one join runs per partition.
Overrides the configuration file.`,
	}

	BuildMemoryLimit = FlagInfo{
		Name:        "build-memory-limit",
		EnvVar:      "SPATIALJOIN_BUILD_MEMORY_LIMIT",
		Description: `Memory budget of a spatial index, for example "512 MiB". Overrides the configuration file.`,
	}

	TableDisplayFormat = FlagInfo{
		Name:        "format",
		Description: `Output format: table, csv or tsv.`,
	}

	Explain = FlagInfo{
		Name: "explain",
		Description: `
Print the pipelines and the statistics of their operators after the join
instead of the joined rows.`,
	}

	ShowMetrics = FlagInfo{
		Name:        "metrics",
		Description: `Print the metrics of the join in the Prometheus text format.`,
	}

	GraphiteEndpoint = FlagInfo{
		Name:        "graphite-endpoint",
		EnvVar:      "SPATIALJOIN_GRAPHITE_ENDPOINT",
		Description: `host:port of a Graphite server the metrics of the join are pushed to.`,
	}
)

// Flags of the kdbtree command.
var (
	InputFile = FlagInfo{
		Name:        "input",
		Shorthand:   "i",
		Description: `CSV file whose geometries are sampled. The first line names the columns.`,
	}

	GeometryColumn = FlagInfo{
		Name:        "geometry",
		Description: `Name of the column holding WKT or EWKT geometries.`,
	}

	MaxItemsPerNode = FlagInfo{
		Name:        "max-items",
		Description: `Maximum number of sampled geometries in a partition.`,
	}

	MaxLevels = FlagInfo{
		Name:        "max-levels",
		Description: `Maximum depth of the tree.`,
	}

	PartitionStats = FlagInfo{
		Name: "stats",
		Description: `
Print how the sampled geometries spread over the partitions instead of the
tree.`,
	}
)
