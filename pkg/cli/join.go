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
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/google/uuid"
	"github.com/simpligility/trino/pkg/cli/clierror"
	"github.com/simpligility/trino/pkg/cli/cliflags"
	"github.com/simpligility/trino/pkg/cli/exit"
	"github.com/simpligility/trino/pkg/sql/colexec/colexecspatial"
	"github.com/simpligility/trino/pkg/sql/colflow"
	"github.com/simpligility/trino/pkg/sql/execinfrapb"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/simpligility/trino/pkg/util/metric"
	"github.com/simpligility/trino/pkg/util/mon"
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join --build <file> --probe <file> [flags]",
	Short: "join two CSV relations on a spatial relationship",
	Long: `
Joins every row of the probe relation with the rows of the build relation
whose geometry satisfies the relationship, evaluated as
relationship(build, probe). A spatial index is built over the build
relation and probed by several pipelines running concurrently.

With --partitions, both relations are spatially partitioned and one index
is built per partition, as a distributed join would. The joined rows are
the same as without partitioning, grouped by partition.

Output rows hold the probe columns followed by the build columns.
Geometries are printed as EWKT.
`,
	Example: `  spatialjoin join --build zones.csv --probe stops.csv -r contains --type left
  spatialjoin join --build pois.csv --probe stops.csv -r dwithin --radius distance`,
	Args: cobra.NoArgs,
	RunE: runJoin,
}

func runJoin(cmd *cobra.Command, _ []string) error {
	ctx := logtags.AddTag(cmd.Context(), "join", uuid.New().String()[:8])
	cfg := &cliCtx.execCfg

	rel, err := execinfrapb.ParseSpatialRelationship(joinCtx.relationship)
	if err != nil {
		return clierror.NewError(err, exit.CommandLineFlagError())
	}
	typ, err := execinfrapb.ParseJoinType(joinCtx.joinType)
	if err != nil {
		return clierror.NewError(err, exit.CommandLineFlagError())
	}
	if rel == execinfrapb.DWithin && joinCtx.radiusCol == "" {
		return clierror.NewError(
			errors.Newf("%s requires --%s", rel, cliflags.RadiusColumn.Name), exit.CommandLineFlagError())
	}

	build, err := readCSVFile(joinCtx.buildFile, joinCtx.buildGeom, joinCtx.radiusCol, cfg.PartitionSampleSize)
	if err != nil {
		return err
	}
	probe, err := readCSVFile(joinCtx.probeFile, joinCtx.probeGeom, "", 0)
	if err != nil {
		return err
	}
	log.Infof(ctx, "read %d build rows and %d probe rows", build.numRows, probe.numRows)

	metrics := colexecspatial.NewMetrics()
	registry := metric.NewRegistry()
	registry.AddMetricStruct(metrics)
	monitor := mon.NewMonitor(mon.Options{Name: "spatial-join", Limit: cfg.BuildMemoryLimitBytes()})
	monitor.Start(ctx, nil /* parent */)
	defer monitor.Stop(ctx)

	plan, err := planSpatialJoin(ctx, joinPlanArgs{
		build:        build,
		probe:        probe,
		relationship: rel,
		joinType:     typ,
		partitions:   cfg.Partitions,
		probeDrivers: cfg.NumWorkers(),
		columns:      joinCtx.columns,
		monitor:      monitor,
		metrics:      metrics,
	})
	if err != nil {
		return clierror.NewError(err, exit.CommandLineFlagError())
	}

	start := time.Now()
	if err := colflow.NewTaskExecutor(cfg.NumWorkers(), cfg.Quantum).Run(ctx, plan.drivers...); err != nil {
		if pgerror.GetPGCode(err) == pgcode.OutOfMemory {
			return clierror.NewError(err, exit.OutOfMemory())
		}
		return clierror.NewError(err, exit.JoinFailed())
	}
	log.Infof(ctx, "joined in %s, peak index memory %d bytes",
		time.Since(start), monitor.MaximumBytes())

	out := cmd.OutOrStdout()
	if joinCtx.explain {
		for _, line := range colflow.ExplainDrivers(plan.drivers, false /* verbose */) {
			fmt.Fprintln(out, line)
		}
	} else {
		rows, err := plan.rows()
		if err != nil {
			return err
		}
		if err := printQueryOutput(out, plan.columns, rows, joinCtx.tableDisplayFormat); err != nil {
			return err
		}
	}

	if joinCtx.showMetrics {
		pm := metric.NewPrometheusExporter()
		pm.ScrapeRegistry(registry)
		if err := pm.PrintAsText(out); err != nil {
			return err
		}
	}
	if joinCtx.graphiteEndpoint != "" {
		pm := metric.NewPrometheusExporter()
		pm.ScrapeRegistry(registry)
		ge := metric.MakeGraphiteExporter(pm)
		if err := ge.Push(ctx, joinCtx.graphiteEndpoint, "spatialjoin"); err != nil {
			return errors.Wrapf(err, "pushing metrics to %s", joinCtx.graphiteEndpoint)
		}
	}
	return nil
}
