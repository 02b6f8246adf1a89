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
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/montanaflynn/stats"
	"github.com/simpligility/trino/pkg/cli/clierror"
	"github.com/simpligility/trino/pkg/cli/exit"
	"github.com/simpligility/trino/pkg/geo/geopartition"
	"github.com/simpligility/trino/pkg/geo/geopb"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/spf13/cobra"
)

var kdbTreeCmd = &cobra.Command{
	Use:   "kdbtree --input <file> [flags]",
	Short: "compute the kdb tree partitioning a set of geometries",
	Long: `
Samples the bounding boxes of the geometries of a CSV relation and splits
their extent until no partition holds more than --max-items of them. The
tree is printed in the JSON form accepted by distributed spatial joins.
`,
	Args: cobra.NoArgs,
	RunE: runKdbTree,
}

func runKdbTree(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rel, err := readCSVFile(kdbTreeCtx.inputFile, kdbTreeCtx.geomCol, "", cliCtx.execCfg.PartitionSampleSize)
	if err != nil {
		return err
	}
	if rel.extent.IsEmpty() {
		return clierror.NewError(
			errors.Newf("%s holds no geometry", kdbTreeCtx.inputFile), exit.UnspecifiedError())
	}
	tree, err := geopartition.BuildKdbTree(kdbTreeCtx.maxItems, kdbTreeCtx.maxLevels, rel.extent, rel.sample)
	if err != nil {
		return clierror.NewError(err, exit.CommandLineFlagError())
	}
	log.Infof(ctx, "split %d geometries into %d partitions", len(rel.sample), tree.NumPartitions())
	if kdbTreeCtx.showStats {
		return printPartitionStats(cmd.OutOrStdout(), tree, rel.sample)
	}
	data, err := tree.MarshalJSON()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(cmd.OutOrStdout())
	return err
}

// printPartitionStats prints the number of sampled boxes routed to each
// partition of tree, and how many partitions a box is routed to on
// average.
func printPartitionStats(w io.Writer, tree *geopartition.KdbTree, sample []geopb.BoundingBox) error {
	leaves := tree.Leaves()
	index := make(map[int]int, len(leaves))
	for i, l := range leaves {
		index[l.ID] = i
	}
	counts := make([]float64, len(leaves))
	var routed int
	for _, b := range sample {
		for _, id := range tree.FindIntersectingLeaves(b) {
			counts[index[id]]++
			routed++
		}
	}
	minCount, err := stats.Min(counts)
	if err != nil {
		return err
	}
	maxCount, err := stats.Max(counts)
	if err != nil {
		return err
	}
	mean, err := stats.Mean(counts)
	if err != nil {
		return err
	}
	median, err := stats.Median(counts)
	if err != nil {
		return err
	}
	replication := 0.0
	if len(sample) > 0 {
		replication = float64(routed) / float64(len(sample))
	}
	for i, l := range leaves {
		fmt.Fprintf(w, "leaf %d %s: %g\n", l.ID, l.Extent, counts[i])
	}
	fmt.Fprintf(w, "partitions: %d\n", len(leaves))
	fmt.Fprintf(w, "items per partition: min %g, mean %.2f, median %g, max %g\n",
		minCount, mean, median, maxCount)
	_, err = fmt.Fprintf(w, "replication: %.2f\n", replication)
	return err
}
