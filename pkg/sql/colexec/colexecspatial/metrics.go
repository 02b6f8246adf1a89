// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package colexecspatial

import "github.com/simpligility/trino/pkg/util/metric"

var (
	metaBuildRows = metric.Metadata{
		Name:        "spatialjoin.build.rows",
		Help:        "Number of build rows added to spatial indexes",
		Measurement: "Rows",
	}
	metaBuildRowsDiscarded = metric.Metadata{
		Name:        "spatialjoin.build.rows_discarded",
		Help:        "Number of build rows discarded because they belong to another partition",
		Measurement: "Rows",
	}
	metaIndexBuilds = metric.Metadata{
		Name:        "spatialjoin.build.indexes",
		Help:        "Number of spatial indexes built",
		Measurement: "Indexes",
	}
	metaIndexBuildFailures = metric.Metadata{
		Name:        "spatialjoin.build.failures",
		Help:        "Number of spatial index builds that failed",
		Measurement: "Indexes",
	}
	metaIndexBytes = metric.Metadata{
		Name:        "spatialjoin.build.bytes",
		Help:        "Memory held by spatial indexes that are still in use",
		Measurement: "Memory",
	}
	metaProbeRows = metric.Metadata{
		Name:        "spatialjoin.probe.rows",
		Help:        "Number of probe rows processed",
		Measurement: "Rows",
	}
	metaOutputRows = metric.Metadata{
		Name:        "spatialjoin.probe.output_rows",
		Help:        "Number of rows emitted by spatial joins",
		Measurement: "Rows",
	}
	metaYields = metric.Metadata{
		Name:        "spatialjoin.probe.yields",
		Help:        "Number of times a spatial join returned early because its driver had to yield",
		Measurement: "Yields",
	}
	metaActiveProbes = metric.Metadata{
		Name:        "spatialjoin.probe.active",
		Help:        "Number of spatial join operators that are not closed",
		Measurement: "Operators",
	}
)

// Metrics are the metrics exported by spatial join operators.
type Metrics struct {
	BuildRows          *metric.Counter
	BuildRowsDiscarded *metric.Counter
	IndexBuilds        *metric.Counter
	IndexBuildFailures *metric.Counter
	IndexBytes         *metric.Gauge
	ProbeRows          *metric.Counter
	OutputRows         *metric.Counter
	Yields             *metric.Counter
	ActiveProbes       *metric.Gauge
}

// NewMetrics instantiates the spatial join metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		BuildRows:          metric.NewCounter(metaBuildRows),
		BuildRowsDiscarded: metric.NewCounter(metaBuildRowsDiscarded),
		IndexBuilds:        metric.NewCounter(metaIndexBuilds),
		IndexBuildFailures: metric.NewCounter(metaIndexBuildFailures),
		IndexBytes:         metric.NewGauge(metaIndexBytes),
		ProbeRows:          metric.NewCounter(metaProbeRows),
		OutputRows:         metric.NewCounter(metaOutputRows),
		Yields:             metric.NewCounter(metaYields),
		ActiveProbes:       metric.NewGauge(metaActiveProbes),
	}
}
