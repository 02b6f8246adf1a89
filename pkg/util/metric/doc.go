// Copyright 2016 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

/*
Package metric provides counters and gauges describing the work done by the
spatial join operators, and exports them in the Prometheus text format or
to a Graphite server.

Adding a new metric

Declare the metric's Metadata, create it, and add it to a Registry,
usually by grouping related metrics in a struct and registering the struct:

	type Metrics struct {
		ProbeRows *metric.Counter
	}

	m := Metrics{ProbeRows: metric.NewCounter(metaProbeRows)}
	registry.AddMetricStruct(m)

The metric is then updated in place:

	m.ProbeRows.Inc(int64(batch.Length()))

Exporting

A PrometheusExporter scrapes registries and implements
prometheus.Gatherer, so it can be printed with PrintAsText or pushed with a
GraphiteExporter.
*/
package metric
