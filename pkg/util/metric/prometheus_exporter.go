// Copyright 2016 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package metric

import (
	"io"
	"regexp"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	prometheusgo "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/simpligility/trino/pkg/util/syncutil"
)

var reservedCharsRE = regexp.MustCompile("[^a-zA-Z0-9_:]")

// exportedName converts a dotted metric name into a prometheus compatible
// one.
func exportedName(name string) string {
	return reservedCharsRE.ReplaceAllString(name, "_")
}

// PrometheusExporter contains a map of metric families (a metric with
// multiple labels) and exports them in the prometheus text format.
type PrometheusExporter struct {
	mu struct {
		syncutil.Mutex
		families map[string]*prometheusgo.MetricFamily
	}
}

var _ prometheus.Gatherer = (*PrometheusExporter)(nil)

// NewPrometheusExporter returns an initialized prometheus exporter.
func NewPrometheusExporter() *PrometheusExporter {
	pm := &PrometheusExporter{}
	pm.mu.families = make(map[string]*prometheusgo.MetricFamily)
	return pm
}

// ScrapeRegistry scrapes all metrics contained in the registry to the
// metric family map, holding on only to the scraped values.
func (pm *PrometheusExporter) ScrapeRegistry(registry *Registry) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	registry.Each(func(_ string, v interface{}) {
		prom, ok := v.(PrometheusExportable)
		if !ok {
			return
		}
		name := exportedName(prom.GetName())
		help := prom.GetHelp()
		family, ok := pm.mu.families[name]
		if !ok {
			family = &prometheusgo.MetricFamily{Name: &name, Help: &help, Type: prom.GetType()}
			pm.mu.families[name] = family
		}
		family.Metric = append(family.Metric, prom.ToPrometheusMetric())
	})
}

// Gather implements prometheus.Gatherer. It returns the scraped families
// that hold at least one metric, ordered by name.
func (pm *PrometheusExporter) Gather() ([]*prometheusgo.MetricFamily, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	res := make([]*prometheusgo.MetricFamily, 0, len(pm.mu.families))
	for _, family := range pm.mu.families {
		if len(family.Metric) == 0 {
			continue
		}
		res = append(res, family)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].GetName() < res[j].GetName() })
	return res, nil
}

// PrintAsText writes all metrics in the families map to the io.Writer in
// prometheus' text format. It removes individual metrics from the families
// as it goes, readying the families for another round of registry additions.
func (pm *PrometheusExporter) PrintAsText(w io.Writer) error {
	families, _ := pm.Gather()
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return err
		}
	}
	pm.clearMetrics()
	return nil
}

// clearMetrics clears the metrics of each family, keeping the families
// themselves so that help and type information survive.
func (pm *PrometheusExporter) clearMetrics() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for _, family := range pm.mu.families {
		family.Metric = nil
	}
}
