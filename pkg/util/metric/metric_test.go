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
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/stretchr/testify/require"
)

type testMetrics struct {
	Rows    *Counter
	Pending *Gauge
	Nested  struct {
		Yields *Counter
	}
	unexported *Counter
	Missing    *Counter
}

func makeTestMetrics() testMetrics {
	m := testMetrics{
		Rows:       NewCounter(Metadata{Name: "test.rows", Help: "Rows seen", Measurement: "Rows"}),
		Pending:    NewGauge(Metadata{Name: "test.pending", Help: "Pending work"}),
		unexported: NewCounter(Metadata{Name: "test.unexported"}),
	}
	m.Nested.Yields = NewCounter(Metadata{Name: "test.yields", Help: "Yields"})
	return m
}

func TestRegistryAddMetricStruct(t *testing.T) {
	r := NewRegistry()
	m := makeTestMetrics()
	r.AddMetricStruct(m)

	var names []string
	r.Each(func(name string, _ interface{}) { names = append(names, name) })
	require.Equal(t, []string{"test.pending", "test.rows", "test.yields"}, names)
	require.False(t, r.Contains("test.unexported"))

	require.Panics(t, func() { r.AddMetricStruct(3) })
}

func TestCounterGauge(t *testing.T) {
	m := makeTestMetrics()
	m.Rows.Inc(3)
	m.Rows.Inc(4)
	require.Equal(t, int64(7), m.Rows.Count())
	m.Pending.Update(10)
	m.Pending.Inc(2)
	m.Pending.Dec(15)
	require.Equal(t, int64(-3), m.Pending.Value())
}

func TestPrometheusExporter(t *testing.T) {
	r := NewRegistry()
	m := makeTestMetrics()
	r.AddMetricStruct(&m)
	m.Rows.Inc(7)
	m.Pending.Update(-3)
	m.Nested.Yields.Inc(1)

	pm := NewPrometheusExporter()
	pm.ScrapeRegistry(r)
	expected := `# HELP test_pending Pending work
# TYPE test_pending gauge
test_pending -3
# HELP test_rows Rows seen
# TYPE test_rows counter
test_rows 7
# HELP test_yields Yields
# TYPE test_yields counter
test_yields 1
`
	require.NoError(t, testutil.GatherAndCompare(pm, strings.NewReader(expected)))

	var buf bytes.Buffer
	require.NoError(t, pm.PrintAsText(&buf))
	require.Equal(t, expected, buf.String())

	// Printing clears the scraped values.
	buf.Reset()
	require.NoError(t, pm.PrintAsText(&buf))
	require.Empty(t, buf.String())
}

func TestGraphiteExporter(t *testing.T) {
	defer log.Scope(t).Close(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			received <- err.Error()
			return
		}
		defer conn.Close()
		b, _ := io.ReadAll(conn)
		received <- string(b)
	}()

	r := NewRegistry()
	m := makeTestMetrics()
	r.AddMetricStruct(m)
	m.Rows.Inc(5)
	pm := NewPrometheusExporter()
	pm.ScrapeRegistry(r)
	ge := MakeGraphiteExporter(pm)
	require.NoError(t, ge.Push(context.Background(), ln.Addr().String(), "spatialjoin"))
	require.Contains(t, <-received, "spatialjoin.test_rows 5 ")

	require.ErrorIs(t, ge.Push(context.Background(), "", "x"), errNoEndpoint)
}
