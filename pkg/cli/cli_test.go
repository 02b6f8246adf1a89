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
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/klauspost/compress/gzip"
	"github.com/simpligility/trino/pkg/cli/clierror"
	"github.com/simpligility/trino/pkg/cli/exit"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/geo/geopartition"
	"github.com/simpligility/trino/pkg/util/leaktest"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/stretchr/testify/require"
)

const (
	zonesCSV = `name,geom
A,"POLYGON ((0 0, 5 0, 5 5, 0 5, 0 0))"
B,"POLYGON ((4 4, 10 4, 10 10, 4 10, 4 4))"
`
	stopsCSV = `stop,geom
x,POINT (1 1)
null,
y,POINT (4.5 4.5)
z,POINT (6 6)
w,POINT (20 20)
`
)

// runCLI runs the command line args and returns its output. Errors are
// rendered with their exit code.
func runCLI(t *testing.T, dir string, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	spatialJoinCmd.SetOut(&buf)
	defer spatialJoinCmd.SetOut(nil)
	err := doMain(context.Background(), args)
	if err != nil {
		fmt.Fprintf(&buf, "ERROR (exit %d): %v\n", clierror.GetExitCode(err), err)
	}
	return strings.ReplaceAll(buf.String(), dir+string(filepath.Separator), "")
}

// TestCLI runs the commands of testdata/cli. The file directive writes its
// input to a file of the test directory, and exec runs its input as a
// command line in that directory. Exec sorts the output lines after the
// first one if sort is given.
func TestCLI(t *testing.T) {
	defer leaktest.AfterTest(t)()
	defer log.Scope(t).Close(t)

	dir := t.TempDir()
	datadriven.RunTest(t, "testdata/cli", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "file":
			var name string
			d.ScanArgs(t, "name", &name)
			require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), []byte(d.Input), 0644))
			return ""

		case "exec":
			var args []string
			for _, f := range strings.Fields(d.Input) {
				if strings.HasSuffix(f, ".csv") || strings.HasSuffix(f, ".yaml") {
					f = filepath.Join(dir, f)
				}
				args = append(args, f)
			}
			out := runCLI(t, dir, args...)
			if d.HasArg("sort") {
				lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
				sort.Strings(lines[1:])
				out = strings.Join(lines, "\n") + "\n"
			}
			return out

		default:
			d.Fatalf(t, "unknown command %s", d.Cmd)
			return ""
		}
	})
}

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestJoinTable(t *testing.T) {
	defer leaktest.AfterTest(t)()
	defer log.Scope(t).Close(t)

	dir := writeFiles(t, map[string]string{"zones.csv": zonesCSV, "stops.csv": stopsCSV})
	out := runCLI(t, dir, "join",
		"--build", filepath.Join(dir, "zones.csv"),
		"--probe", filepath.Join(dir, "stops.csv"),
		"-r", "st_contains")
	require.Contains(t, out, "stop")
	require.Contains(t, out, "POINT (4.5 4.5)")
	require.Contains(t, out, "(4 rows)")
	require.NotContains(t, out, "NULL")

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write([]byte(stopsCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "stops.csv.gz"), gz.Bytes(), 0644))
	out = runCLI(t, dir, "join",
		"--build", filepath.Join(dir, "zones.csv"),
		"--probe", filepath.Join(dir, "stops.csv.gz"),
		"-r", "st_contains")
	require.Contains(t, out, "(4 rows)")
}

func TestJoinExplainAndMetrics(t *testing.T) {
	defer leaktest.AfterTest(t)()
	defer log.Scope(t).Close(t)

	dir := writeFiles(t, map[string]string{"zones.csv": zonesCSV, "stops.csv": stopsCSV})
	out := runCLI(t, dir, "join",
		"--build", filepath.Join(dir, "zones.csv"),
		"--probe", filepath.Join(dir, "stops.csv"),
		"-r", "contains", "--type", "left",
		"--workers", "1", "--quantum", "1h",
		"--explain", "--metrics")
	for _, expected := range []string{
		"driver 0",
		"└── *colexecspatial.spatialIndexBuilder",
		"      indexed rows: 2",
		"driver 1",
		"*colexecspatial.spatialJoiner",
		"spatialjoin_build_rows 2",
		"spatialjoin_build_failures 0",
		"spatialjoin_build_bytes 0",
		"spatialjoin_probe_rows 5",
		"spatialjoin_probe_output_rows 6",
		"spatialjoin_probe_yields 0",
		"spatialjoin_probe_active 0",
	} {
		require.Contains(t, out, expected)
	}
}

func TestJoinErrors(t *testing.T) {
	defer leaktest.AfterTest(t)()
	defer log.Scope(t).Close(t)

	dir := writeFiles(t, map[string]string{
		"zones.csv":  zonesCSV,
		"stops.csv":  stopsCSV,
		"bad.csv":    "name,geom\nA,\"POLYGON ((0 0, 1\"\n",
		"ragged.csv": "name,geom\nA,POINT (1 1),extra\n",
	})
	for _, tc := range []struct {
		name string
		args []string
		code exit.Code
		err  string
	}{
		{
			name: "memory",
			args: []string{"--build-memory-limit", "1B"},
			code: exit.OutOfMemory(),
			err:  "memory budget exceeded",
		},
		{
			name: "bad geometry",
			args: []string{"--build", "bad.csv"},
			code: exit.UnspecifiedError(),
			err:  "reading bad.csv: line 2: column geom",
		},
		{
			name: "ragged",
			args: []string{"--probe", "ragged.csv"},
			code: exit.UnspecifiedError(),
			err:  "wrong number of fields",
		},
		{
			name: "missing file",
			args: []string{"--probe", "missing.csv"},
			code: exit.UnspecifiedError(),
			err:  "missing.csv",
		},
		{
			name: "bad config",
			args: []string{"--batch-size", "0"},
			code: exit.CommandLineFlagError(),
			err:  "batch_size must be positive, got 0",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			args := map[string]string{
				"--build": "zones.csv",
				"--probe": "stops.csv",
				"-r":      "contains",
			}
			for i := 0; i < len(tc.args); i += 2 {
				args[tc.args[i]] = tc.args[i+1]
			}
			cmdLine := []string{"join"}
			for k, v := range args {
				if strings.HasSuffix(v, ".csv") {
					v = filepath.Join(dir, v)
				}
				cmdLine = append(cmdLine, k, v)
			}
			out := runCLI(t, dir, cmdLine...)
			require.Contains(t, out, fmt.Sprintf("ERROR (exit %d): ", tc.code))
			require.Contains(t, out, tc.err)
		})
	}
}

func TestKdbTree(t *testing.T) {
	defer leaktest.AfterTest(t)()
	defer log.Scope(t).Close(t)

	dir := writeFiles(t, map[string]string{"zones.csv": zonesCSV, "empty.csv": "name,geom\nA,\n"})
	out := runCLI(t, dir, "kdbtree", "-i", filepath.Join(dir, "zones.csv"), "--max-items", "1")
	tree, err := geopartition.ParseKdbTree([]byte(out))
	require.NoError(t, err)
	require.Equal(t, `split x=4 BOX(0 0,10 10)
  leaf 0 BOX(0 0,4 10)
  split y=4 BOX(4 0,10 10)
    leaf 1 BOX(4 0,10 4)
    leaf 2 BOX(4 4,10 10)
`, tree.String())

	out = runCLI(t, dir, "kdbtree", "-i", filepath.Join(dir, "zones.csv"), "--max-items", "1", "--stats")
	require.Equal(t, `leaf 0 BOX(0 0,4 10): 1
leaf 1 BOX(4 0,10 4): 1
leaf 2 BOX(4 4,10 10): 2
partitions: 3
items per partition: min 1, mean 1.33, median 1, max 2
replication: 2.00
`, out)

	out = runCLI(t, dir, "kdbtree", "-i", filepath.Join(dir, "zones.csv"), "--max-items", "0")
	require.Contains(t, out, "ERROR (exit 4): max items per node must be positive, got 0")

	out = runCLI(t, dir, "kdbtree", "-i", filepath.Join(dir, "empty.csv"))
	require.Contains(t, out, "ERROR (exit 1): empty.csv holds no geometry")
}

func TestSplitBatches(t *testing.T) {
	defer leaktest.AfterTest(t)()

	var batches []coldata.Batch
	for i := 0; i < 5; i++ {
		b, err := coldata.BatchFromRows([]coltypes.T{coltypes.Int64}, []interface{}{i})
		require.NoError(t, err)
		batches = append(batches, b)
	}
	lengths := func(groups [][]coldata.Batch) []int {
		var res []int
		for _, g := range groups {
			res = append(res, len(g))
		}
		return res
	}
	require.Equal(t, []int{0}, lengths(splitBatches(nil, 4)))
	require.Equal(t, []int{5}, lengths(splitBatches(batches, 0)))
	require.Equal(t, []int{2, 3}, lengths(splitBatches(batches, 2)))
	require.Equal(t, []int{1, 1, 1, 1, 1}, lengths(splitBatches(batches, 8)))
}
