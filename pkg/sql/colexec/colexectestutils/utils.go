// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package colexectestutils contains helpers to build test input for
// operators and to check their output.
package colexectestutils

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kr/pretty"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/sql/colexecop"
	"github.com/simpligility/trino/pkg/sql/colflow"
	"github.com/stretchr/testify/require"
)

// Tuple is a row of Go native values. Geometry values may be given as WKT
// strings or geo.Geometry.
type Tuple []interface{}

func (t Tuple) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, v := range t {
		if i > 0 {
			sb.WriteString(" ")
		}
		switch v := v.(type) {
		case nil:
			sb.WriteString("NULL")
		case []byte:
			fmt.Fprintf(&sb, "'%s'", v)
		case string:
			fmt.Fprintf(&sb, "'%s'", v)
		default:
			fmt.Fprintf(&sb, "%v", v)
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Tuples is a list of Tuple.
type Tuples []Tuple

func (t Tuples) String() string {
	rows := make([]string, len(t))
	for i, r := range t {
		rows[i] = r.String()
	}
	return strings.Join(rows, "\n")
}

// Sort sorts the tuples by their string representation.
func (t Tuples) Sort() {
	sort.Slice(t, func(i, j int) bool { return t[i].String() < t[j].String() })
}

// BatchesBuilder builds a list of batches row by row. PageBreak starts a new
// batch.
type BatchesBuilder struct {
	t       testing.TB
	typs    []coltypes.T
	b       *coldata.BatchBuilder
	batches []coldata.Batch
}

// NewBatchesBuilder returns a builder for batches of the given types.
func NewBatchesBuilder(t testing.TB, typs ...coltypes.T) *BatchesBuilder {
	return &BatchesBuilder{t: t, typs: typs, b: coldata.NewBatchBuilder(typs, 0)}
}

// Types returns the schema of the batches.
func (b *BatchesBuilder) Types() []coltypes.T {
	return b.typs
}

// Row appends a row.
func (b *BatchesBuilder) Row(vals ...interface{}) *BatchesBuilder {
	b.t.Helper()
	require.Len(b.t, vals, len(b.typs))
	for i, v := range vals {
		if b.typs[i] == coltypes.Geometry && v != nil {
			v = EncodeGeometry(b.t, v)
		}
		require.NoError(b.t, b.b.AppendDatum(i, v))
	}
	b.b.FinishRow()
	return b
}

// PageBreak ends the current batch.
func (b *BatchesBuilder) PageBreak() *BatchesBuilder {
	if !b.b.IsEmpty() {
		b.batches = append(b.batches, b.b.Build())
	}
	return b
}

// Build returns the batches.
func (b *BatchesBuilder) Build() []coldata.Batch {
	b.PageBreak()
	return b.batches
}

// EncodeGeometry returns the EWKB of v, which is either a WKT string or a
// geo.Geometry.
func EncodeGeometry(t testing.TB, v interface{}) []byte {
	t.Helper()
	switch v := v.(type) {
	case geo.Geometry:
		return v.EWKB()
	case string:
		g, err := geo.ParseGeometry(v)
		require.NoError(t, err)
		return g.EWKB()
	case []byte:
		return v
	}
	t.Fatalf("unexpected geometry value %T", v)
	return nil
}

// BatchesToTuples returns the rows of batches, with bytes converted to
// strings and geometries to their EWKT.
func BatchesToTuples(t testing.TB, batches []coldata.Batch) Tuples {
	t.Helper()
	var res Tuples
	for _, b := range batches {
		for i := 0; i < b.Length(); i++ {
			row := make(Tuple, b.Width())
			for j := range row {
				v := coldata.ValueAt(b.ColVec(j), i)
				if bytes, ok := v.([]byte); ok {
					if b.Types()[j] == coltypes.Geometry {
						g, err := geo.ParseGeometryFromEWKB(bytes)
						require.NoError(t, err)
						v = g.String()
					} else {
						v = string(bytes)
					}
				}
				row[j] = v
			}
			res = append(res, row)
		}
	}
	return res
}

// AssertTuplesEqual checks that actual holds exactly the expected rows, in
// order.
func AssertTuplesEqual(t testing.TB, expected, actual Tuples) {
	t.Helper()
	if len(expected) == 0 && len(actual) == 0 {
		return
	}
	if diff := pretty.Diff(expected, actual); len(diff) > 0 {
		t.Fatalf("unexpected rows\nexpected:\n%s\nactual:\n%s\ndiff: %s", expected, actual, strings.Join(diff, "\n"))
	}
}

// AssertTuplesSetEqual checks that actual holds exactly the expected rows, in
// any order.
func AssertTuplesSetEqual(t testing.TB, expected, actual Tuples) {
	t.Helper()
	expected = append(Tuples(nil), expected...)
	actual = append(Tuples(nil), actual...)
	expected.Sort()
	actual.Sort()
	AssertTuplesEqual(t, expected, actual)
}

// OperatorToBatches drives a single operator by hand: it feeds input
// whenever the operator needs it, finishes it once input is exhausted, and
// collects its output until it is finished. The operator must not block.
func OperatorToBatches(
	ctx context.Context, op colexecop.Operator, input []coldata.Batch,
) ([]coldata.Batch, error) {
	var out []coldata.Batch
	for !op.IsFinished() {
		if !colexecop.IsDone(op.IsBlocked()) {
			return nil, errors.AssertionFailedf("operator is blocked")
		}
		if op.NeedsInput() {
			if len(input) > 0 {
				if err := op.AddInput(ctx, input[0]); err != nil {
					return nil, err
				}
				input = input[1:]
			} else if err := op.Finish(ctx); err != nil {
				return nil, err
			}
		} else if len(input) == 0 {
			if err := op.Finish(ctx); err != nil {
				return nil, err
			}
		}
		b, err := op.GetOutput(ctx)
		if err != nil {
			return nil, err
		}
		if b != nil && b.Length() > 0 {
			out = append(out, b)
		}
	}
	return out, nil
}

// RunDriver runs d until it is finished, waiting on the futures it returns.
func RunDriver(ctx context.Context, d *colflow.Driver) error {
	for !d.IsFinished() {
		blocked, err := d.ProcessUntilBlocked(ctx)
		if err != nil {
			return err
		}
		if d.IsFinished() {
			break
		}
		select {
		case <-blocked.Done():
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
			return errors.New("driver is blocked for too long")
		}
	}
	return nil
}
