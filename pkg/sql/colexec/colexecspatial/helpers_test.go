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

import (
	"context"
	"testing"

	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/geo/geopartition"
	"github.com/simpligility/trino/pkg/geo/geopb"
	"github.com/simpligility/trino/pkg/sql/colexec/colexecbase"
	"github.com/simpligility/trino/pkg/sql/colexec/colexectestutils"
	"github.com/simpligility/trino/pkg/sql/colexecop"
	"github.com/simpligility/trino/pkg/sql/colflow"
	"github.com/simpligility/trino/pkg/sql/execinfrapb"
	"github.com/stretchr/testify/require"
)

const (
	polygonA = "POLYGON ((0 0, -0.5 2.5, 0 5, 2.5 5.5, 5 5, 5.5 2.5, 5 0, 2.5 -0.5, 0 0))"
	polygonB = "POLYGON ((4 4, 3.5 7, 4 10, 7 10.5, 10 10, 10.5 7, 10 4, 7 3.5, 4 4))"

	pointX = "POINT (1 1)"
	pointY = "POINT (4.5 4.5)"
	pointZ = "POINT (6 6)"
	pointW = "POINT (20 20)"
)

// testKdbTree splits (-2 -2, 15 15) at x=6, and the left half at y=1:
//
//	partition 1: x < 6, y < 1
//	partition 2: x < 6, y >= 1
//	partition 0: x >= 6
func testKdbTree() *geopartition.KdbTree {
	root := geopartition.MustNewInternal(geopb.MakeBoundingBox(-2, -2, 15, 15),
		geopartition.MustNewInternal(geopb.MakeBoundingBox(-2, -2, 6, 15),
			geopartition.NewLeaf(geopb.MakeBoundingBox(-2, -2, 6, 1), 1),
			geopartition.NewLeaf(geopb.MakeBoundingBox(-2, 1, 6, 15), 2),
		),
		geopartition.NewLeaf(geopb.MakeBoundingBox(6, -2, 15, 15), 0),
	)
	tree, err := geopartition.NewKdbTree(root)
	if err != nil {
		panic(err)
	}
	return tree
}

func testKdbTreeJSON(t *testing.T) []byte {
	data, err := testKdbTree().MarshalJSON()
	require.NoError(t, err)
	return data
}

// Build and probe rows carry a geometry and a name, optionally followed by
// a radius (build side only) and a partition.
var (
	geomNameTypes           = []coltypes.T{coltypes.Geometry, coltypes.Bytes}
	geomNamePartTypes       = []coltypes.T{coltypes.Geometry, coltypes.Bytes, coltypes.Int64}
	geomNameRadiusTypes     = []coltypes.T{coltypes.Geometry, coltypes.Bytes, coltypes.Float64}
	geomNameRadiusPartTypes = []coltypes.T{coltypes.Geometry, coltypes.Bytes, coltypes.Float64, coltypes.Int64}
)

func builderSpec(
	typs []coltypes.T, rel execinfrapb.SpatialRelationship, radiusCol, partCol int, tree []byte,
) execinfrapb.SpatialIndexBuilderSpec {
	return execinfrapb.SpatialIndexBuilderSpec{
		Types:           typs,
		GeometryColumn:  0,
		RadiusColumn:    radiusCol,
		PartitionColumn: partCol,
		KdbTree:         tree,
		OutputColumns:   []int{1},
		Relationship:    rel,
	}
}

func joinerSpec(
	typ execinfrapb.JoinType, typs []coltypes.T, partCol int,
) execinfrapb.SpatialJoinerSpec {
	return execinfrapb.SpatialJoinerSpec{
		Type:            typ,
		Types:           typs,
		GeometryColumn:  0,
		PartitionColumn: partCol,
		OutputColumns:   []int{1},
	}
}

// spatialJoinHarness wires one build driver to any number of probe
// drivers sharing the index.
type spatialJoinHarness struct {
	t       *testing.T
	ctx     context.Context
	builder *SpatialIndexBuilderFactory
	joiner  *SpatialJoinerFactory
	metrics *Metrics

	buildDriver *colflow.Driver
}

func newHarness(
	t *testing.T,
	args SpatialIndexBuilderArgs,
	spec execinfrapb.SpatialJoinerSpec,
) *spatialJoinHarness {
	t.Helper()
	if args.Metrics == nil {
		args.Metrics = NewMetrics()
	}
	b, err := NewSpatialIndexBuilderFactory(args)
	require.NoError(t, err)
	j, err := NewSpatialJoinerFactory(spec, b.IndexFactory(), args.Metrics)
	require.NoError(t, err)
	return &spatialJoinHarness{
		t:       t,
		ctx:     context.Background(),
		builder: b,
		joiner:  j,
		metrics: args.Metrics,
	}
}

// startBuild runs the build pipeline over batches until the index is
// published or the build fails.
func (h *spatialJoinHarness) startBuild(batches []coldata.Batch) error {
	h.t.Helper()
	op, err := h.builder.CreateOperator(h.ctx, colexecop.NewDriverContext(0))
	require.NoError(h.t, err)
	h.builder.NoMoreOperators(h.ctx)
	h.buildDriver, err = colflow.NewDriver(colexecop.NewDriverContext(0), colexecbase.NewValuesOp(batches...), op)
	require.NoError(h.t, err)
	_, err = h.buildDriver.ProcessUntilBlocked(h.ctx)
	return err
}

// newProbeDriver returns a probe pipeline created by f, and its sink.
func (h *spatialJoinHarness) newProbeDriver(
	f colexecop.OperatorFactory, id int, batches []coldata.Batch,
) (*colflow.Driver, *colexecbase.CollectorOp) {
	h.t.Helper()
	dctx := colexecop.NewDriverContext(id)
	op, err := f.CreateOperator(h.ctx, dctx)
	require.NoError(h.t, err)
	sink := colexecbase.NewCollectorOp()
	d, err := colflow.NewDriver(dctx, colexecbase.NewValuesOp(batches...), op, sink)
	require.NoError(h.t, err)
	return d, sink
}

// finishBuild checks that the build driver completes once every consumer
// released the index.
func (h *spatialJoinHarness) finishBuild() {
	h.t.Helper()
	require.True(h.t, colexecop.IsDone(h.builder.IndexFactory().Released()))
	require.NoError(h.t, colexectestutils.RunDriver(h.ctx, h.buildDriver))
	require.True(h.t, h.buildDriver.IsFinished())
}

// run joins probe against build in a single probe driver and returns the
// output rows.
func (h *spatialJoinHarness) run(build, probe []coldata.Batch) colexectestutils.Tuples {
	h.t.Helper()
	out, err := h.runWithError(build, probe)
	require.NoError(h.t, err)
	return out
}

// runWithError is like run but returns the error of the build or the probe.
func (h *spatialJoinHarness) runWithError(
	build, probe []coldata.Batch,
) (colexectestutils.Tuples, error) {
	h.t.Helper()
	if err := h.startBuild(build); err != nil {
		h.joiner.NoMoreOperators(h.ctx)
		return nil, err
	}
	d, sink := h.newProbeDriver(h.joiner, 0, probe)
	h.joiner.NoMoreOperators(h.ctx)
	err := colexectestutils.RunDriver(h.ctx, d)
	require.True(h.t, sink.Closed())
	h.finishBuild()
	if err != nil {
		return nil, err
	}
	return colexectestutils.BatchesToTuples(h.t, sink.Batches()), nil
}

func rows(vals ...[]interface{}) colexectestutils.Tuples {
	res := make(colexectestutils.Tuples, len(vals))
	for i, v := range vals {
		res[i] = v
	}
	return res
}

func row(vals ...interface{}) []interface{} {
	return vals
}
