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
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/simpligility/trino/pkg/base"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/geo/geopartition"
	"github.com/simpligility/trino/pkg/geo/geopb"
	"github.com/simpligility/trino/pkg/sql/colexec/colexecbase"
	"github.com/simpligility/trino/pkg/sql/colexec/colexecspatial"
	"github.com/simpligility/trino/pkg/sql/colexecop"
	"github.com/simpligility/trino/pkg/sql/colflow"
	"github.com/simpligility/trino/pkg/sql/execinfrapb"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/simpligility/trino/pkg/util/mon"
)

// joinPlanArgs describe a spatial join between two CSV relations.
type joinPlanArgs struct {
	build, probe *csvRelation
	relationship execinfrapb.SpatialRelationship
	joinType     execinfrapb.JoinType
	// partitions is the number of spatial partitions to aim for. A value
	// below two plans a broadcast join.
	partitions int
	// probeDrivers is the number of probe pipelines of a broadcast join.
	probeDrivers int
	// columns names the output columns, all of them if empty.
	columns []string
	monitor *mon.BytesMonitor
	metrics      *colexecspatial.Metrics
}

// spatialJoinPlan is the set of drivers computing a spatial join. Every
// probe driver ends in a sink collecting its output.
type spatialJoinPlan struct {
	columns []string
	// projection selects the output columns out of the joined rows. It is
	// nil when every column is output.
	projection []int
	width      int
	drivers    []*colflow.Driver
	sinks   []*colexecbase.CollectorOp
	// tree is the partitioning of a distributed join.
	tree *geopartition.KdbTree

	factories []colexecop.OperatorFactory
	nextID    int
}

// planSpatialJoin creates the drivers of a join. The drivers must be run,
// or closed if running them is abandoned.
func planSpatialJoin(ctx context.Context, args joinPlanArgs) (_ *spatialJoinPlan, retErr error) {
	p := &spatialJoinPlan{}
	p.columns = append(p.columns, args.probe.names...)
	p.columns = append(p.columns, args.build.names...)
	p.width = len(p.columns)
	projection, err := resolveColumns(args.probe.names, args.build.names, args.columns)
	if err != nil {
		return nil, err
	}
	if projection != nil {
		p.projection = projection
		columns := make([]string, len(projection))
		for i, c := range projection {
			columns[i] = p.columns[c]
		}
		p.columns = columns
	}
	defer func() {
		// Operators are only created while planning.
		for _, f := range p.factories {
			f.NoMoreOperators(ctx)
		}
		if retErr != nil {
			p.close(ctx)
		}
	}()
	if args.partitions < 2 {
		return p, p.planBroadcast(ctx, args)
	}
	return p, p.planDistributed(ctx, args)
}

// planBroadcast plans a single index over the whole build relation, probed
// by args.probeDrivers pipelines each reading a contiguous share of the
// probe batches.
func (p *spatialJoinPlan) planBroadcast(ctx context.Context, args joinPlanArgs) error {
	bf, jf, err := p.makeFactories(args, execinfrapb.SpatialIndexBuilderSpec{
		Types:           args.build.types,
		GeometryColumn:  args.build.geomCol,
		RadiusColumn:    args.build.radiusCol,
		PartitionColumn: execinfrapb.NoColumn,
		OutputColumns:   allColumns(len(args.build.types)),
		Relationship:    args.relationship,
	}, execinfrapb.SpatialJoinerSpec{
		Type:            args.joinType,
		Types:           args.probe.types,
		GeometryColumn:  args.probe.geomCol,
		PartitionColumn: execinfrapb.NoColumn,
		OutputColumns:   allColumns(len(args.probe.types)),
	})
	if err != nil {
		return err
	}

	chunks := splitBatches(args.probe.batches, args.probeDrivers)
	probeFactories := []colexecop.OperatorFactory{jf}
	for len(probeFactories) < len(chunks) {
		d, err := jf.Duplicate()
		if err != nil {
			return err
		}
		p.factories = append(p.factories, d)
		probeFactories = append(probeFactories, d)
	}
	if err := p.addBuildDriver(ctx, bf, args.build.batches); err != nil {
		return err
	}
	for i, f := range probeFactories {
		if err := p.addProbeDriver(ctx, f, chunks[i]); err != nil {
			return err
		}
	}
	log.VEventf(ctx, 1, "planned broadcast join with %d probe drivers", len(chunks))
	return nil
}

// planDistributed partitions both relations with a kdb tree computed from
// the build sample and plans one index and one probe pipeline per
// partition. Each index only holds its own partition.
func (p *spatialJoinPlan) planDistributed(ctx context.Context, args joinPlanArgs) error {
	extent := args.build.extent.Union(args.probe.extent)
	if extent.IsEmpty() {
		extent = geopb.MakeBoundingBox(0, 0, 1, 1)
	}
	maxItems := (len(args.build.sample) + args.partitions - 1) / args.partitions
	if maxItems < 1 {
		maxItems = 1
	}
	tree, err := geopartition.BuildKdbTree(maxItems, base.DefaultMaxPartitionLevels, extent, args.build.sample)
	if err != nil {
		return err
	}
	treeJSON, err := tree.MarshalJSON()
	if err != nil {
		return err
	}
	p.tree = tree

	buildTypes := append(append([]coltypes.T(nil), args.build.types...), coltypes.Int64)
	probeTypes := append(append([]coltypes.T(nil), args.probe.types...), coltypes.Int64)
	for _, leaf := range tree.Leaves() {
		bf, jf, err := p.makeFactories(args, execinfrapb.SpatialIndexBuilderSpec{
			Types:           buildTypes,
			GeometryColumn:  args.build.geomCol,
			RadiusColumn:    args.build.radiusCol,
			PartitionColumn: len(args.build.types),
			KdbTree:         treeJSON,
			LocalPartitions: []int{leaf.ID},
			OutputColumns:   allColumns(len(args.build.types)),
			Relationship:    args.relationship,
		}, execinfrapb.SpatialJoinerSpec{
			Type:            args.joinType,
			Types:           probeTypes,
			GeometryColumn:  args.probe.geomCol,
			PartitionColumn: len(args.probe.types),
			OutputColumns:   allColumns(len(args.probe.types)),
		})
		if err != nil {
			return err
		}
		buildPartitioner, err := colexecspatial.NewSpatialPartitionerOp(
			args.build.types, args.build.geomCol, args.build.radiusCol, tree)
		if err != nil {
			return err
		}
		if err := p.addBuildDriver(ctx, bf, args.build.batches, buildPartitioner); err != nil {
			return err
		}
		probePartitioner, err := colexecspatial.NewSpatialPartitionerOp(
			args.probe.types, args.probe.geomCol, execinfrapb.NoColumn, tree)
		if err != nil {
			return err
		}
		if err := p.addProbeDriver(ctx, jf, args.probe.batches, probePartitioner); err != nil {
			return err
		}
	}
	log.VEventf(ctx, 1, "planned distributed join over %d partitions:\n%s", tree.NumPartitions(), tree)
	return nil
}

func (p *spatialJoinPlan) makeFactories(
	args joinPlanArgs,
	bspec execinfrapb.SpatialIndexBuilderSpec,
	jspec execinfrapb.SpatialJoinerSpec,
) (*colexecspatial.SpatialIndexBuilderFactory, *colexecspatial.SpatialJoinerFactory, error) {
	bf, err := colexecspatial.NewSpatialIndexBuilderFactory(colexecspatial.SpatialIndexBuilderArgs{
		Spec:    bspec,
		Monitor: args.monitor,
		Metrics: args.metrics,
	})
	if err != nil {
		return nil, nil, err
	}
	p.factories = append(p.factories, bf)
	jf, err := colexecspatial.NewSpatialJoinerFactory(jspec, bf.IndexFactory(), args.metrics)
	if err != nil {
		return nil, nil, err
	}
	p.factories = append(p.factories, jf)
	return bf, jf, nil
}

func (p *spatialJoinPlan) newDriverContext() *colexecop.DriverContext {
	dctx := colexecop.NewDriverContext(p.nextID)
	p.nextID++
	return dctx
}

// addBuildDriver adds the pipeline feeding batches through ops into the
// operator of f.
func (p *spatialJoinPlan) addBuildDriver(
	ctx context.Context,
	f colexecop.OperatorFactory,
	batches []coldata.Batch,
	ops ...colexecop.Operator,
) error {
	dctx := p.newDriverContext()
	op, err := f.CreateOperator(ctx, dctx)
	if err != nil {
		return err
	}
	pipeline := append([]colexecop.Operator{
		colexecbase.NewValuesOp(batches...), traceInput(dctx.ID)}, ops...)
	d, err := colflow.NewDriver(dctx, append(pipeline, op)...)
	if err != nil {
		return err
	}
	p.drivers = append(p.drivers, d)
	return nil
}

// addProbeDriver adds the pipeline feeding batches through ops into the
// operator of f, and collecting its output.
func (p *spatialJoinPlan) addProbeDriver(
	ctx context.Context,
	f colexecop.OperatorFactory,
	batches []coldata.Batch,
	ops ...colexecop.Operator,
) error {
	dctx := p.newDriverContext()
	op, err := f.CreateOperator(ctx, dctx)
	if err != nil {
		return err
	}
	sink := colexecbase.NewCollectorOp()
	pipeline := append([]colexecop.Operator{
		colexecbase.NewValuesOp(batches...), traceInput(dctx.ID)}, ops...)
	pipeline = append(pipeline, op)
	if p.projection != nil {
		if proj := colexecbase.NewSimpleProjectOp(p.width, p.projection); proj != nil {
			pipeline = append(pipeline, proj)
		}
	}
	d, err := colflow.NewDriver(dctx, append(pipeline, sink)...)
	if err != nil {
		return err
	}
	p.drivers = append(p.drivers, d)
	p.sinks = append(p.sinks, sink)
	return nil
}

// traceInput returns an operator logging the batches a driver reads.
func traceInput(id int) colexecop.Operator {
	return colexecbase.NewFnOp(func(ctx context.Context, b coldata.Batch) error {
		log.VEventf(ctx, 3, "driver %d read %d rows", id, b.Length())
		return nil
	})
}

// resolveColumns returns the positions in the joined rows of the named
// columns, or nil if names is empty. A name may be qualified with the side
// of the join it belongs to, as in build.geom.
func resolveColumns(probe, build []string, names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, nil
	}
	res := make([]int, 0, len(names))
	for _, name := range names {
		side, col := "", name
		if i := strings.IndexByte(name, '.'); i >= 0 && (name[:i] == "probe" || name[:i] == "build") {
			side, col = name[:i], name[i+1:]
		}
		var matches []int
		if side != "build" {
			for i, n := range probe {
				if n == col {
					matches = append(matches, i)
				}
			}
		}
		if side != "probe" {
			for i, n := range build {
				if n == col {
					matches = append(matches, len(probe)+i)
				}
			}
		}
		switch len(matches) {
		case 0:
			return nil, errors.Newf("column %q not found in %v", name, append(append([]string(nil), probe...), build...))
		case 1:
			res = append(res, matches[0])
		default:
			return nil, errors.Newf("column %q is ambiguous, qualify it with probe. or build.", name)
		}
	}
	return res, nil
}

// close closes every driver of the plan.
func (p *spatialJoinPlan) close(ctx context.Context) {
	for _, d := range p.drivers {
		if err := d.Close(ctx); err != nil {
			log.Warningf(ctx, "closing driver %d: %v", d.Context().ID, err)
		}
	}
}

// rows renders the output of the join, one sink after the other.
func (p *spatialJoinPlan) rows() ([][]string, error) {
	var res [][]string
	for _, sink := range p.sinks {
		for _, batch := range sink.Batches() {
			for i := 0; i < batch.Length(); i++ {
				row := make([]string, batch.Width())
				for j, vec := range batch.ColVecs() {
					s, err := formatValue(vec, i)
					if err != nil {
						return nil, err
					}
					row[j] = s
				}
				res = append(res, row)
			}
		}
	}
	return res, nil
}

// formatValue renders the value at position i of vec. Geometries are
// rendered as EWKT.
func formatValue(vec coldata.Vec, i int) (string, error) {
	v := coldata.ValueAt(vec, i)
	if v == nil {
		return "NULL", nil
	}
	switch vec.Type() {
	case coltypes.Geometry:
		g, err := geo.ParseGeometryFromEWKB(v.([]byte))
		if err != nil {
			return "", err
		}
		return g.String(), nil
	case coltypes.Float64:
		return strconv.FormatFloat(v.(float64), 'g', -1, 64), nil
	case coltypes.Int64:
		return strconv.FormatInt(v.(int64), 10), nil
	case coltypes.Bool:
		return strconv.FormatBool(v.(bool)), nil
	default:
		return string(v.([]byte)), nil
	}
}

func allColumns(n int) []int {
	cols := make([]int, n)
	for i := range cols {
		cols[i] = i
	}
	return cols
}

// splitBatches divides batches into at most n contiguous groups of
// similar size. There is always at least one group.
func splitBatches(batches []coldata.Batch, n int) [][]coldata.Batch {
	if n < 1 {
		n = 1
	}
	if n > len(batches) {
		n = len(batches)
	}
	if n == 0 {
		return [][]coldata.Batch{nil}
	}
	res := make([][]coldata.Batch, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, batches[i*len(batches)/n:(i+1)*len(batches)/n])
	}
	return res
}
