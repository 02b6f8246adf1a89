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
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/geo/geoindex"
	"github.com/simpligility/trino/pkg/geo/geopartition"
	"github.com/simpligility/trino/pkg/sql/colexecop"
	"github.com/simpligility/trino/pkg/sql/execinfrapb"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/simpligility/trino/pkg/util/mon"
	"github.com/simpligility/trino/pkg/util/syncutil"
)

// errBuildAborted is published to the consumers of an index whose builder
// was closed before finishing.
var errBuildAborted = errors.New("spatial index build aborted")

// SpatialIndexBuilderArgs configure the build side of a spatial join.
type SpatialIndexBuilderArgs struct {
	Spec execinfrapb.SpatialIndexBuilderSpec
	// Predicate, if set, is used instead of the predicate of
	// Spec.Relationship.
	Predicate SpatialPredicate
	// Filter is an optional additional join condition.
	Filter JoinFilterFunction
	// Monitor accounts for the memory retained by the index. Nil means
	// unlimited.
	Monitor *mon.BytesMonitor
	Metrics *Metrics
}

// SpatialIndexBuilderFactory creates the single operator materializing the
// build side of a spatial join into a SpatialIndex.
type SpatialIndexBuilderFactory struct {
	spec            execinfrapb.SpatialIndexBuilderSpec
	predicate       SpatialPredicate
	filter          JoinFilterFunction
	kdbTree         *geopartition.KdbTree
	localPartitions map[int]struct{}
	monitor         *mon.BytesMonitor
	metrics         *Metrics

	indexFactory *SpatialIndexFactory

	mu struct {
		syncutil.Mutex
		created bool
		closed  bool
	}
}

var _ colexecop.OperatorFactory = &SpatialIndexBuilderFactory{}

// NewSpatialIndexBuilderFactory validates args and returns the factory.
func NewSpatialIndexBuilderFactory(args SpatialIndexBuilderArgs) (*SpatialIndexBuilderFactory, error) {
	spec := args.Spec
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	f := &SpatialIndexBuilderFactory{
		spec:      spec,
		predicate: args.Predicate,
		filter:    args.Filter,
		monitor:   args.Monitor,
		metrics:   args.Metrics,
	}
	if f.predicate == nil {
		p, err := MakeSpatialPredicate(spec.Relationship)
		if err != nil {
			return nil, err
		}
		f.predicate = p
	}
	if f.metrics == nil {
		f.metrics = NewMetrics()
	}
	if spec.PartitionColumn != execinfrapb.NoColumn {
		tree, err := geopartition.ParseKdbTree(spec.KdbTree)
		if err != nil {
			return nil, err
		}
		f.kdbTree = tree
		leaves := make(map[int]struct{}, tree.NumPartitions())
		for _, l := range tree.Leaves() {
			leaves[l.ID] = struct{}{}
		}
		if len(spec.LocalPartitions) > 0 {
			f.localPartitions = make(map[int]struct{}, len(spec.LocalPartitions))
			for _, p := range spec.LocalPartitions {
				if _, ok := leaves[p]; !ok {
					return nil, pgerror.Newf(pgcode.InvalidParameterValue,
						"local partition %d is not a leaf of the kdb tree", p)
				}
				f.localPartitions[p] = struct{}{}
			}
		}
	}
	f.indexFactory = newSpatialIndexFactory(spec.Types, spec.OutputColumns, f.kdbTree != nil)
	return f, nil
}

// IndexFactory returns the factory through which the built index is handed
// to probe operators.
func (f *SpatialIndexBuilderFactory) IndexFactory() *SpatialIndexFactory {
	return f.indexFactory
}

// CreateOperator implements the colexecop.OperatorFactory interface. Only
// one builder may be created.
func (f *SpatialIndexBuilderFactory) CreateOperator(
	ctx context.Context, dctx *colexecop.DriverContext,
) (colexecop.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mu.closed {
		return nil, errors.AssertionFailedf("spatial index builder factory is closed")
	}
	if f.mu.created {
		return nil, errors.AssertionFailedf("spatial index builder was already created")
	}
	f.mu.created = true
	b := &spatialIndexBuilder{
		factory: f,
		builder: geoindex.NewBuilder(),
		ctx:     logtags.AddTag(dctx.AnnotateCtx(ctx), "idxbuilder", nil),
	}
	if f.monitor != nil {
		b.acc = f.monitor.MakeBoundAccount()
	}
	b.stats.Component = "spatial index builder"
	b.stats.Inputs = make([]execinfrapb.InputStats, 1)
	return b, nil
}

// Duplicate implements the colexecop.OperatorFactory interface. The build
// side of a spatial join always runs in a single driver.
func (f *SpatialIndexBuilderFactory) Duplicate() (colexecop.OperatorFactory, error) {
	return nil, pgerror.New(pgcode.FeatureNotSupported, "spatial index builder cannot be duplicated")
}

// NoMoreOperators implements the colexecop.OperatorFactory interface. If no
// builder was ever created, the consumers of the index are failed.
func (f *SpatialIndexBuilderFactory) NoMoreOperators(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mu.closed {
		return
	}
	f.mu.closed = true
	if !f.mu.created {
		f.indexFactory.fail(ctx, errors.AssertionFailedf("no spatial index builder was created"))
	}
}

type spatialIndexBuilderState int

const (
	// sibConsuming is the state in which the builder accumulates rows.
	sibConsuming spatialIndexBuilderState = iota
	// sibLent is the state in which the index was published and the builder
	// waits for every consumer to be done with it.
	sibLent
	// sibFinished is the terminal state.
	sibFinished
)

// spatialIndexBuilder is the operator consuming the build side. It owns the
// geoindex.Builder until Finish moves its contents into the published
// index.
type spatialIndexBuilder struct {
	factory *SpatialIndexBuilderFactory
	ctx     context.Context

	state    spatialIndexBuilderState
	builder  *geoindex.Builder
	acc      mon.BoundAccount
	released colexecop.Future
	// err is the first error returned to the driver.
	err    error
	closed bool

	stats execinfrapb.ComponentStats
}

var _ colexecop.Operator = &spatialIndexBuilder{}

func (b *spatialIndexBuilder) NeedsInput() bool {
	return b.state == sibConsuming
}

func (b *spatialIndexBuilder) AddInput(ctx context.Context, batch coldata.Batch) error {
	if b.state != sibConsuming {
		return errors.AssertionFailedf("spatial index builder does not need input")
	}
	if err := b.addBatch(batch); err != nil {
		b.err = err
		b.factory.indexFactory.fail(b.ctx, err)
		return err
	}
	return nil
}

func (b *spatialIndexBuilder) addBatch(batch coldata.Batch) error {
	n := batch.Length()
	if n == 0 {
		return nil
	}
	spec := &b.factory.spec
	start := time.Now()
	defer func() { b.stats.Exec.ExecTime.Add(time.Since(start)) }()
	b.stats.Inputs[0].NumTuples.Add(uint64(n))

	geoms := batch.ColVec(spec.GeometryColumn)
	var radii, partitions coldata.Vec
	if spec.RadiusColumn != execinfrapb.NoColumn {
		radii = batch.ColVec(spec.RadiusColumn)
	}
	if spec.PartitionColumn != execinfrapb.NoColumn {
		partitions = batch.ColVec(spec.PartitionColumn)
	}

	batchIdx := -1
	var kept, discarded int64
	for i := 0; i < n; i++ {
		partition := -1
		if partitions != nil {
			if partitions.Nulls().NullAt(i) {
				discarded++
				continue
			}
			partition = int(partitions.Int64()[i])
			if !b.isLocal(partition) {
				discarded++
				continue
			}
		}
		if geoms.Nulls().NullAt(i) {
			b.stats.Inputs[0].NumNulls.Add(1)
			continue
		}
		g, err := geo.ParseGeometryFromEWKB(geoms.Bytes()[i])
		if err != nil {
			return errors.Wrapf(err, "decoding build geometry")
		}
		if g.Empty() {
			continue
		}
		e := geoindex.Entry{Geometry: g, BBox: g.BoundingBox(), Row: i, Partition: partition}
		if radii != nil {
			if radii.Nulls().NullAt(i) {
				continue
			}
			r := radii.Float64()[i]
			if r < 0 {
				return pgerror.Newf(pgcode.InvalidParameterValue, "distance %g is negative", r)
			}
			e.Radius, e.HasRadius = r, true
			e.BBox = e.BBox.Expand(r)
		}
		if err := b.acc.Grow(b.ctx, e.MemoryUsage()); err != nil {
			return err
		}
		if batchIdx < 0 {
			batchIdx = b.builder.AddBatch(batch)
		}
		e.Batch = batchIdx
		b.builder.Add(e)
		kept++
	}
	b.factory.metrics.BuildRows.Inc(kept)
	b.factory.metrics.BuildRowsDiscarded.Inc(discarded)
	b.stats.Exec.MaxAllocatedMem.MaybeSetMax(uint64(b.acc.Used()))
	return nil
}

// isLocal returns whether partition p is built by this instance. Partition
// ids that are not leaves of the tree are never local.
func (b *spatialIndexBuilder) isLocal(p int) bool {
	if b.factory.localPartitions != nil {
		_, ok := b.factory.localPartitions[p]
		return ok
	}
	return b.factory.kdbTree.HasLeaf(p)
}

func (b *spatialIndexBuilder) GetOutput(context.Context) (coldata.Batch, error) {
	return nil, nil
}

// Finish publishes the index. The accumulated rows are moved, not copied,
// into it.
func (b *spatialIndexBuilder) Finish(ctx context.Context) error {
	if b.state != sibConsuming {
		return nil
	}
	f := b.factory
	idx := b.builder.Build()
	b.builder = nil
	index := &SpatialIndex{
		index:              idx,
		predicate:          f.predicate,
		filter:             f.filter,
		kdbTree:            f.kdbTree,
		localPartitions:    f.localPartitions,
		buildTypes:         f.spec.Types,
		buildOutputColumns: f.spec.OutputColumns,
	}
	released, err := f.indexFactory.lend(b.ctx, index)
	if err != nil {
		b.err = err
		return err
	}
	b.released = released
	b.state = sibLent
	f.metrics.IndexBuilds.Inc(1)
	f.metrics.IndexBytes.Inc(b.acc.Used())
	b.stats.Spatial.IndexedRows.Set(uint64(idx.Len()))
	log.VEventf(b.ctx, 1, "built spatial index over %d rows (%s)", idx.Len(), idx.Bounds())
	return nil
}

func (b *spatialIndexBuilder) IsFinished() bool {
	if b.state == sibLent && colexecop.IsDone(b.released) {
		b.releaseMemory()
		b.state = sibFinished
	}
	return b.state == sibFinished
}

func (b *spatialIndexBuilder) IsBlocked() colexecop.Future {
	if b.state == sibLent && !colexecop.IsDone(b.released) {
		return b.released
	}
	return colexecop.NotBlocked
}

func (b *spatialIndexBuilder) releaseMemory() {
	if b.state == sibLent {
		b.factory.metrics.IndexBytes.Dec(b.acc.Used())
	}
	b.acc.Close(b.ctx)
}

// Close fails the consumers of the index if it was never published.
func (b *spatialIndexBuilder) Close(context.Context) error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.state == sibConsuming {
		err := b.err
		if err == nil {
			err = errBuildAborted
		}
		b.factory.indexFactory.fail(b.ctx, err)
		b.factory.metrics.IndexBuildFailures.Inc(1)
		b.builder = nil
	}
	if b.state != sibFinished {
		b.releaseMemory()
		b.state = sibFinished
	}
	return nil
}

// Stats returns the statistics collected so far.
func (b *spatialIndexBuilder) Stats() *execinfrapb.ComponentStats {
	return &b.stats
}
