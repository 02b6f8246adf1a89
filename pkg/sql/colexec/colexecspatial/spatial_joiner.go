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
	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/geo/geopb"
	"github.com/simpligility/trino/pkg/sql/colexecop"
	"github.com/simpligility/trino/pkg/sql/execinfrapb"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
	"github.com/simpligility/trino/pkg/util/admission"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/simpligility/trino/pkg/util/syncutil"
)

// SpatialJoinerFactory creates the probe operators of a spatial join. All
// the operators created by a factory and its duplicates share the index
// published by one SpatialIndexFactory.
type SpatialJoinerFactory struct {
	spec         execinfrapb.SpatialJoinerSpec
	indexFactory *SpatialIndexFactory
	outputTypes  []coltypes.T
	metrics      *Metrics
	family       *joinerFamily

	mu struct {
		syncutil.Mutex
		closed bool
	}
}

// joinerFamily is the state shared by a factory and its duplicates.
type joinerFamily struct {
	// created is set once any operator was created by the family.
	created syncutil.AtomicBool
}

var _ colexecop.OperatorFactory = &SpatialJoinerFactory{}

// NewSpatialJoinerFactory returns the factory of probe operators consuming
// the index of indexFactory. The factory counts as a consumer of the index
// until NoMoreOperators is called.
func NewSpatialJoinerFactory(
	spec execinfrapb.SpatialJoinerSpec, indexFactory *SpatialIndexFactory, metrics *Metrics,
) (*SpatialJoinerFactory, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	probePartitioned := spec.PartitionColumn != execinfrapb.NoColumn
	if probePartitioned != indexFactory.partitioned {
		return nil, pgerror.Newf(pgcode.InvalidParameterValue,
			"build and probe sides must both be spatially partitioned or both not be")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	f := &SpatialJoinerFactory{
		spec:         spec,
		indexFactory: indexFactory,
		metrics:      metrics,
		family:       &joinerFamily{},
	}
	for _, c := range spec.OutputColumns {
		f.outputTypes = append(f.outputTypes, spec.Types[c])
	}
	for _, c := range indexFactory.buildOutputColumns {
		f.outputTypes = append(f.outputTypes, indexFactory.buildTypes[c])
	}
	return f, nil
}

// OutputTypes returns the types of the rows produced by the operators:
// the probe output columns followed by the build output columns.
func (f *SpatialJoinerFactory) OutputTypes() []coltypes.T {
	return f.outputTypes
}

// CreateOperator implements the colexecop.OperatorFactory interface.
func (f *SpatialJoinerFactory) CreateOperator(
	ctx context.Context, dctx *colexecop.DriverContext,
) (colexecop.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mu.closed {
		return nil, errors.AssertionFailedf("spatial joiner factory is closed")
	}
	f.family.created.Set(true)
	f.indexFactory.retain()
	f.metrics.ActiveProbes.Inc(1)
	s := &spatialJoiner{
		spec:         &f.spec,
		indexFactory: f.indexFactory,
		metrics:      f.metrics,
		ctx:          logtags.AddTag(dctx.AnnotateCtx(ctx), "spatialjoiner", nil),
		out:          coldata.NewBatchBuilder(f.outputTypes, coldata.BatchSize()),
	}
	s.stats.Component = "spatial joiner"
	s.stats.Inputs = make([]execinfrapb.InputStats, 1)
	return s, nil
}

// Duplicate implements the colexecop.OperatorFactory interface. The
// duplicate registers as an additional consumer of the index.
func (f *SpatialJoinerFactory) Duplicate() (colexecop.OperatorFactory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mu.closed {
		return nil, errors.AssertionFailedf("cannot duplicate a closed spatial joiner factory")
	}
	if f.family.created.Get() {
		return nil, errors.AssertionFailedf("cannot duplicate a spatial joiner factory after operators were created")
	}
	f.indexFactory.retain()
	d := &SpatialJoinerFactory{
		spec:         f.spec,
		indexFactory: f.indexFactory,
		outputTypes:  f.outputTypes,
		metrics:      f.metrics,
		family:       f.family,
	}
	return d, nil
}

// NoMoreOperators implements the colexecop.OperatorFactory interface.
func (f *SpatialJoinerFactory) NoMoreOperators(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mu.closed {
		return
	}
	f.mu.closed = true
	f.indexFactory.release(ctx)
}

type spatialJoinerState int

const (
	// sjNeedsInput is the state in which the joiner has no probe batch.
	sjNeedsInput spatialJoinerState = iota
	// sjProbing is the state in which a probe batch is being joined.
	sjProbing
	// sjFinished is the terminal state.
	sjFinished
)

// spatialJoiner is the probe side of a spatial join. For every probe row it
// looks up the candidates of the shared index, evaluates the predicate and
// the filter on each of them, and emits one row per match, or one
// NULL-padded row for unmatched rows of LEFT OUTER joins.
//
// The joiner checks the yield signal carried by the context of GetOutput
// after each evaluated candidate. When it has to yield it returns no output; the cursor below
// lets the next call resume with the very next candidate of the same probe
// row.
type spatialJoiner struct {
	spec         *execinfrapb.SpatialJoinerSpec
	indexFactory *SpatialIndexFactory
	metrics      *Metrics
	ctx          context.Context

	state     spatialJoinerState
	finishing bool
	closed    bool
	// index is nil until the index future is resolved and fetched.
	index *SpatialIndex

	// probe is the probe batch in progress.
	probe coldata.Batch
	// cursor is the position of the joiner in probe.
	cursor struct {
		// row is the probe row in progress.
		row int
		// started is set once the candidates of row were looked up.
		started bool
		// geom, bbox and partition describe the probe row.
		geom      geo.Geometry
		bbox      geopb.BoundingBox
		partition int
		// candidates are the entry ids to evaluate for row; next is the
		// position of the first candidate not evaluated yet.
		candidates []int
		next       int
		// matched is set once row produced a match.
		matched bool
		// emitUnmatched is set if this instance emits the NULL-padded row
		// of row when it does not match.
		emitUnmatched bool
	}

	out   *coldata.BatchBuilder
	stats execinfrapb.ComponentStats
}

var _ colexecop.Operator = &spatialJoiner{}

// ensureIndex fetches the index once its future is resolved. It returns
// false if the index is not built yet.
func (s *spatialJoiner) ensureIndex() (bool, error) {
	if s.index != nil {
		return true, nil
	}
	if !colexecop.IsDone(s.indexFactory.CreatePagesSpatialIndex()) {
		return false, nil
	}
	index, err := s.indexFactory.Get()
	if err != nil {
		return false, err
	}
	s.index = index
	return true, nil
}

func (s *spatialJoiner) NeedsInput() bool {
	return s.state == sjNeedsInput && !s.finishing &&
		colexecop.IsDone(s.indexFactory.CreatePagesSpatialIndex())
}

func (s *spatialJoiner) AddInput(ctx context.Context, batch coldata.Batch) error {
	if s.state != sjNeedsInput || s.finishing {
		return errors.AssertionFailedf("spatial joiner does not need input")
	}
	if ok, err := s.ensureIndex(); err != nil {
		return err
	} else if !ok {
		return errors.AssertionFailedf("spatial joiner received input before the index was built")
	}
	if batch.Length() == 0 {
		return nil
	}
	s.stats.Inputs[0].NumTuples.Add(uint64(batch.Length()))
	s.metrics.ProbeRows.Inc(int64(batch.Length()))
	s.probe = batch
	s.cursor.row = 0
	s.cursor.started = false
	s.state = sjProbing
	return nil
}

// GetOutput returns a batch once it is full or once the probe batch in
// progress is exhausted. It returns nil whenever it had to yield.
func (s *spatialJoiner) GetOutput(ctx context.Context) (coldata.Batch, error) {
	if s.state == sjFinished {
		return nil, nil
	}
	// A failed build is reported even if no probe input arrives.
	if _, err := s.ensureIndex(); err != nil {
		return nil, err
	}
	if s.state == sjProbing {
		start := time.Now()
		yielded, err := s.processProbe(admission.YieldSignalFromContext(ctx))
		s.stats.Exec.ExecTime.Add(time.Since(start))
		if err != nil {
			return nil, err
		}
		if yielded {
			s.stats.Spatial.Yields.Add(1)
			s.metrics.Yields.Inc(1)
			return nil, nil
		}
		if s.state == sjProbing {
			// The output batch is full.
			return s.flush(), nil
		}
	}
	if !s.out.IsEmpty() {
		return s.flush(), nil
	}
	if s.finishing {
		s.state = sjFinished
	}
	return nil, nil
}

func (s *spatialJoiner) flush() coldata.Batch {
	b := s.out.Build()
	s.stats.Output.NumBatches.Add(1)
	s.stats.Output.NumTuples.Add(uint64(b.Length()))
	s.metrics.OutputRows.Inc(int64(b.Length()))
	return b
}

// processProbe advances the cursor until the probe batch is exhausted, the
// output batch is full, or the driver asks to yield. On exhaustion the
// state moves back to sjNeedsInput.
func (s *spatialJoiner) processProbe(yield *admission.YieldSignal) (yielded bool, err error) {
	batchSize := coldata.BatchSize()
	n := s.probe.Length()
	c := &s.cursor
	for c.row < n {
		if !c.started {
			if err := s.startRow(); err != nil {
				return false, err
			}
		}
		for c.next < len(c.candidates) {
			if s.out.Length() >= batchSize {
				return false, nil
			}
			e := s.index.index.Entry(c.candidates[c.next])
			c.next++
			if !s.index.eligible(e, c.bbox, c.partition) {
				s.stats.Spatial.DuplicatesSkipped.Add(1)
				continue
			}
			s.stats.Spatial.PredicateEvaluations.Add(1)
			ok, err := s.index.matches(e, c.geom)
			if err != nil {
				return false, err
			}
			if ok {
				ok, err = s.index.passesFilter(e, c.row, s.probe)
				if err != nil {
					return false, err
				}
			}
			if ok {
				c.matched = true
				s.stats.Spatial.Matches.Add(1)
				s.appendProbeColumns(c.row)
				s.index.appendBuildColumns(s.out, len(s.spec.OutputColumns), e)
				s.out.FinishRow()
			}
			if yield.IsSet() {
				return true, nil
			}
		}
		if !c.matched && c.emitUnmatched {
			if s.out.Length() >= batchSize {
				return false, nil
			}
			s.appendProbeColumns(c.row)
			s.index.appendNullBuildColumns(s.out, len(s.spec.OutputColumns))
			s.out.FinishRow()
		}
		c.row++
		c.started = false
	}
	s.probe = nil
	s.state = sjNeedsInput
	return false, nil
}

// startRow looks up the candidates of the probe row under the cursor and
// decides whether this instance owns the row's NULL-padded output.
func (s *spatialJoiner) startRow() error {
	c := &s.cursor
	c.started = true
	c.matched = false
	c.emitUnmatched = false
	c.candidates = c.candidates[:0]
	c.next = 0
	c.partition = -1

	leftOuter := s.spec.Type == execinfrapb.LeftOuterJoin
	geoms := s.probe.ColVec(s.spec.GeometryColumn)
	located := false
	if geoms.Nulls().NullAt(c.row) {
		s.stats.Inputs[0].NumNulls.Add(1)
	} else {
		g, err := geo.ParseGeometryFromEWKB(geoms.Bytes()[c.row])
		if err != nil {
			return errors.Wrapf(err, "decoding probe geometry")
		}
		c.geom = g
		c.bbox = g.BoundingBox()
		located = !g.Empty()
	}

	if !s.index.Partitioned() {
		if located {
			c.candidates = s.index.candidates(c.bbox, c.candidates)
			s.stats.Spatial.Candidates.Add(uint64(len(c.candidates)))
		}
		c.emitUnmatched = leftOuter
		return nil
	}

	tree := s.index.KdbTree()
	partitions := s.probe.ColVec(s.spec.PartitionColumn)
	if !partitions.Nulls().NullAt(c.row) {
		c.partition = int(partitions.Int64()[c.row])
	}
	if !located {
		// Rows that cannot be located in space are owned by the default
		// partition.
		owner := tree.DefaultPartition()
		c.emitUnmatched = leftOuter && s.index.isLocal(owner) &&
			(c.partition == -1 || c.partition == owner)
		return nil
	}
	if c.partition == -1 {
		return pgerror.Newf(pgcode.DataException, "probe geometry %s has no spatial partition", c.geom.ShapeType())
	}
	if !s.index.isLocal(c.partition) {
		return nil
	}
	if leftOuter {
		// An unmatched row is emitted by the partition holding its point.
		// Other geometries are replicated to every partition they overlap,
		// none of which can tell whether another one found a match.
		if !c.geom.IsPoint() {
			return pgerror.Newf(pgcode.FeatureNotSupported,
				"spatially partitioned LEFT JOIN requires point probe geometries, found %s", c.geom.ShapeType())
		}
		c.emitUnmatched = tree.PartitionForPoint(c.bbox.MinX, c.bbox.MinY) == c.partition
	}
	c.candidates = s.index.candidates(c.bbox, c.candidates)
	s.stats.Spatial.Candidates.Add(uint64(len(c.candidates)))
	return nil
}

func (s *spatialJoiner) appendProbeColumns(row int) {
	for i, col := range s.spec.OutputColumns {
		s.out.AppendFrom(i, s.probe.ColVec(col), row)
	}
}

func (s *spatialJoiner) Finish(ctx context.Context) error {
	if !s.finishing {
		log.VEventf(s.ctx, 2, "probe side finished")
	}
	s.finishing = true
	return nil
}

func (s *spatialJoiner) IsFinished() bool {
	if s.state == sjNeedsInput && s.finishing && s.out.IsEmpty() {
		s.state = sjFinished
	}
	return s.state == sjFinished
}

func (s *spatialJoiner) IsBlocked() colexecop.Future {
	f := s.indexFactory.CreatePagesSpatialIndex()
	if s.state != sjFinished && !s.finishing && !colexecop.IsDone(f) {
		return f
	}
	return colexecop.NotBlocked
}

// Close releases the joiner's hold on the index.
func (s *spatialJoiner) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.state = sjFinished
	s.probe = nil
	s.index = nil
	s.metrics.ActiveProbes.Dec(1)
	s.indexFactory.release(s.ctx)
	return nil
}

// Stats returns the statistics collected so far.
func (s *spatialJoiner) Stats() *execinfrapb.ComponentStats {
	return &s.stats
}
