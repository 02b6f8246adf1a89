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
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/sql/colexecop"
	"github.com/simpligility/trino/pkg/util/log"
	"github.com/simpligility/trino/pkg/util/syncutil"
)

// errIndexReleased is returned to consumers asking for the index after
// every consumer declared it was done with it.
var errIndexReleased = errors.New("spatial index was already released")

// SpatialIndexFactory hands the index produced by a single build over to
// any number of probe operators.
//
// The index is published exactly once, either as a built index or as a
// build failure, and every consumer observes the same outcome. The factory
// counts its consumers: the probe operator factory it was created for, each
// of its duplicates, and each probe operator created by them. Once the
// count drops to zero the index is dropped and the builder, which is
// waiting on Released, may free its memory.
type SpatialIndexFactory struct {
	buildTypes         []coltypes.T
	buildOutputColumns []int
	partitioned        bool

	// consumers is the number of active consumers.
	consumers atomic.Int32

	published *colexecop.Promise
	released  *colexecop.Promise

	mu struct {
		syncutil.Mutex
		index *SpatialIndex
		err   error
		// done is set once the index was published.
		done bool
		// dropped is set once the index reference was dropped.
		dropped bool
	}
}

func newSpatialIndexFactory(
	buildTypes []coltypes.T, buildOutputColumns []int, partitioned bool,
) *SpatialIndexFactory {
	f := &SpatialIndexFactory{
		buildTypes:         buildTypes,
		buildOutputColumns: buildOutputColumns,
		partitioned:        partitioned,
		published:          colexecop.NewPromise(),
		released:           colexecop.NewPromise(),
	}
	// The probe operator factory the index is built for.
	f.consumers.Store(1)
	return f
}

// CreatePagesSpatialIndex returns a future resolved once the index was
// built or the build failed. Call Get once it is done.
func (f *SpatialIndexFactory) CreatePagesSpatialIndex() colexecop.Future {
	return f.published
}

// Get returns the published index, or the build failure. It must only be
// called once the future returned by CreatePagesSpatialIndex is done.
func (f *SpatialIndexFactory) Get() (*SpatialIndex, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.mu.done {
		return nil, errors.AssertionFailedf("spatial index is not built yet")
	}
	if f.mu.err != nil {
		return nil, f.mu.err
	}
	if f.mu.dropped {
		return nil, errIndexReleased
	}
	return f.mu.index, nil
}

// Released returns a future resolved once no consumer needs the index
// anymore.
func (f *SpatialIndexFactory) Released() colexecop.Future {
	return f.released
}

// lend publishes the built index and returns the Released future.
func (f *SpatialIndexFactory) lend(ctx context.Context, index *SpatialIndex) (colexecop.Future, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mu.done {
		return nil, errors.AssertionFailedf("spatial index was already published")
	}
	f.mu.done = true
	f.mu.index = index
	if f.consumers.Load() == 0 {
		// Every consumer went away while the index was being built.
		f.dropLocked(ctx)
	}
	f.published.Resolve()
	return f.released, nil
}

// fail publishes a build failure. Only the first outcome is kept; fail is a
// no-op once an index was published.
func (f *SpatialIndexFactory) fail(ctx context.Context, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mu.done {
		return
	}
	log.VEventf(ctx, 1, "spatial index build failed: %v", err)
	f.mu.done = true
	f.mu.err = err
	f.published.Resolve()
	f.released.Resolve()
}

// retain registers a consumer.
func (f *SpatialIndexFactory) retain() {
	if f.consumers.Add(1) <= 1 {
		panic(errors.AssertionFailedf("spatial index consumer registered after release"))
	}
}

// release unregisters a consumer. The last one drops the index.
func (f *SpatialIndexFactory) release(ctx context.Context) {
	n := f.consumers.Add(-1)
	if n < 0 {
		panic(errors.AssertionFailedf("spatial index released too many times"))
	}
	if n > 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mu.done {
		f.dropLocked(ctx)
	}
}

func (f *SpatialIndexFactory) dropLocked(ctx context.Context) {
	if f.mu.dropped {
		return
	}
	log.VEventf(ctx, 2, "spatial index released")
	f.mu.dropped = true
	f.mu.index = nil
	f.released.Resolve()
}
