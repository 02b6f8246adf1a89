// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package execinfrapb

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// OptionalUint is a uint64 that may be unset.
type OptionalUint struct {
	value uint64
	set   bool
}

// HasValue returns whether the value was ever set.
func (o OptionalUint) HasValue() bool { return o.set }

// Value returns the value, or 0 if unset.
func (o OptionalUint) Value() uint64 { return o.value }

// Set sets the value.
func (o *OptionalUint) Set(v uint64) { o.value, o.set = v, true }

// Add adds to the value, setting it if necessary.
func (o *OptionalUint) Add(d uint64) { o.value, o.set = o.value+d, true }

// MaybeSetMax sets the value to v if it is unset or smaller.
func (o *OptionalUint) MaybeSetMax(v uint64) {
	if !o.set || v > o.value {
		o.Set(v)
	}
}

// OptionalDuration is a time.Duration that may be unset.
type OptionalDuration struct {
	value time.Duration
	set   bool
}

// HasValue returns whether the value was ever set.
func (o OptionalDuration) HasValue() bool { return o.set }

// Value returns the value, or 0 if unset.
func (o OptionalDuration) Value() time.Duration { return o.value }

// Set sets the value.
func (o *OptionalDuration) Set(v time.Duration) { o.value, o.set = v, true }

// Add adds to the value, setting it if necessary.
func (o *OptionalDuration) Add(d time.Duration) { o.value, o.set = o.value+d, true }

// InputStats are the stats collected on an operator input.
type InputStats struct {
	NumTuples OptionalUint
	NumNulls  OptionalUint
}

// ExecStats are the stats collected on an operator's own execution.
type ExecStats struct {
	ExecTime        OptionalDuration
	MaxAllocatedMem OptionalUint
}

// SpatialStats are the stats specific to spatial join operators.
type SpatialStats struct {
	IndexedRows          OptionalUint
	Candidates           OptionalUint
	PredicateEvaluations OptionalUint
	Matches              OptionalUint
	DuplicatesSkipped    OptionalUint
	Yields               OptionalUint
}

// OutputStats are the stats collected on an operator output.
type OutputStats struct {
	NumBatches OptionalUint
	NumTuples  OptionalUint
}

// ComponentStats are the stats reported by one operator instance.
type ComponentStats struct {
	// Component names the operator, e.g. "spatial joiner".
	Component string
	// Inputs holds one entry for single-input operators, and the build and
	// probe sides, in that order, for joins.
	Inputs  []InputStats
	Exec    ExecStats
	Spatial SpatialStats
	Output  OutputStats
}

// Stats returns the set statistics as a map, keyed by lowercase dotted names.
func (s *ComponentStats) Stats() map[string]string {
	result := make(map[string]string, 4)
	s.formatStats(func(key string, value interface{}) {
		// Replace spaces with dots and use only lowercase characters.
		key = strings.ToLower(strings.ReplaceAll(key, " ", "."))
		result[key] = fmt.Sprint(value)
	})
	return result
}

// StatsForQueryPlan returns the set statistics in EXPLAIN ANALYZE form.
func (s *ComponentStats) StatsForQueryPlan() []string {
	result := make([]string, 0, 4)
	s.formatStats(func(key string, value interface{}) {
		result = append(result, fmt.Sprintf("%s: %v", key, value))
	})
	return result
}

// formatStats calls fn for each statistic that is set.
func (s *ComponentStats) formatStats(fn func(suffix string, value interface{})) {
	// Input stats.
	switch len(s.Inputs) {
	case 1:
		if s.Inputs[0].NumTuples.HasValue() {
			fn("input tuples", s.Inputs[0].NumTuples.Value())
		}
		if s.Inputs[0].NumNulls.HasValue() {
			fn("input nulls", s.Inputs[0].NumNulls.Value())
		}

	case 2:
		if s.Inputs[0].NumTuples.HasValue() {
			fn("build tuples", s.Inputs[0].NumTuples.Value())
		}
		if s.Inputs[0].NumNulls.HasValue() {
			fn("build nulls", s.Inputs[0].NumNulls.Value())
		}
		if s.Inputs[1].NumTuples.HasValue() {
			fn("probe tuples", s.Inputs[1].NumTuples.Value())
		}
		if s.Inputs[1].NumNulls.HasValue() {
			fn("probe nulls", s.Inputs[1].NumNulls.Value())
		}
	}

	// Spatial stats.
	if s.Spatial.IndexedRows.HasValue() {
		fn("indexed rows", s.Spatial.IndexedRows.Value())
	}
	if s.Spatial.Candidates.HasValue() {
		fn("candidates", s.Spatial.Candidates.Value())
	}
	if s.Spatial.PredicateEvaluations.HasValue() {
		fn("predicate evaluations", s.Spatial.PredicateEvaluations.Value())
	}
	if s.Spatial.Matches.HasValue() {
		fn("matches", s.Spatial.Matches.Value())
	}
	if s.Spatial.DuplicatesSkipped.HasValue() {
		fn("duplicates skipped", s.Spatial.DuplicatesSkipped.Value())
	}
	if s.Spatial.Yields.HasValue() {
		fn("yields", s.Spatial.Yields.Value())
	}

	// Exec stats.
	if s.Exec.ExecTime.HasValue() {
		fn("execution time", s.Exec.ExecTime.Value().Round(time.Microsecond))
	}
	if s.Exec.MaxAllocatedMem.HasValue() {
		fn("max memory allocated", humanize.IBytes(s.Exec.MaxAllocatedMem.Value()))
	}

	// Output stats.
	if s.Output.NumBatches.HasValue() {
		fn("batches output", s.Output.NumBatches.Value())
	}
	if s.Output.NumTuples.HasValue() {
		fn("tuples output", s.Output.NumTuples.Value())
	}
}

// MakeDeterministic is used only for testing; it modifies any non-deterministic
// statistics like elapsed time or exact number of bytes to fixed or
// manufactured values.
//
// Note that it does not modify which fields that are set.
func (s *ComponentStats) MakeDeterministic() {
	if s.Exec.ExecTime.HasValue() {
		s.Exec.ExecTime.Set(0)
	}
	if s.Exec.MaxAllocatedMem.HasValue() {
		s.Exec.MaxAllocatedMem.Set(0)
	}
	if s.Output.NumBatches.HasValue() {
		s.Output.NumBatches.Set(0)
	}
	if s.Spatial.Yields.HasValue() {
		s.Spatial.Yields.Set(0)
	}
}
