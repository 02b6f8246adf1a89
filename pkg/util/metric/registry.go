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
	"reflect"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/util/syncutil"
)

// A Registry is a list of metrics. It provides a simple way of iterating
// over them and exporting them.
type Registry struct {
	mu struct {
		syncutil.Mutex
		tracked map[string]Iterable
	}
}

// NewRegistry creates a new Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.mu.tracked = make(map[string]Iterable)
	return r
}

// AddMetric adds the passed-in metric to the registry. A metric with the
// same name replaces the previous one.
func (r *Registry) AddMetric(metric Iterable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mu.tracked[metric.GetName()] = metric
}

// AddMetricStruct examines all fields of metricStruct and adds all Iterable
// implementations to the registry.
func (r *Registry) AddMetricStruct(metricStruct interface{}) {
	v := reflect.ValueOf(metricStruct)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		panic(errors.AssertionFailedf("expected struct, got %s", v.Kind()))
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		vfield, tfield := v.Field(i), t.Field(i)
		if !vfield.CanInterface() {
			continue
		}
		if vfield.Kind() == reflect.Ptr && vfield.IsNil() {
			continue
		}
		if m, ok := vfield.Interface().(Iterable); ok {
			r.AddMetric(m)
		} else if tfield.Type.Kind() == reflect.Struct {
			r.AddMetricStruct(vfield.Interface())
		}
	}
}

// Each calls the given closure for all metrics, ordered by name.
func (r *Registry) Each(f func(name string, val interface{})) {
	r.mu.Lock()
	names := make([]string, 0, len(r.mu.tracked))
	metrics := make(map[string]Iterable, len(r.mu.tracked))
	for name, m := range r.mu.tracked {
		names = append(names, name)
		metrics[name] = m
	}
	r.mu.Unlock()
	sort.Strings(names)
	for _, name := range names {
		f(name, metrics[name])
	}
}

// Contains returns whether a metric with the given name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.mu.tracked[name]
	return ok
}
