// Copyright 2016 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package syncutil

// Set is a set of values that is safe for concurrent use. The zero value is
// an empty set ready to use.
type Set[V comparable] struct {
	mu struct {
		RWMutex
		m map[V]struct{}
	}
}

// Add adds v to the set. It returns false if v was already present.
func (s *Set[V]) Add(v V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mu.m[v]; ok {
		return false
	}
	if s.mu.m == nil {
		s.mu.m = make(map[V]struct{})
	}
	s.mu.m[v] = struct{}{}
	return true
}

// Remove removes v from the set. It returns false if v was not present.
func (s *Set[V]) Remove(v V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mu.m[v]; !ok {
		return false
	}
	delete(s.mu.m, v)
	return true
}

// Contains returns whether v is in the set.
func (s *Set[V]) Contains(v V) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.mu.m[v]
	return ok
}

// Len returns the number of values in the set.
func (s *Set[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mu.m)
}

// Range calls f for each value in unspecified order until f returns false.
// f must not modify the set.
func (s *Set[V]) Range(f func(v V) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for v := range s.mu.m {
		if !f(v) {
			return
		}
	}
}
