// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package colexecop

import (
	"context"
	"reflect"
	"sync"
)

// Future is a one-shot completion event that any number of waiters may
// observe.
type Future interface {
	// Done returns a channel that is closed once the future resolves.
	Done() <-chan struct{}
}

type resolvedFuture struct{}

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func (resolvedFuture) Done() <-chan struct{} { return closedCh }

// NotBlocked is the future returned by operators that can make progress.
var NotBlocked Future = resolvedFuture{}

// IsDone returns whether f has resolved.
func IsDone(f Future) bool {
	select {
	case <-f.Done():
		return true
	default:
		return false
	}
}

// Promise is a Future that is resolved explicitly. The zero value is not
// usable; use NewPromise.
type Promise struct {
	once sync.Once
	ch   chan struct{}
}

var _ Future = &Promise{}

// NewPromise returns an unresolved promise.
func NewPromise() *Promise {
	return &Promise{ch: make(chan struct{})}
}

// Resolve resolves the promise. Calls after the first are no-ops.
func (p *Promise) Resolve() {
	p.once.Do(func() { close(p.ch) })
}

// Done implements Future.
func (p *Promise) Done() <-chan struct{} {
	return p.ch
}

// AnyOf returns a future that resolves as soon as any of fs resolves, or
// when ctx is canceled. Waiting on more than one future takes a goroutine
// that only exits then, so callers that stop waiting must cancel ctx.
func AnyOf(ctx context.Context, fs ...Future) Future {
	switch len(fs) {
	case 0:
		return NotBlocked
	case 1:
		return fs[0]
	}
	for _, f := range fs {
		if IsDone(f) {
			return NotBlocked
		}
	}
	p := NewPromise()
	cases := make([]reflect.SelectCase, 0, len(fs)+1)
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
	for _, f := range fs {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(f.Done())})
	}
	go func() {
		reflect.Select(cases)
		p.Resolve()
	}()
	return p
}
