// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package colexecop defines the contract between a driver and the operators
// of its pipeline.
//
// Operators are push based and never block the goroutine: the driver moves
// batches between adjacent operators with AddInput and GetOutput, and an
// operator that cannot make progress says so by returning an unresolved
// Future from IsBlocked.
package colexecop

import (
	"context"

	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/sql/execinfrapb"
)

// Operator is a single step of a pipeline.
type Operator interface {
	// NeedsInput returns whether the operator can accept a batch with
	// AddInput right now.
	NeedsInput() bool
	// AddInput hands the operator a batch. It must only be called when
	// NeedsInput returned true.
	AddInput(ctx context.Context, batch coldata.Batch) error
	// GetOutput returns the next output batch, or nil if none is available
	// yet. It must never block.
	GetOutput(ctx context.Context) (coldata.Batch, error)
	// Finish notifies the operator that no more input will be added.
	Finish(ctx context.Context) error
	// IsFinished returns whether the operator will produce no more output.
	IsFinished() bool
	// IsBlocked returns NotBlocked, or a future which resolves once the
	// operator may be able to make progress again.
	IsBlocked() Future

	Closer
}

// Closer is an object that releases resources when Close is called. Close
// must be idempotent.
type Closer interface {
	Close(ctx context.Context) error
}

// Closers is a slice of Closers.
type Closers []Closer

// Close closes all Closers and returns the first error.
func (c Closers) Close(ctx context.Context) error {
	var retErr error
	for _, closer := range c {
		if err := closer.Close(ctx); err != nil && retErr == nil {
			retErr = err
		}
	}
	return retErr
}

// OperatorFactory creates the operators of one pipeline step, one per
// driver.
type OperatorFactory interface {
	// CreateOperator creates an operator for the driver described by dctx.
	CreateOperator(ctx context.Context, dctx *DriverContext) (Operator, error)
	// Duplicate returns an independent handle creating the same kind of
	// operators. It fails once the family this factory belongs to has
	// created any operator.
	Duplicate() (OperatorFactory, error)
	// NoMoreOperators declares that this handle will create no more
	// operators. It is idempotent.
	NoMoreOperators(ctx context.Context)
}

// NonExplainable is a marker interface which identifies an Operator that
// should be omitted from the output of EXPLAIN unless verbose output is
// requested.
type NonExplainable interface {
	nonExplainableMarker()
}

// StatsCollector is implemented by operators collecting execution
// statistics.
type StatsCollector interface {
	Stats() *execinfrapb.ComponentStats
}
