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

	"github.com/cockroachdb/errors"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/geo/geopartition"
	"github.com/simpligility/trino/pkg/sql/colexecop"
	"github.com/simpligility/trino/pkg/sql/execinfrapb"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgcode"
	"github.com/simpligility/trino/pkg/sql/pgwire/pgerror"
)

// SpatialPartitionerOp routes rows to the partitions of a KdbTree. It
// appends an Int64 partition column to its input and emits every row once
// per partition its bounding box overlaps, the box being grown by the
// row's radius if a radius column is given. Rows whose geometry is NULL or
// empty are emitted once with a NULL partition.
type SpatialPartitionerOp struct {
	tree      *geopartition.KdbTree
	geomCol   int
	radiusCol int

	finished bool
	input    coldata.Batch
	// row is the next input row to route.
	row int
	out *coldata.BatchBuilder
}

var _ colexecop.Operator = &SpatialPartitionerOp{}

// NewSpatialPartitionerOp returns a partitioner for input rows of the given
// types. radiusCol may be execinfrapb.NoColumn.
func NewSpatialPartitionerOp(
	typs []coltypes.T, geomCol, radiusCol int, tree *geopartition.KdbTree,
) (*SpatialPartitionerOp, error) {
	if geomCol < 0 || geomCol >= len(typs) || typs[geomCol] != coltypes.Geometry {
		return nil, pgerror.Newf(pgcode.InvalidParameterValue, "column %d is not a geometry column", geomCol)
	}
	if radiusCol != execinfrapb.NoColumn &&
		(radiusCol < 0 || radiusCol >= len(typs) || typs[radiusCol] != coltypes.Float64) {
		return nil, pgerror.Newf(pgcode.InvalidParameterValue, "column %d is not a float64 column", radiusCol)
	}
	outTypes := make([]coltypes.T, len(typs)+1)
	copy(outTypes, typs)
	outTypes[len(typs)] = coltypes.Int64
	return &SpatialPartitionerOp{
		tree:      tree,
		geomCol:   geomCol,
		radiusCol: radiusCol,
		out:       coldata.NewBatchBuilder(outTypes, coldata.BatchSize()),
	}, nil
}

// OutputTypes returns the input types followed by the partition column.
func (p *SpatialPartitionerOp) OutputTypes() []coltypes.T {
	return p.out.Types()
}

// NeedsInput implements the colexecop.Operator interface.
func (p *SpatialPartitionerOp) NeedsInput() bool {
	return !p.finished && p.input == nil
}

// AddInput implements the colexecop.Operator interface.
func (p *SpatialPartitionerOp) AddInput(_ context.Context, batch coldata.Batch) error {
	if !p.NeedsInput() {
		return errors.AssertionFailedf("spatial partitioner does not need input")
	}
	if batch.Length() > 0 {
		p.input, p.row = batch, 0
	}
	return nil
}

// GetOutput implements the colexecop.Operator interface.
func (p *SpatialPartitionerOp) GetOutput(context.Context) (coldata.Batch, error) {
	if p.input != nil {
		if err := p.route(); err != nil {
			return nil, err
		}
	}
	if p.out.IsEmpty() {
		return nil, nil
	}
	return p.out.Build(), nil
}

// route appends the replicas of the pending input rows until the output
// batch is full. The replicas of a row are never split across batches.
func (p *SpatialPartitionerOp) route() error {
	geoms := p.input.ColVec(p.geomCol)
	partCol := p.input.Width()
	for ; p.row < p.input.Length(); p.row++ {
		var partitions []int
		if !geoms.Nulls().NullAt(p.row) {
			g, err := geo.ParseGeometryFromEWKB(geoms.Bytes()[p.row])
			if err != nil {
				return errors.Wrapf(err, "decoding geometry")
			}
			bbox := g.BoundingBox()
			if p.radiusCol != execinfrapb.NoColumn {
				radii := p.input.ColVec(p.radiusCol)
				if !radii.Nulls().NullAt(p.row) {
					bbox = bbox.Expand(radii.Float64()[p.row])
				}
			}
			partitions = p.tree.FindIntersectingLeaves(bbox)
		}
		n := len(partitions)
		if n == 0 {
			n = 1
		}
		if p.out.Length()+n > coldata.BatchSize() && !p.out.IsEmpty() {
			return nil
		}
		for i := 0; i < n; i++ {
			for c := 0; c < partCol; c++ {
				p.out.AppendFrom(c, p.input.ColVec(c), p.row)
			}
			if len(partitions) == 0 {
				p.out.AppendNull(partCol)
			} else if err := p.out.AppendDatum(partCol, int64(partitions[i])); err != nil {
				return err
			}
			p.out.FinishRow()
		}
	}
	p.input = nil
	return nil
}

// Finish implements the colexecop.Operator interface.
func (p *SpatialPartitionerOp) Finish(context.Context) error {
	p.finished = true
	return nil
}

// IsFinished implements the colexecop.Operator interface.
func (p *SpatialPartitionerOp) IsFinished() bool {
	return p.finished && p.input == nil && p.out.IsEmpty()
}

// IsBlocked implements the colexecop.Operator interface.
func (p *SpatialPartitionerOp) IsBlocked() colexecop.Future {
	return colexecop.NotBlocked
}

// Close implements the colexecop.Operator interface.
func (p *SpatialPartitionerOp) Close(context.Context) error {
	p.input = nil
	return nil
}
