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
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/simpligility/trino/pkg/col/coldata"
	"github.com/simpligility/trino/pkg/col/coltypes"
	"github.com/simpligility/trino/pkg/geo"
	"github.com/simpligility/trino/pkg/geo/geopb"
	"github.com/simpligility/trino/pkg/sql/execinfrapb"
)

// csvRelation is a CSV file decoded into batches. The geometry column
// holds WKT or EWKT text and the optional radius column numbers. Both
// read an empty field as NULL. Every other column is kept as bytes.
type csvRelation struct {
	names     []string
	types     []coltypes.T
	geomCol   int
	radiusCol int
	batches   []coldata.Batch
	numRows   int

	// extent covers every geometry of the relation, each grown by its
	// radius.
	extent geopb.BoundingBox
	// sample holds the bounding boxes of the first sampleSize located
	// geometries.
	sample     []geopb.BoundingBox
	sampleSize int
}

// readCSVFile decodes the CSV file at path, "-" meaning stdin. Files
// ending in .gz are decompressed.
func readCSVFile(
	path, geomName, radiusName string, sampleSize int,
) (*csvRelation, error) {
	if path == "-" {
		return readCSVRelation(os.Stdin, geomName, radiusName, sampleSize)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var in io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		defer gz.Close()
		in = gz
	}
	r, err := readCSVRelation(in, geomName, radiusName, sampleSize)
	return r, errors.Wrapf(err, "reading %s", path)
}

// readCSVRelation decodes r, whose first record names the columns.
// radiusName may be empty. At most sampleSize bounding boxes are sampled.
func readCSVRelation(
	r io.Reader, geomName, radiusName string, sampleSize int,
) (*csvRelation, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("missing header line")
	}
	if err != nil {
		return nil, err
	}
	rel := &csvRelation{
		names:      append([]string(nil), header...),
		types:      make([]coltypes.T, len(header)),
		geomCol:    -1,
		radiusCol:  execinfrapb.NoColumn,
		extent:     *geopb.NewBoundingBox(),
		sampleSize: sampleSize,
	}
	for i, name := range rel.names {
		switch name {
		case geomName:
			rel.types[i] = coltypes.Geometry
			rel.geomCol = i
		case radiusName:
			rel.types[i] = coltypes.Float64
			rel.radiusCol = i
		default:
			rel.types[i] = coltypes.Bytes
		}
	}
	if rel.geomCol == -1 {
		return nil, errors.Newf("geometry column %q not found in %v", geomName, rel.names)
	}
	if radiusName != "" && rel.radiusCol == execinfrapb.NoColumn {
		return nil, errors.Newf("radius column %q not found in %v", radiusName, rel.names)
	}

	batchSize := coldata.BatchSize()
	b := coldata.NewBatchBuilder(rel.types, batchSize)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := rel.appendRecord(b, record); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		rel.numRows++
		if b.Length() == batchSize {
			rel.batches = append(rel.batches, b.Build())
		}
	}
	if !b.IsEmpty() {
		rel.batches = append(rel.batches, b.Build())
	}
	return rel, nil
}

func (rel *csvRelation) appendRecord(b *coldata.BatchBuilder, record []string) error {
	var bbox geopb.BoundingBox
	located := false
	radius := 0.0
	for i, field := range record {
		switch rel.types[i] {
		case coltypes.Geometry:
			if field == "" {
				b.AppendNull(i)
				continue
			}
			g, err := geo.ParseGeometry(field)
			if err != nil {
				return errors.Wrapf(err, "column %s", rel.names[i])
			}
			if err := b.AppendDatum(i, []byte(g.EWKB())); err != nil {
				return err
			}
			bbox, located = g.BoundingBox(), !g.Empty()
		case coltypes.Float64:
			if field == "" {
				b.AppendNull(i)
				continue
			}
			f, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return errors.Wrapf(err, "column %s", rel.names[i])
			}
			if err := b.AppendDatum(i, f); err != nil {
				return err
			}
			radius = math.Max(f, 0)
		default:
			if err := b.AppendDatum(i, field); err != nil {
				return err
			}
		}
	}
	b.FinishRow()
	if located {
		bbox = bbox.Expand(radius)
		rel.extent = rel.extent.Union(bbox)
		if len(rel.sample) < rel.sampleSize {
			rel.sample = append(rel.sample, bbox)
		}
	}
	return nil
}
