// Copyright 2021 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package wkt parses the Well Known Text representation of geometries into
// go-geom shapes.
package wkt

import (
	"fmt"
	"strings"

	"github.com/twpayne/go-geom"
)

// Unmarshal parses a WKT string (without an SRID prefix) into a geom.T.
func Unmarshal(wkt string) (geom.T, error) {
	p := &wktParser{lex: makeWktLex(wkt)}
	p.advance()
	ret := p.geometry(geom.NoLayout)
	if p.lex.lastErr == nil && p.tok.kind != tokEOF {
		p.errorf("unexpected %s after geometry", p.tok.kind)
	}
	if p.lex.lastErr != nil {
		return nil, p.lex.lastErr
	}
	return ret, nil
}

// wktParser is a recursive descent parser on top of wktLex with a single
// token of lookahead. Errors are recorded on the lexer; once one is set every
// production returns early.
type wktParser struct {
	lex *wktLex
	tok token
}

func (p *wktParser) advance() {
	p.tok = p.lex.lex()
}

func (p *wktParser) failed() bool {
	return p.lex.lastErr != nil
}

func (p *wktParser) errorf(format string, args ...interface{}) {
	p.lex.setParseError(p.tok.pos, fmt.Sprintf(format, args...), "")
}

func (p *wktParser) expect(kind tokenKind) bool {
	if p.failed() {
		return false
	}
	if p.tok.kind != kind {
		p.errorf("expected %s, found %s", kind, p.tok.kind)
		return false
	}
	p.advance()
	return true
}

var baseTypes = []string{
	"GEOMETRYCOLLECTION",
	"MULTILINESTRING",
	"MULTIPOLYGON",
	"MULTIPOINT",
	"LINESTRING",
	"POLYGON",
	"POINT",
}

// splitKeyword separates a geometry keyword into its base type and the
// layout implied by its dimension suffix (geom.NoLayout if none).
func splitKeyword(kw string) (string, geom.Layout, bool) {
	for _, base := range baseTypes {
		if !strings.HasPrefix(kw, base) {
			continue
		}
		switch kw[len(base):] {
		case "":
			return base, geom.NoLayout, true
		case "Z":
			return base, geom.XYZ, true
		case "M":
			return base, geom.XYM, true
		case "ZM":
			return base, geom.XYZM, true
		}
	}
	return "", geom.NoLayout, false
}

func getDefaultLayoutForStride(stride int) (geom.Layout, bool) {
	switch stride {
	case 2:
		return geom.XY, true
	case 3:
		return geom.XYZ, true
	case 4:
		return geom.XYZM, true
	default:
		return geom.NoLayout, false
	}
}

// geometry parses one tagged geometry. outer is the layout of an enclosing
// collection, if any.
func (p *wktParser) geometry(outer geom.Layout) geom.T {
	if p.failed() {
		return nil
	}
	if p.tok.kind != tokKeyword {
		p.errorf("expected geometry type, found %s", p.tok.kind)
		return nil
	}
	base, layout, ok := splitKeyword(p.tok.str)
	if !ok {
		p.lex.setLexError("keyword")
		return nil
	}
	if layout == geom.NoLayout {
		layout = outer
	} else if outer != geom.NoLayout && layout != outer {
		p.errorf("mixed dimensionality, parsed layout is %s but encountered layout of %s",
			layoutName(outer), layoutName(layout))
		return nil
	}
	p.advance()

	empty := p.tok.kind == tokKeyword && p.tok.str == "EMPTY"
	if empty {
		p.advance()
		if layout == geom.NoLayout {
			layout = geom.XY
		}
	}

	switch base {
	case "POINT":
		if empty {
			return geom.NewPointEmpty(layout)
		}
		p.expect(tokLParen)
		flat, layout := p.coords(layout, 1)
		p.expect(tokRParen)
		if p.failed() {
			return nil
		}
		return geom.NewPointFlat(layout, flat)
	case "LINESTRING":
		if empty {
			return geom.NewLineString(layout)
		}
		flat, layout := p.coordList(layout)
		if p.failed() {
			return nil
		}
		return geom.NewLineStringFlat(layout, flat)
	case "POLYGON":
		if empty {
			return geom.NewPolygon(layout)
		}
		flat, ends, layout := p.ringList(layout)
		if p.failed() {
			return nil
		}
		return geom.NewPolygonFlat(layout, flat, ends)
	case "MULTIPOINT":
		if empty {
			return geom.NewMultiPoint(layout)
		}
		flat, layout := p.multiPointCoords(layout)
		if p.failed() {
			return nil
		}
		return geom.NewMultiPointFlat(layout, flat)
	case "MULTILINESTRING":
		if empty {
			return geom.NewMultiLineString(layout)
		}
		flat, ends, layout := p.ringList(layout)
		if p.failed() {
			return nil
		}
		return geom.NewMultiLineStringFlat(layout, flat, ends)
	case "MULTIPOLYGON":
		if empty {
			return geom.NewMultiPolygon(layout)
		}
		var flat []float64
		var endss [][]int
		p.expect(tokLParen)
		for !p.failed() {
			polyFlat, ends, l := p.ringList(layout)
			layout = l
			offset := len(flat)
			for i := range ends {
				ends[i] += offset
			}
			flat = append(flat, polyFlat...)
			endss = append(endss, ends)
			if p.tok.kind != tokComma {
				break
			}
			p.advance()
		}
		p.expect(tokRParen)
		if p.failed() {
			return nil
		}
		return geom.NewMultiPolygonFlat(layout, flat, endss)
	case "GEOMETRYCOLLECTION":
		gc := geom.NewGeometryCollection()
		if empty {
			return gc
		}
		p.expect(tokLParen)
		for !p.failed() {
			g := p.geometry(layout)
			if p.failed() {
				break
			}
			if layout == geom.NoLayout {
				layout = g.Layout()
			}
			if err := gc.Push(g); err != nil {
				p.errorf("%v", err)
				break
			}
			if p.tok.kind != tokComma {
				break
			}
			p.advance()
		}
		p.expect(tokRParen)
		if p.failed() {
			return nil
		}
		return gc
	}
	p.lex.setLexError("keyword")
	return nil
}

// coords parses n whitespace separated points. The layout is fixed by the
// first point if not known yet.
func (p *wktParser) coords(layout geom.Layout, n int) ([]float64, geom.Layout) {
	var flat []float64
	for i := 0; i < n && !p.failed(); i++ {
		start := p.tok.pos
		var pt []float64
		for p.tok.kind == tokNum {
			pt = append(pt, p.tok.num)
			p.advance()
		}
		if layout == geom.NoLayout {
			l, ok := getDefaultLayoutForStride(len(pt))
			if !ok {
				p.lex.setParseError(start, fmt.Sprintf("unsupported number of coordinates %d", len(pt)), "")
				return nil, layout
			}
			layout = l
		}
		if len(pt) != layout.Stride() {
			p.lex.setParseError(start, fmt.Sprintf(
				"mixed dimensionality, parsed layout is %s so expecting %d coords but got %d coords",
				layoutName(layout), layout.Stride(), len(pt)), "")
			return nil, layout
		}
		flat = append(flat, pt...)
	}
	return flat, layout
}

// coordList parses "(pt, pt, ...)".
func (p *wktParser) coordList(layout geom.Layout) ([]float64, geom.Layout) {
	var flat []float64
	p.expect(tokLParen)
	for !p.failed() {
		var pt []float64
		pt, layout = p.coords(layout, 1)
		flat = append(flat, pt...)
		if p.tok.kind != tokComma {
			break
		}
		p.advance()
	}
	p.expect(tokRParen)
	return flat, layout
}

// ringList parses "((pt, ...), (pt, ...))" and returns the ends of each ring.
func (p *wktParser) ringList(layout geom.Layout) ([]float64, []int, geom.Layout) {
	var flat []float64
	var ends []int
	p.expect(tokLParen)
	for !p.failed() {
		var ring []float64
		ring, layout = p.coordList(layout)
		flat = append(flat, ring...)
		ends = append(ends, len(flat))
		if p.tok.kind != tokComma {
			break
		}
		p.advance()
	}
	p.expect(tokRParen)
	return flat, ends, layout
}

// multiPointCoords accepts both "((1 2), (3 4))" and "(1 2, 3 4)".
func (p *wktParser) multiPointCoords(layout geom.Layout) ([]float64, geom.Layout) {
	var flat []float64
	p.expect(tokLParen)
	for !p.failed() {
		var pt []float64
		if p.tok.kind == tokLParen {
			p.advance()
			pt, layout = p.coords(layout, 1)
			p.expect(tokRParen)
		} else {
			pt, layout = p.coords(layout, 1)
		}
		flat = append(flat, pt...)
		if p.tok.kind != tokComma {
			break
		}
		p.advance()
	}
	p.expect(tokRParen)
	return flat, layout
}

func layoutName(layout geom.Layout) string {
	switch layout {
	case geom.NoLayout:
		return "XY, XYZ, or XYZM"
	case geom.XY:
		return "XY"
	case geom.XYM:
		return "XYM"
	case geom.XYZ:
		return "XYZ"
	case geom.XYZM:
		return "XYZM"
	default:
		return fmt.Sprintf("Layout(%d)", int(layout))
	}
}
