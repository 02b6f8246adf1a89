// Copyright 2021 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package wkt

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// LexError is an error that occurs during lexing.
type LexError struct {
	expectedTokType string
	pos             int
	str             string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error: invalid %s at pos %d\n%s\n%s^",
		e.expectedTokType, e.pos, e.str, strings.Repeat(" ", e.pos))
}

// ParseError is an error that occurs during parsing, which happens after lexing.
type ParseError struct {
	problem string
	pos     int
	str     string
	hint    string
}

func (e *ParseError) Error() string {
	err := fmt.Sprintf("%s at pos %d\n%s\n%s^", e.problem, e.pos, e.str, strings.Repeat(" ", e.pos))
	if e.hint != "" {
		err += fmt.Sprintf("\nHINT: %s", e.hint)
	}
	return err
}

// Constant returned by the lexer when it reaches EOF.
const eof = 0

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokComma
	tokKeyword
	tokNum
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokKeyword:
		return "keyword"
	default:
		return "number"
	}
}

type token struct {
	kind tokenKind
	str  string
	num  float64
	pos  int
}

type wktLex struct {
	line    string
	pos     int
	lastPos int
	lastErr error
}

func makeWktLex(line string) *wktLex {
	return &wktLex{line: line}
}

// lex lexes a token from the input.
func (l *wktLex) lex() token {
	// Skip leading spaces.
	l.trimLeft()
	l.lastPos = l.pos

	switch c := l.peek(); c {
	case eof:
		return token{kind: tokEOF, pos: l.pos}
	case '(':
		l.next()
		return token{kind: tokLParen, pos: l.lastPos}
	case ')':
		l.next()
		return token{kind: tokRParen, pos: l.lastPos}
	case ',':
		l.next()
		return token{kind: tokComma, pos: l.lastPos}
	default:
		if unicode.IsLetter(c) {
			return l.keyword()
		} else if isNumRune(c) {
			return l.num()
		}
		l.next()
		l.setLexError("character")
		return token{kind: tokEOF, pos: l.lastPos}
	}
}

// keyword lexes a string keyword, folding a separate Z, M or ZM dimension
// suffix into it.
func (l *wktLex) keyword() token {
	pos := l.pos
	var b strings.Builder
	for unicode.IsLetter(l.peek()) {
		// Add the uppercase letter to the string builder.
		b.WriteRune(unicode.ToUpper(l.next()))
	}

	// Check for extra dimensions for geometry types.
	if b.String() != "EMPTY" {
		save := l.pos
		l.trimLeft()
		var suffix strings.Builder
		for unicode.IsLetter(l.peek()) {
			suffix.WriteRune(unicode.ToUpper(l.next()))
		}
		switch suffix.String() {
		case "Z", "M", "ZM":
			b.WriteString(suffix.String())
		default:
			l.pos = save
		}
	}
	return token{kind: tokKeyword, str: b.String(), pos: pos}
}

func isNumRune(r rune) bool {
	switch r {
	case '-', '+', '.', 'e', 'E':
		return true
	default:
		return unicode.IsDigit(r)
	}
}

// num lexes a number.
func (l *wktLex) num() token {
	pos := l.pos
	var b strings.Builder
	for isNumRune(l.peek()) {
		b.WriteRune(l.next())
	}

	fl, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		l.setLexError("number")
		return token{kind: tokEOF, pos: pos}
	}
	return token{kind: tokNum, num: fl, pos: pos}
}

func (l *wktLex) peek() rune {
	if l.pos == len(l.line) {
		return eof
	}
	return rune(l.line[l.pos])
}

func (l *wktLex) next() rune {
	c := l.peek()
	if c != eof {
		l.pos++
	}
	return c
}

func (l *wktLex) trimLeft() {
	for {
		c := l.peek()
		if c == eof || !unicode.IsSpace(c) {
			break
		}
		l.next()
	}
}

func (l *wktLex) setLexError(expectedTokType string) {
	l.setError(&LexError{expectedTokType: expectedTokType, pos: l.lastPos, str: l.line})
}

func (l *wktLex) setParseError(pos int, problem string, hint string) {
	l.setError(&ParseError{
		problem: "syntax error: " + problem,
		pos:     pos,
		str:     l.line,
		hint:    hint,
	})
}

func (l *wktLex) setError(err error) {
	// Lex errors take precedence.
	if l.lastErr == nil {
		l.lastErr = err
	}
}
