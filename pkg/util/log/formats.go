// Copyright 2015 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package log

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/redact"
	"github.com/simpligility/trino/pkg/util/log/logconfig"
)

type logEntry struct {
	sev  Severity
	time time.Time
	file string
	line int
	tags redact.RedactableString
	msg  redact.RedactableString
}

type logFormatter interface {
	formatterName() string
	// formatEntry renders an entry, including the trailing newline.
	formatEntry(entry logEntry) []byte
}

var formatters = func() map[string]logFormatter {
	m := make(map[string]logFormatter)
	r := func(f logFormatter) {
		m[f.formatterName()] = f
	}
	r(formatCrdbV1{})
	r(formatJSON{})
	return m
}()

// formatCrdbV1 renders entries as
//
//	I201018 20:19:09.123456 colexecspatial/spatial_joiner.go:120  [n1,spatialjoiner] message
type formatCrdbV1 struct{}

func (formatCrdbV1) formatterName() string { return logconfig.FormatCrdbV1 }

func (formatCrdbV1) formatEntry(e logEntry) []byte {
	tags := ""
	if e.tags != "" {
		tags = "[" + string(e.tags) + "] "
	}
	return []byte(fmt.Sprintf("%c%s %s:%d  %s%s\n",
		e.sev.String()[0], e.time.UTC().Format("060102 15:04:05.000000"),
		e.file, e.line, tags, string(e.msg)))
}

type formatJSON struct{}

func (formatJSON) formatterName() string { return logconfig.FormatJSON }

type jsonEntry struct {
	Severity  string `json:"severity"`
	Timestamp string `json:"timestamp"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Tags      string `json:"tags,omitempty"`
	Message   string `json:"message"`
}

func (formatJSON) formatEntry(e logEntry) []byte {
	b, err := json.Marshal(jsonEntry{
		Severity:  e.sev.String(),
		Timestamp: e.time.UTC().Format(time.RFC3339Nano),
		File:      e.file,
		Line:      e.line,
		Tags:      string(e.tags),
		Message:   string(e.msg),
	})
	if err != nil {
		return []byte(fmt.Sprintf("{\"severity\":\"ERROR\",\"message\":%q}\n", err.Error()))
	}
	return append(b, '\n')
}
