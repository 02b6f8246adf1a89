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
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
)

// tableDisplayFormat identifies the format with which rows are printed.
type tableDisplayFormat int

// The following constants identify the supported table formats.
const (
	tableDisplayTable tableDisplayFormat = iota
	tableDisplayCSV
	tableDisplayTSV
)

var tableDisplayNames = [...]string{
	tableDisplayTable: "table",
	tableDisplayCSV:   "csv",
	tableDisplayTSV:   "tsv",
}

// Type implements the pflag.Value interface.
func (f *tableDisplayFormat) Type() string { return "string" }

// String implements the pflag.Value interface.
func (f *tableDisplayFormat) String() string {
	return tableDisplayNames[*f]
}

// Set implements the pflag.Value interface.
func (f *tableDisplayFormat) Set(s string) error {
	for i, name := range tableDisplayNames {
		if name == s {
			*f = tableDisplayFormat(i)
			return nil
		}
	}
	return errors.Newf("invalid table display format: %s (possible values: %s)",
		s, strings.Join(tableDisplayNames[:], ", "))
}

// printQueryOutput takes a list of column names and a list of row
// contents and writes them to w in the given format.
func printQueryOutput(
	w io.Writer, cols []string, allRows [][]string, displayFormat tableDisplayFormat,
) error {
	switch displayFormat {
	case tableDisplayTable:
		// Initialize tablewriter and set column names as the header row.
		table := tablewriter.NewWriter(w)
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetHeader(cols)
		for _, row := range allRows {
			for i, r := range row {
				row[i] = expandTabsAndNewLines(r)
			}
			table.Append(row)
		}
		table.Render()
		fmt.Fprintf(w, "(%d row%s)\n", len(allRows), pluralize(len(allRows)))

	case tableDisplayCSV, tableDisplayTSV:
		csvWriter := csv.NewWriter(w)
		if displayFormat == tableDisplayTSV {
			csvWriter.Comma = '\t'
		}
		if err := csvWriter.Write(cols); err != nil {
			return err
		}
		if err := csvWriter.WriteAll(allRows); err != nil {
			return err
		}

	default:
		return errors.AssertionFailedf("unhandled display format %d", displayFormat)
	}
	return nil
}

// expandTabsAndNewLines ensures that multi-line values are displayed
// on a single line.
func expandTabsAndNewLines(s string) string {
	return strings.NewReplacer("\t", "    ", "\n", "\\n").Replace(s)
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
