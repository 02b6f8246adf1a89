// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package logconfig

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/cockroachdb/datadriven"
	"gopkg.in/yaml.v2"
)

func TestValidate(t *testing.T) {
	datadriven.RunTest(t, "testdata/validate", func(t *testing.T, d *datadriven.TestData) string {
		var c Config
		if err := yaml.UnmarshalStrict([]byte(d.Input), &c); err != nil {
			t.Fatal(err)
		}
		t.Logf("## before validate:\n%s", c)

		var buf bytes.Buffer
		if err := c.Validate(); err != nil {
			fmt.Fprintf(&buf, "ERROR: %v\n", err)
		} else {
			fmt.Fprintf(&buf, "%s", c)
		}
		return buf.String()
	})
}

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	before := c.String()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if after := c.String(); before != after {
		t.Fatalf("expected default config to be unchanged by Validate:\n%s\n%s", before, after)
	}
}
