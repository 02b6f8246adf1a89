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
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v2"
)

// Formats that log entries can be rendered in.
const (
	FormatCrdbV1 = "crdb-v1"
	FormatJSON   = "json"
)

// DestStderr is the Dest value directing output to the process' stderr.
const DestStderr = "stderr"

// MaxVerbosity is the highest accepted verbosity level.
const MaxVerbosity = 5

// Config is the logging configuration.
type Config struct {
	// Verbosity is the level up to which V() and VEventf are enabled.
	Verbosity int `yaml:"verbosity"`
	// Format is one of FormatCrdbV1 or FormatJSON.
	Format string `yaml:"format"`
	// Redactable keeps redaction markers around unsafe values in the
	// output.
	Redactable *bool `yaml:"redactable,omitempty"`
	// Redact replaces unsafe values by a redaction marker.
	Redact bool `yaml:"redact"`
	// Dest is DestStderr or the path of a file to append to.
	Dest string `yaml:"dest"`
}

// DefaultConfig returns a suitable default configuration.
func DefaultConfig() Config {
	redactable := true
	return Config{
		Format:     FormatCrdbV1,
		Redactable: &redactable,
		Dest:       DestStderr,
	}
}

// Validate checks the configuration and fills in defaults for the fields
// that were left empty.
func (c *Config) Validate() error {
	if c.Verbosity < 0 || c.Verbosity > MaxVerbosity {
		return errors.Newf("verbosity must be between 0 and %d, got %d", MaxVerbosity, c.Verbosity)
	}
	switch c.Format {
	case "":
		c.Format = FormatCrdbV1
	case FormatCrdbV1, FormatJSON:
	default:
		return errors.Newf("unknown log format %q", c.Format)
	}
	if c.Redactable == nil {
		redactable := true
		c.Redactable = &redactable
	}
	if c.Redact && !*c.Redactable {
		return errors.New("redaction requires redactable logs")
	}
	if c.Dest == "" {
		c.Dest = DestStderr
	}
	return nil
}

// String renders the configuration as YAML.
func (c Config) String() string {
	b, err := yaml.Marshal(&c)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
