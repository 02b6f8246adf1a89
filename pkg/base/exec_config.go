// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package base holds the configuration shared by the components of the
// spatial join engine.
package base

import (
	"io/ioutil"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/simpligility/trino/pkg/util/log/logconfig"
	"gopkg.in/yaml.v2"
)

// ExecConfig configures the execution of spatial joins.
type ExecConfig struct {
	// BatchSize is the maximum number of rows per batch.
	BatchSize int `yaml:"batch_size"`
	// Quantum is how long a driver runs before yielding.
	Quantum time.Duration `yaml:"quantum"`
	// Workers is the number of drivers running at once. Zero means
	// GOMAXPROCS.
	Workers int `yaml:"workers"`
	// BuildMemoryLimit is the human readable budget of the build side, for
	// example "512 MiB". "0" means unlimited.
	BuildMemoryLimit string `yaml:"build_memory_limit"`
	// Partitions is the number of spatial partitions of a distributed join.
	// Zero or one runs a broadcast join.
	Partitions int `yaml:"partitions"`
	// PartitionSampleSize is the number of build rows used to compute the
	// kdb tree of a distributed join.
	PartitionSampleSize int `yaml:"partition_sample_size"`
	// Log configures logging.
	Log logconfig.Config `yaml:"log"`

	buildMemoryLimitBytes int64
}

// DefaultExecConfig returns the configuration used when none is given.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{
		BatchSize:           DefaultBatchSize,
		Quantum:             DefaultQuantum,
		BuildMemoryLimit:    DefaultBuildMemoryLimit,
		PartitionSampleSize: DefaultPartitionSampleSize,
		Log:                 logconfig.DefaultConfig(),
	}
}

// ParseExecConfig decodes a YAML configuration on top of the defaults and
// validates the result. Unknown fields are rejected.
func ParseExecConfig(data []byte) (ExecConfig, error) {
	cfg := DefaultExecConfig()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return ExecConfig{}, errors.Wrap(err, "parsing exec config")
	}
	if err := cfg.Validate(); err != nil {
		return ExecConfig{}, err
	}
	return cfg, nil
}

// LoadExecConfig reads and parses the configuration file at path.
func LoadExecConfig(path string) (ExecConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return ExecConfig{}, errors.Wrapf(err, "reading exec config %s", path)
	}
	return ParseExecConfig(data)
}

// Validate checks the configuration and fills in derived fields.
func (c *ExecConfig) Validate() error {
	if c.BatchSize < 1 {
		return errors.Newf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.Quantum <= 0 {
		return errors.Newf("quantum must be positive, got %s", c.Quantum)
	}
	if c.Workers < 0 {
		return errors.Newf("workers must not be negative, got %d", c.Workers)
	}
	if c.Partitions < 0 {
		return errors.Newf("partitions must not be negative, got %d", c.Partitions)
	}
	if c.PartitionSampleSize < 1 {
		return errors.Newf("partition_sample_size must be positive, got %d", c.PartitionSampleSize)
	}
	limit, err := humanize.ParseBytes(c.BuildMemoryLimit)
	if err != nil {
		return errors.Wrapf(err, "invalid build_memory_limit %q", c.BuildMemoryLimit)
	}
	c.buildMemoryLimitBytes = int64(limit)
	return errors.Wrap(c.Log.Validate(), "invalid log config")
}

// BuildMemoryLimitBytes returns the build memory budget in bytes, 0 meaning
// unlimited. It is only set once Validate succeeded.
func (c *ExecConfig) BuildMemoryLimitBytes() int64 {
	return c.buildMemoryLimitBytes
}

// NumWorkers returns the number of drivers running at once.
func (c *ExecConfig) NumWorkers() int {
	if c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// String renders the configuration as YAML.
func (c ExecConfig) String() string {
	b, err := yaml.Marshal(&c)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
