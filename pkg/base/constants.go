// Copyright 2016 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package base

import "time"

const (
	// DefaultBatchSize is the default maximum number of rows in a batch.
	DefaultBatchSize = 1024

	// DefaultQuantum is how long a driver runs before it is asked to yield
	// its goroutine.
	DefaultQuantum = 1 * time.Second

	// DefaultBuildMemoryLimit is the default budget of the build side of a
	// spatial join.
	DefaultBuildMemoryLimit = "1 GiB"

	// DefaultPartitionSampleSize is the number of build rows sampled to
	// construct a kdb tree.
	DefaultPartitionSampleSize = 10000

	// DefaultMaxPartitionLevels bounds the depth of a kdb tree.
	DefaultMaxPartitionLevels = 16
)
