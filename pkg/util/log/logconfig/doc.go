// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package logconfig manages the configuration of the logging output.
//
// The configuration is specified in YAML, either as a section of the
// execution config file or on its own via --log-config-file:
//
//     verbosity: 1
//     format: json
//     redact: true
//     dest: /tmp/spatialjoin.log
//
package logconfig
