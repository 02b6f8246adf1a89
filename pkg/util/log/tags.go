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
	"context"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// renderTags formats the logtags in ctx as "k1v1,k2=v2,k3". Single letter
// keys are followed by their value directly, as in n1.
func renderTags(ctx context.Context) redact.RedactableString {
	tags := logtags.FromContext(ctx)
	if tags == nil {
		return ""
	}
	var b redact.StringBuilder
	for i, t := range tags.Get() {
		if i > 0 {
			b.SafeRune(',')
		}
		b.SafeString(redact.SafeString(t.Key()))
		v := t.Value()
		if v == nil {
			continue
		}
		if len(t.Key()) > 1 {
			b.SafeRune('=')
		}
		b.Print(v)
	}
	return b.RedactableString()
}
