/*
 * Copyright (c) 2026, the Node Engine authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package template implements the {{path}} substitution pass applied to component
// configuration against a flow's context. It is intentionally string-only: non-string
// config leaves are left untouched, matching the engine's documented behavior.
package template

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	tokenPattern  = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
	indexSegment  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\[(\d+)\]$`)
)

// EvalValue resolves every {{path}} token in s against ctx.
//
// A single token spanning the whole of s returns the resolved value untouched
// (a mapping or list is returned as-is, not stringified). Any other shape
// - multiple tokens, or a token embedded in surrounding text - stringifies each
// resolved value (JSON-encoding mappings and lists) and returns a string.
// A token whose path does not resolve is left in place, literally, in the output.
func EvalValue(s string, ctx map[string]any) any {
	matches := tokenPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		path := strings.TrimSpace(s[matches[0][2]:matches[0][3]])
		if v, ok := resolvePath(path, ctx); ok {
			return v
		}
		return s
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(s[last:m[0]])
		path := strings.TrimSpace(s[m[2]:m[3]])
		if v, ok := resolvePath(path, ctx); ok {
			sb.WriteString(stringify(v))
		} else {
			sb.WriteString(s[m[0]:m[1]])
		}
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// EvalString is EvalValue coerced to a string; used where the caller only ever wants text.
func EvalString(s string, ctx map[string]any) string {
	v := EvalValue(s, ctx)
	if str, ok := v.(string); ok {
		return str
	}
	return stringify(v)
}

// EvalConfig walks config recursively (through nested maps and slices) and
// substitutes every string leaf with EvalValue. Non-string leaves pass through
// unmodified - template evaluation only ever touches string values.
func EvalConfig(config map[string]any, ctx map[string]any) map[string]any {
	out := make(map[string]any, len(config))
	for k, v := range config {
		out[k] = evalAny(v, ctx)
	}
	return out
}

func evalAny(v any, ctx map[string]any) any {
	switch val := v.(type) {
	case string:
		return EvalValue(val, ctx)
	case map[string]any:
		return EvalConfig(val, ctx)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = evalAny(item, ctx)
		}
		return out
	default:
		return v
	}
}

// resolvePath descends ctx following path's dot-separated segments, each optionally
// carrying a name[i] list index, and reports whether resolution succeeded.
func resolvePath(path string, ctx map[string]any) (any, bool) {
	if path == "" {
		return nil, false
	}

	var cur any = ctx
	for _, seg := range strings.Split(path, ".") {
		name := seg
		var idx int
		hasIdx := false
		if m := indexSegment.FindStringSubmatch(seg); m != nil {
			name = m[1]
			n, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, false
			}
			idx, hasIdx = n, true
		}

		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, exists := m[name]
		if !exists {
			return nil, false
		}

		if hasIdx {
			list, ok := v.([]any)
			if !ok || idx < 0 || idx >= len(list) {
				return nil, false
			}
			cur = list[idx]
		} else {
			cur = v
		}
	}
	return cur, true
}

// stringify renders a resolved value for embedding in surrounding text: strings pass
// through verbatim, everything else is JSON-encoded.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
