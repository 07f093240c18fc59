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

package mcp

import (
	"regexp"
	"strings"

	"github.com/nodeengine/engine/internal/flow/harness"
)

// toolNamePattern is the character set MCP clients are guaranteed to accept
// in a tool name. Registry keys are free-form (they're just JSON map keys),
// so a key containing anything else - a dot, a slash, a space - gets
// normalized rather than rejected outright.
var toolNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// sanitizeToolName maps a registry key to a valid MCP tool name.
func sanitizeToolName(key string) string {
	return toolNamePattern.ReplaceAllString(key, "_")
}

// outputDescription appends a component's declared sample_output, when it
// has one, to the tool description an MCP client sees - the input schema is
// generated from sample_input, but go-sdk has no separate "output schema"
// slot to attach a matching shape to.
func outputDescription(description string, info *harness.ComponentInfo) string {
	if info == nil || len(info.SampleOutput) == 0 {
		return description
	}
	keys := make([]string, 0, len(info.SampleOutput))
	for k := range info.SampleOutput {
		keys = append(keys, k)
	}
	return description + "\n\nWrites to context: " + strings.Join(keys, ", ")
}
