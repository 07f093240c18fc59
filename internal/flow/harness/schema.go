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

package harness

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ValidateConfig derives a JSON Schema from a component's default_config (its
// sample shape) and validates evaluated against it. A component with no
// default_config has nothing to validate against. This is schema validation
// only - the blackboard and config both remain map[string]any; no typed
// config struct is introduced.
func ValidateConfig(defaultConfig, evaluated map[string]any) error {
	if len(defaultConfig) == 0 {
		return nil
	}

	schema := inferObjectSchema(defaultConfig)
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("failed to resolve component config schema: %w", err)
	}
	if err := resolved.Validate(evaluated); err != nil {
		return fmt.Errorf("component config failed schema validation: %w", err)
	}
	return nil
}

// SchemaForSample infers a JSON Schema from a sample object, the same way
// ValidateConfig derives one from default_config. Exported so other packages
// deriving a schema from a component's declared sample shape - the MCP tool
// server, in particular - don't reimplement the inference rules.
func SchemaForSample(sample map[string]any) *jsonschema.Schema {
	return inferObjectSchema(sample)
}

func inferObjectSchema(sample map[string]any) *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(sample))
	for k, v := range sample {
		props[k] = inferValueSchema(v)
	}
	return &jsonschema.Schema{Type: "object", Properties: props}
}

func inferValueSchema(v any) *jsonschema.Schema {
	switch val := v.(type) {
	case string:
		return &jsonschema.Schema{Type: "string"}
	case bool:
		return &jsonschema.Schema{Type: "boolean"}
	case float64, int, int64:
		return &jsonschema.Schema{Type: "number"}
	case map[string]any:
		return inferObjectSchema(val)
	case []any:
		var items *jsonschema.Schema
		if len(val) > 0 {
			items = inferValueSchema(val[0])
		}
		return &jsonschema.Schema{Type: "array", Items: items}
	default:
		return &jsonschema.Schema{}
	}
}
