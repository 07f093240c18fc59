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
	"encoding/json"

	"github.com/nodeengine/engine/internal/flow/template"
)

// ContextFacade is a thin, mutating view over a flow's shared context map.
type ContextFacade struct {
	ctx map[string]any
}

// NewContextFacade wraps ctx, allocating it if nil.
func NewContextFacade(ctx map[string]any) *ContextFacade {
	if ctx == nil {
		ctx = make(map[string]any)
	}
	return &ContextFacade{ctx: ctx}
}

// Get returns the value stored under key and whether it was present.
func (c *ContextFacade) Get(key string) (any, bool) {
	v, ok := c.ctx[key]
	return v, ok
}

// Set writes key in place; the mutation is visible to every subsequent component.
func (c *ContextFacade) Set(key string, value any) {
	c.ctx[key] = value
}

// Delete removes key, if present.
func (c *ContextFacade) Delete(key string) {
	delete(c.ctx, key)
}

// HasKey reports whether key is present.
func (c *ContextFacade) HasKey(key string) bool {
	_, ok := c.ctx[key]
	return ok
}

// JSON marshals the whole context.
func (c *ContextFacade) JSON() ([]byte, error) {
	return json.Marshal(c.ctx)
}

// Raw returns the underlying map. Callers that need the map itself (to hand to
// a nested invoke, for instance) use this rather than copying key by key.
func (c *ContextFacade) Raw() map[string]any {
	return c.ctx
}

// ConfigFacade is the evaluated view over a component's configuration: the
// FlowComponent's config dict merged under the component class's default_config,
// with every string leaf already run through the template evaluator.
type ConfigFacade struct {
	evaluated    map[string]any
	classDefault map[string]any
}

// NewConfigFacade merges componentConfig over classDefault and evaluates templates
// against ctx.
func NewConfigFacade(componentConfig, classDefault, ctx map[string]any) *ConfigFacade {
	merged := mergeConfig(classDefault, componentConfig)
	return &ConfigFacade{
		evaluated:    template.EvalConfig(merged, ctx),
		classDefault: classDefault,
	}
}

// Get returns, in order: the evaluated config value, the call-site default, the
// class default, or nil.
func (c *ConfigFacade) Get(key string, callSiteDefault any) any {
	if v, ok := c.evaluated[key]; ok {
		return v
	}
	if callSiteDefault != nil {
		return callSiteDefault
	}
	if v, ok := c.classDefault[key]; ok {
		return v
	}
	return nil
}

// Evaluated returns the full evaluated config map, for schema validation or tracing.
func (c *ConfigFacade) Evaluated() map[string]any {
	return c.evaluated
}

func mergeConfig(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
