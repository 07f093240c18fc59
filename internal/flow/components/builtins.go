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

package components

import (
	"github.com/nodeengine/engine/internal/flow/harness"
	"github.com/nodeengine/engine/internal/flow/model"
)

// noopComponent always falls through positionally. It exists mainly as the
// trivial flow-building-block and as the grounding case for linear fallthrough.
type noopComponent struct {
	base *harness.ComponentBase
}

func newNoopComponent(base *harness.ComponentBase) (harness.Component, error) {
	return &noopComponent{base: base}, nil
}

func (c *noopComponent) Execute() (model.FlowStep, error) {
	return c.base.ContinueFlow(nil), nil
}

func (c *noopComponent) GetInfo() harness.ComponentInfo {
	return harness.ComponentInfo{
		Name:        "Noop",
		Description: "Does nothing and falls through to the next component in flow order.",
	}
}

// branchComponent advances to the component key named by its "next" config
// value, or falls through positionally if next is absent.
type branchComponent struct {
	base *harness.ComponentBase
}

func newBranchComponent(base *harness.ComponentBase) (harness.Component, error) {
	return &branchComponent{base: base}, nil
}

func (c *branchComponent) Execute() (model.FlowStep, error) {
	next, ok := c.base.Config.Get("next", nil).(string)
	if !ok || next == "" {
		return c.base.ContinueFlow(nil), nil
	}
	return c.base.ContinueFlow(&next), nil
}

func (c *branchComponent) GetInfo() harness.ComponentInfo {
	return harness.ComponentInfo{
		Name:          "Branch",
		Description:   "Advances to the component key named by its \"next\" config value.",
		DefaultConfig: map[string]any{"next": ""},
	}
}
