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
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeengine/engine/internal/flow/components"
	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/flow/registry"
)

func writeRegistryFile(t *testing.T, root string, entries []model.ComponentRegistration) {
	t.Helper()
	data, err := json.Marshal(map[string]any{"components": entries})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "registry.json"), data, 0o644))
}

type fakeEngine struct {
	step model.FlowStep
	err  error
}

func (f *fakeEngine) InvokeComponent(_ context.Context, flowDefinition *model.FlowDefinition, _,
	_ string) (model.FlowStep, error) {
	if f.err != nil {
		return model.FlowStep{}, f.err
	}
	if f.step.FlowDefinition == nil {
		return model.FlowStep{FlowDefinition: flowDefinition}, nil
	}
	return f.step, nil
}

func TestNewServerRegistersOneToolPerComponent(t *testing.T) {
	root := t.TempDir()
	writeRegistryFile(t, root, []model.ComponentRegistration{
		{Key: "noop.step", Type: model.RegistrationTypeModule, Config: model.ComponentRegistrationConfig{Class: "Noop"}},
		{Key: "branch", Type: model.RegistrationTypeModule, Config: model.ComponentRegistrationConfig{Class: "Branch"}},
	})

	reg := registry.New(components.BuiltIns())
	server, err := NewServer(&fakeEngine{}, reg, root)

	require.NoError(t, err)
	require.NotNil(t, server.mcpServer)
}

func TestSanitizeToolNameReplacesInvalidCharacters(t *testing.T) {
	assert.Equal(t, "noop_step", sanitizeToolName("noop.step"))
	assert.Equal(t, "my-tool_1", sanitizeToolName("my-tool_1"))
}

func TestComponentToolCallReturnsEngineStepContext(t *testing.T) {
	next := "exit"
	eng := &fakeEngine{step: model.FlowStep{
		Next: &next,
		FlowDefinition: &model.FlowDefinition{
			Context: map[string]any{"greeting": "hi"},
		},
	}}
	tool := &componentTool{engine: eng, key: "greeter"}

	result, output, err := tool.call(context.Background(), nil, map[string]any{"name": "ada"})

	require.NoError(t, err)
	assert.Equal(t, "hi", output["greeting"])
	require.Len(t, result.Content, 1)
}

func TestComponentToolCallPropagatesEngineError(t *testing.T) {
	eng := &fakeEngine{err: assertError("boom")}
	tool := &componentTool{engine: eng, key: "greeter"}

	_, _, err := tool.call(context.Background(), nil, nil)

	assert.Error(t, err)
}

type assertError string

func (e assertError) Error() string { return string(e) }
