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

package remoteexec

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeengine/engine/internal/flow/harness"
	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/system/log"
)

func newTestBase(tunnelAuth string) *harness.ComponentBase {
	flowDefinition := &model.FlowDefinition{Context: map[string]any{}}
	return &harness.ComponentBase{
		FlowDefinition: flowDefinition,
		ComponentKey:   "a",
		TunnelAuth:     tunnelAuth,
		Context:        harness.NewContextFacade(flowDefinition.Context),
		Config:         harness.NewConfigFacade(nil, nil, flowDefinition.Context),
		Logger:         log.GetLogger(),
	}
}

func TestExecutePostsFlowAndDecodesStep(t *testing.T) {
	var gotHeader, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Tunnel-Authorization")
		gotQuery = r.URL.RawQuery

		next := "b"
		step := model.FlowStep{Next: &next, FlowDefinition: &model.FlowDefinition{}}
		_ = json.NewEncoder(w).Encode(step)
	}))
	defer server.Close()

	base := newTestBase("tok123")
	runner, err := New(base, server.URL, "MyComponent", "MyClass")
	require.NoError(t, err)

	step, err := runner.Execute()
	require.NoError(t, err)
	require.NotNil(t, step.Next)
	assert.Equal(t, "b", *step.Next)
	assert.Equal(t, "tunnel tok123", gotHeader)
	assert.Contains(t, gotQuery, "component_name=MyComponent")
	assert.Contains(t, gotQuery, "class_name=MyClass")
	assert.Contains(t, gotQuery, "component_key=a")
}

func TestExecuteNon200ExitsFlowWithError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	base := newTestBase("")
	runner, err := New(base, server.URL, "MyComponent", "MyClass")
	require.NoError(t, err)

	step, err := runner.Execute()
	require.NoError(t, err)
	require.NotNil(t, step.Next)
	assert.Equal(t, model.ExitKey, *step.Next)
	require.NotNil(t, base.FlowDefinition.Status.Error)
}

func TestNewAcceptsNonLocalHTTPEndpointRegistration(t *testing.T) {
	base := newTestBase("")
	runner, err := New(base, "http://example.com/invoke_component", "MyComponent", "MyClass")
	require.NoError(t, err)
	require.NotNil(t, runner)
}

func TestExecuteRejectsNonLocalHTTPEndpointWithoutIssuingRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	base := newTestBase("")
	runner, err := New(base, "http://example.com/invoke_component", "MyComponent", "MyClass")
	require.NoError(t, err)

	step, err := runner.Execute()
	require.NoError(t, err)
	require.NotNil(t, step.Next)
	assert.Equal(t, model.ExitKey, *step.Next)
	require.NotNil(t, base.FlowDefinition.Status.Error)
	assert.False(t, called)
}

func TestNewAllowsLocalHTTPEndpoint(t *testing.T) {
	base := newTestBase("")
	_, err := New(base, "http://127.0.0.1:9999", "MyComponent", "MyClass")
	assert.NoError(t, err)
}
