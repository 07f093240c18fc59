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

// Package mcp runs an MCP server exposing a registry's components as
// callable tools, the mirror image of the registry's own "mcp" loader: that
// loader lets a flow call out to an external MCP tool, this package lets an
// external MCP client call into one registered component without going
// through a whole flow.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	gosdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nodeengine/engine/internal/flow/harness"
	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/flow/registry"
	"github.com/nodeengine/engine/internal/system/log"
)

// Engine is the subset of internal/flow/engine.Engine a tool call needs.
type Engine interface {
	InvokeComponent(ctx context.Context, flowDefinition *model.FlowDefinition, componentKey,
		tunnelAuth string) (model.FlowStep, error)
}

// Server wraps an MCP server whose tools forward to the registry's own
// components.
type Server struct {
	mcpServer *gosdkmcp.Server
	logger    *log.Logger
}

// NewServer builds an MCP server with one tool per component registered
// under root, using reg to both describe and load them.
func NewServer(eng Engine, reg *registry.Registry, root string) (*Server, error) {
	entries, err := reg.List(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list registry at %s: %w", root, err)
	}

	mcpServer := gosdkmcp.NewServer(&gosdkmcp.Implementation{
		Name:    "node-engine",
		Version: "1.0.0",
	}, nil)

	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "MCPServer"))

	for i := range entries {
		entry := entries[i]
		info := describeComponent(reg, &entry)
		h := &componentTool{engine: eng, key: entry.Key}

		name := sanitizeToolName(entry.Key)
		gosdkmcp.AddTool(mcpServer, &gosdkmcp.Tool{
			Name:        name,
			Description: outputDescription(toolDescription(&entry, info), info),
			InputSchema: inputSchemaFor(info),
		}, h.call)

		logger.Debug(fmt.Sprintf("registered mcp tool %q for component %q", name, entry.Key))
	}

	return &Server{mcpServer: mcpServer, logger: logger}, nil
}

// Handler exposes the server over the streamable HTTP transport, so a
// process already serving flow HTTP traffic can mount it alongside.
func (s *Server) Handler() http.Handler {
	return gosdkmcp.NewStreamableHTTPHandler(func(*http.Request) *gosdkmcp.Server {
		return s.mcpServer
	}, nil)
}

// describeComponent loads reg against a throwaway harness base solely to
// read its static GetInfo(), if it implements InfoProvider. Loading never
// calls Execute, so an empty context and no engine handle are safe here.
func describeComponent(reg *registry.Registry, entry *model.ComponentRegistration) *harness.ComponentInfo {
	base := &harness.ComponentBase{
		Context: harness.NewContextFacade(map[string]any{}),
		Logger:  log.GetLogger(),
	}
	comp, err := reg.Load(entry, base)
	if err != nil || comp == nil {
		return nil
	}
	provider, ok := comp.(harness.InfoProvider)
	if !ok {
		return nil
	}
	got := provider.GetInfo()
	return &got
}

func toolDescription(entry *model.ComponentRegistration, info *harness.ComponentInfo) string {
	if entry.Description != "" {
		return entry.Description
	}
	if info != nil && info.Description != "" {
		return info.Description
	}
	return fmt.Sprintf("Invokes the %q component directly.", entry.Key)
}

func inputSchemaFor(info *harness.ComponentInfo) *jsonschema.Schema {
	if info == nil || len(info.SampleInput) == 0 {
		return nil
	}
	return harness.SchemaForSample(info.SampleInput)
}

// componentTool adapts one registered component into an MCP tool handler:
// the call's arguments become the flow context, and the updated context
// comes back as the tool result.
type componentTool struct {
	engine Engine
	key    string
}

func (t *componentTool) call(ctx context.Context, _ *gosdkmcp.CallToolRequest, input map[string]any) (
	*gosdkmcp.CallToolResult, map[string]any, error) {
	flowDefinition := &model.FlowDefinition{
		Flow:    []model.FlowComponent{{Key: t.key, Name: t.key}},
		Context: cloneArgs(input),
	}

	step, err := t.engine.InvokeComponent(ctx, flowDefinition, t.key, "")
	if err != nil {
		return nil, nil, fmt.Errorf("component %q failed: %w", t.key, err)
	}

	result := step.FlowDefinition.Context
	text, err := json.Marshal(result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode component result: %w", err)
	}

	return &gosdkmcp.CallToolResult{
		Content: []gosdkmcp.Content{&gosdkmcp.TextContent{Text: string(text)}},
	}, result, nil
}

func cloneArgs(input map[string]any) map[string]any {
	if input == nil {
		return make(map[string]any)
	}
	cloned := make(map[string]any, len(input))
	for k, v := range input {
		cloned[k] = v
	}
	return cloned
}
