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

package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nodeengine/engine/internal/flow/harness"
	gmodel "github.com/nodeengine/engine/internal/flow/model"
)

// mcpComponent forwards execute() as a tools/call request against an MCP
// server, mapping the flow's current context to the call arguments and the
// tool result back into a FlowStep.
type mcpComponent struct {
	base         *harness.ComponentBase
	toolEndpoint string
	toolName     string
}

func loadMCP(reg *gmodel.ComponentRegistration, base *harness.ComponentBase) (harness.Component, error) {
	if reg.Config.ToolEndpoint == "" || reg.Config.ToolName == "" {
		return nil, fmt.Errorf("mcp registration %q requires tool_endpoint and tool_name", reg.Key)
	}
	return &mcpComponent{base: base, toolEndpoint: reg.Config.ToolEndpoint, toolName: reg.Config.ToolName}, nil
}

func (c *mcpComponent) Execute() (gmodel.FlowStep, error) {
	ctx := context.Background()

	client := mcp.NewClient(&mcp.Implementation{Name: "node-engine", Version: "1.0.0"}, nil)
	transport := &mcp.StreamableClientTransport{Endpoint: c.toolEndpoint}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return c.base.ExitFlowWithError(fmt.Sprintf("failed to connect to mcp server: %v", err)), nil
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      c.toolName,
		Arguments: c.base.Context.Raw(),
	})
	if err != nil {
		return c.base.ExitFlowWithError(fmt.Sprintf("mcp tool call failed: %v", err)), nil
	}
	if result.IsError {
		return c.base.ExitFlowWithError(fmt.Sprintf("mcp tool %q reported an error", c.toolName)), nil
	}

	for _, item := range result.Content {
		text, ok := item.(*mcp.TextContent)
		if !ok {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(text.Text), &payload); err == nil {
			for k, v := range payload {
				c.base.Context.Set(k, v)
			}
		}
	}

	return c.base.ContinueFlow(nil), nil
}

func (c *mcpComponent) GetInfo() harness.ComponentInfo {
	return harness.ComponentInfo{
		Name:        c.toolName,
		Description: fmt.Sprintf("Forwards execution to MCP tool %q at %s", c.toolName, c.toolEndpoint),
	}
}
