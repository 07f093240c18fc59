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

// Package model defines the wire-level data types shared across the flow engine:
// flow definitions, component descriptors, step results, registry entries, events
// and log items. Every type here is JSON-shaped, matching the on-the-wire form
// exchanged over the HTTP service boundary.
package model

// ExitKey is the reserved next-key that terminates a flow.
const ExitKey = "exit"

// FlowComponent is one node in a flow's component list.
type FlowComponent struct {
	Key    string         `json:"key"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config,omitempty"`
}

// LogLevel is the severity of a LogItem.
type LogLevel string

// Supported log levels, ordered least to most severe.
const (
	LogLevelDebug    LogLevel = "debug"
	LogLevelInfo     LogLevel = "info"
	LogLevelWarning  LogLevel = "warning"
	LogLevelError    LogLevel = "error"
	LogLevelCritical LogLevel = "critical"
)

// LogItem is one entry accumulated in FlowStatus.Log.
type LogItem struct {
	Namespace      string          `json:"namespace"`
	Level          LogLevel        `json:"level"`
	Message        string          `json:"message"`
	FlowDefinition *FlowDefinition `json:"flow_definition,omitempty"`
}

// TraceEntry records one component's contribution to a flow's execution.
type TraceEntry struct {
	ElapsedTimeMs int64          `json:"elapsed_time_ms"`
	Component     TraceComponent `json:"component"`
	Config        map[string]any `json:"config,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	Attempt       int            `json:"attempt"`
}

// TraceComponent identifies the component a TraceEntry belongs to.
type TraceComponent struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// FlowStatus carries the running/terminal status of a FlowDefinition.
type FlowStatus struct {
	CurrentComponent *FlowComponent `json:"current_component,omitempty"`
	Error            *string        `json:"error,omitempty"`
	Log              []LogItem      `json:"log,omitempty"`
	Trace            []TraceEntry   `json:"trace,omitempty"`
}

// FlowDefinition is the unit of work submitted to and returned by the executor.
type FlowDefinition struct {
	Key       string                   `json:"key,omitempty"`
	SessionID string                   `json:"session_id,omitempty"`
	Flow      []FlowComponent          `json:"flow"`
	Context   map[string]any           `json:"context"`
	Registry  []ComponentRegistration  `json:"registry,omitempty"`
	Status    FlowStatus               `json:"status"`
}

// FlowStep is the result of advancing the executor by one component.
type FlowStep struct {
	Next           *string         `json:"next"`
	FlowDefinition *FlowDefinition `json:"flow_definition"`
}

// RegistrationType names how a ComponentRegistration is materialized.
type RegistrationType string

// Supported registration types.
const (
	RegistrationTypeModule   RegistrationType = "module"
	RegistrationTypeCode     RegistrationType = "code"
	RegistrationTypeEndpoint RegistrationType = "endpoint"
	RegistrationTypeMCP      RegistrationType = "mcp"
)

// ComponentRegistration is one entry parsed out of a registry.json file.
type ComponentRegistration struct {
	Key         string                   `json:"key"`
	Label       string                   `json:"label,omitempty"`
	Description string                   `json:"description,omitempty"`
	Type        RegistrationType         `json:"type"`
	Config      ComponentRegistrationConfig `json:"config"`
}

// ComponentRegistrationConfig is the type-specific payload of a registration.
// Only the fields relevant to Type are populated.
type ComponentRegistrationConfig struct {
	Module      string `json:"module,omitempty"`
	Class       string `json:"class,omitempty"`
	Code        string `json:"code,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
	ComponentName string `json:"component_name,omitempty"`
	ClassName   string `json:"class_name,omitempty"`
	ToolEndpoint string `json:"tool_endpoint,omitempty"`
	ToolName    string `json:"tool_name,omitempty"`
}

// RegistryListEntry is the shape returned by GET /registry.
type RegistryListEntry struct {
	Key         string           `json:"key"`
	Label       string           `json:"label,omitempty"`
	Description string           `json:"description,omitempty"`
	Type        RegistrationType `json:"type"`
}

// FlowEvent is one message routed through the event bus to SSE subscribers.
type FlowEvent struct {
	SessionID string `json:"session_id"`
	Event     string `json:"event"`
	Data      string `json:"data"`
}
