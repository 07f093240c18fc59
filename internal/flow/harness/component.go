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

// Package harness provides the per-component execution environment: context and
// config facades, the base a concrete component embeds, and the tracing wrapper
// the executor calls into for every step.
package harness

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/system/log"
)

const tracerName = "github.com/nodeengine/engine/internal/flow/harness"

// ComponentInfo is the documentation dict a component class exposes at the class
// level, returned by get_info().
type ComponentInfo struct {
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	DefaultConfig map[string]any `json:"default_config,omitempty"`
	ReadsFrom     []string       `json:"reads_from,omitempty"`
	WritesTo      []string       `json:"writes_to,omitempty"`
	SampleInput   map[string]any `json:"sample_input,omitempty"`
	SampleOutput  map[string]any `json:"sample_output,omitempty"`
}

// Component is the contract every loaded component instance must satisfy.
type Component interface {
	Execute() (model.FlowStep, error)
}

// InfoProvider is implemented by component classes that expose static metadata.
// Not every Component needs it (a remote-endpoint runner, for instance, may not),
// but built-in and module components generally do.
type InfoProvider interface {
	GetInfo() ComponentInfo
}

// EngineHandle is the component-facing view of the executor, injected at
// construction to break the cyclic component -> executor -> component reference
// a naive design would otherwise require.
type EngineHandle interface {
	Invoke(ctx context.Context, flowDefinition *model.FlowDefinition, tunnelAuth string) (*model.FlowDefinition, error)
	InvokeComponent(ctx context.Context, flowDefinition *model.FlowDefinition, componentKey,
		tunnelAuth string) (model.FlowStep, error)
	Emit(evt model.FlowEvent, targetConnectionID string)
}

// ComponentBase is embedded by concrete components to get invoke/emit/continue
// plumbing for free, mirroring the teacher's executor base pattern.
type ComponentBase struct {
	FlowDefinition *model.FlowDefinition
	ComponentKey   string
	Engine         EngineHandle
	TunnelAuth     string
	Context        *ContextFacade
	Config         *ConfigFacade
	Logger         *log.Logger
}

// ContinueFlow returns a step advancing to next, or positional fallthrough if nil.
func (b *ComponentBase) ContinueFlow(next *string) model.FlowStep {
	return model.FlowStep{Next: next, FlowDefinition: b.FlowDefinition}
}

// ExitFlowWithError terminates the flow: sets status.error, mirrors it into
// context["error"], logs it, and returns a step with next = "exit".
func (b *ComponentBase) ExitFlowWithError(message string) model.FlowStep {
	b.FlowDefinition.Status.Error = &message
	b.Context.Set("error", message)
	b.Logger.Error(message, log.String(log.LoggerKeyComponentName, b.ComponentKey))

	exit := model.ExitKey
	return model.FlowStep{Next: &exit, FlowDefinition: b.FlowDefinition}
}

// Invoke runs subFlow through the executor to termination. The sub-flow inherits
// the parent's session_id unless it already carries one of its own.
func (b *ComponentBase) Invoke(ctx context.Context, subFlow *model.FlowDefinition) (*model.FlowDefinition, error) {
	if subFlow.SessionID == "" {
		subFlow.SessionID = b.FlowDefinition.SessionID
	}
	return b.Engine.Invoke(ctx, subFlow, b.TunnelAuth)
}

// InvokeComponent executes exactly one step of flow's component named key.
func (b *ComponentBase) InvokeComponent(ctx context.Context, flow *model.FlowDefinition, key string) (
	model.FlowStep, error) {
	return b.Engine.InvokeComponent(ctx, flow, key, b.TunnelAuth)
}

// Emit produces a FlowEvent into the event bus for this component's session.
func (b *ComponentBase) Emit(eventName, data string) {
	b.Engine.Emit(model.FlowEvent{
		SessionID: b.FlowDefinition.SessionID,
		Event:     eventName,
		Data:      data,
	}, "")
}

// InvokeExecute is the runtime wrapper the executor calls instead of Execute
// directly: it times the call, recovers a panic into an error matching the
// documented message shape, and appends a trace entry to status.trace
// unconditionally - tracing happens even on failure.
func InvokeExecute(ctx context.Context, comp Component, flowDefinition *model.FlowDefinition,
	key, name string, evaluatedConfig map[string]any, attempt int) (model.FlowStep, error) {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "component.invoke_execute", trace.WithAttributes(
		attribute.String("component.key", key),
		attribute.String("component.name", name),
	))
	defer span.End()

	start := time.Now()
	step, err := runExecute(comp, name)
	elapsed := time.Since(start).Milliseconds()

	span.SetAttributes(attribute.Int64("elapsed_ms", elapsed))
	if err != nil {
		span.RecordError(err)
	}

	flowDefinition.Status.Trace = append(flowDefinition.Status.Trace, model.TraceEntry{
		ElapsedTimeMs: elapsed,
		Component:     model.TraceComponent{Key: key, Name: name},
		Config:        evaluatedConfig,
		Context:       flowDefinition.Context,
		Attempt:       attempt,
	})

	return step, err
}

func runExecute(comp Component, name string) (step model.FlowStep, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("error executing component. name=%s], error: %v, stack=%s", name, r, debug.Stack())
		}
	}()
	return comp.Execute()
}
