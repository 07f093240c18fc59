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

// Package engine is the flow executor: the single-step, key-driven state
// machine that advances a flow from its starting component to termination.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nodeengine/engine/internal/flow/eventbus"
	"github.com/nodeengine/engine/internal/flow/harness"
	"github.com/nodeengine/engine/internal/flow/logpipeline"
	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/flow/registry"
	"github.com/nodeengine/engine/internal/system/log"
	"github.com/nodeengine/engine/internal/system/utils"
)

const tracerName = "github.com/nodeengine/engine/internal/flow/engine"

// maxDebugLogEntries bounds how many trailing log entries a debug record
// keeps, per §4.2.
const maxDebugLogEntries = 4

// Engine drives flows to completion. It satisfies harness.EngineHandle so
// components can invoke sub-flows, invoke a single sibling step, and emit
// events without holding a direct reference back to the engine type.
type Engine struct {
	registryRoot string
	registry     *registry.Registry
	bus          *eventbus.Bus
	logs         *logpipeline.Pipeline
	logger       *log.Logger
}

var _ harness.EngineHandle = (*Engine)(nil)

// New constructs an Engine resolving component registrations under
// registryRoot.
func New(registryRoot string, reg *registry.Registry, bus *eventbus.Bus, logs *logpipeline.Pipeline) *Engine {
	return &Engine{
		registryRoot: registryRoot,
		registry:     reg,
		bus:          bus,
		logs:         logs,
		logger:       log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Engine")),
	}
}

// Invoke drives flowDefinition to termination. It never fails: any error is
// encoded into the returned definition's status.error.
func (e *Engine) Invoke(ctx context.Context, flowDefinition *model.FlowDefinition, tunnelAuth string) (
	*model.FlowDefinition, error) {
	if flowDefinition.SessionID == "" {
		flowDefinition.SessionID = utils.GenerateUUID()
	}
	if flowDefinition.Context == nil {
		flowDefinition.Context = make(map[string]any)
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "flow.invoke", trace.WithAttributes(
		attribute.String("flow.session_id", flowDefinition.SessionID),
		attribute.String("flow.key", flowDefinition.Key),
	))
	defer span.End()

	if len(flowDefinition.Flow) == 0 {
		e.fail(flowDefinition, "No components found in flow")
		span.RecordError(errors.New(*flowDefinition.Status.Error))
		flowDefinition.Context["session_id"] = flowDefinition.SessionID
		return flowDefinition, nil
	}

	next := flowDefinition.Flow[0].Key
	attempts := make(map[string]int)

	for next != model.ExitKey {
		component, index := findComponent(flowDefinition.Flow, next)
		if component == nil {
			e.fail(flowDefinition, fmt.Sprintf("No component found with key: %s", next))
			if current := flowDefinition.Status.CurrentComponent; current != nil {
				e.attachDebug(ctx, flowDefinition, current, nil, nil, nil)
			}
			break
		}

		flowDefinition.Status.CurrentComponent = component
		attempts[component.Key]++

		step, err := e.runStep(ctx, flowDefinition, component, tunnelAuth, attempts[component.Key])
		if err != nil {
			span.RecordError(err)
			break
		}

		next = resolveNext(step, flowDefinition.Flow, index)
	}

	flowDefinition.Context["session_id"] = flowDefinition.SessionID
	return flowDefinition, nil
}

// InvokeComponent executes exactly one step of flowDefinition's component
// named componentKey and returns its step result without advancing further.
func (e *Engine) InvokeComponent(ctx context.Context, flowDefinition *model.FlowDefinition, componentKey,
	tunnelAuth string) (model.FlowStep, error) {
	if flowDefinition.Context == nil {
		flowDefinition.Context = make(map[string]any)
	}

	component, _ := findComponent(flowDefinition.Flow, componentKey)
	if component == nil {
		e.fail(flowDefinition, fmt.Sprintf("No component found with key: %s", componentKey))
		return model.FlowStep{Next: strPtr(model.ExitKey), FlowDefinition: flowDefinition}, nil
	}

	flowDefinition.Status.CurrentComponent = component
	step, err := e.runStep(ctx, flowDefinition, component, tunnelAuth, 1)
	return step, err
}

// Emit satisfies harness.EngineHandle by forwarding to the event bus.
func (e *Engine) Emit(evt model.FlowEvent, targetConnectionID string) {
	e.bus.Emit(evt, targetConnectionID)
}

// runStep loads component's registration, builds its harness, and invokes it
// through harness.InvokeExecute. Any load or execution error fails the flow
// and returns the error so the caller can decide whether to keep looping.
func (e *Engine) runStep(ctx context.Context, flowDefinition *model.FlowDefinition, component *model.FlowComponent,
	tunnelAuth string, attempt int) (model.FlowStep, error) {
	reg, err := e.resolveRegistration(flowDefinition, component.Name)
	if err != nil {
		message := fmt.Sprintf("Error loading component: [%s] %v", component.Name, err)
		e.fail(flowDefinition, message)
		e.attachDebug(ctx, flowDefinition, component, nil, nil, nil)
		return model.FlowStep{}, errors.New(message)
	}
	if reg == nil {
		message := fmt.Sprintf("Error loading component: [%s] no such registration", component.Name)
		e.fail(flowDefinition, message)
		e.attachDebug(ctx, flowDefinition, component, nil, nil, nil)
		return model.FlowStep{}, errors.New(message)
	}

	base := &harness.ComponentBase{
		FlowDefinition: flowDefinition,
		ComponentKey:   component.Key,
		Engine:         e,
		TunnelAuth:     tunnelAuth,
		Context:        harness.NewContextFacade(flowDefinition.Context),
		Logger:         e.logger.With(log.String(log.LoggerKeyComponentName, component.Name)),
	}

	var classDefault map[string]any
	var info *harness.ComponentInfo
	comp, err := e.registry.Load(reg, base)
	if err == nil {
		if provider, ok := comp.(harness.InfoProvider); ok {
			got := provider.GetInfo()
			info = &got
			classDefault = got.DefaultConfig
		}
	}
	base.Config = harness.NewConfigFacade(component.Config, classDefault, flowDefinition.Context)

	if err != nil {
		message := fmt.Sprintf("Error loading component: [%s] %v", component.Name, err)
		e.fail(flowDefinition, message)
		e.attachDebug(ctx, flowDefinition, component, info, reg, nil)
		return model.FlowStep{}, errors.New(message)
	}

	if err := harness.ValidateConfig(classDefault, base.Config.Evaluated()); err != nil {
		message := fmt.Sprintf("Error loading component: [%s] %v", component.Name, err)
		e.fail(flowDefinition, message)
		e.attachDebug(ctx, flowDefinition, component, info, reg, comp)
		return model.FlowStep{}, errors.New(message)
	}

	e.logs.Log(flowDefinition, logpipeline.Namespace(flowDefinition, component.Key), model.LogLevelDebug,
		fmt.Sprintf("executing component %s (%s)", component.Key, component.Name))

	step, err := harness.InvokeExecute(ctx, comp, flowDefinition, component.Key, component.Name,
		base.Config.Evaluated(), attempt)
	if err != nil {
		e.fail(flowDefinition, err.Error())
		e.attachDebug(ctx, flowDefinition, component, info, reg, comp)
		return model.FlowStep{}, err
	}
	return step, nil
}

func (e *Engine) resolveRegistration(flowDefinition *model.FlowDefinition, name string) (
	*model.ComponentRegistration, error) {
	for i := range flowDefinition.Registry {
		if flowDefinition.Registry[i].Key == name {
			return &flowDefinition.Registry[i], nil
		}
	}
	return e.registry.Find(e.registryRoot, name)
}

// fail terminates the flow: sets status.error, mirrors it into
// context["error"], and logs it at error level.
func (e *Engine) fail(flowDefinition *model.FlowDefinition, message string) {
	flowDefinition.Status.Error = &message
	flowDefinition.Context["error"] = message
	e.logs.Log(flowDefinition, logpipeline.Namespace(flowDefinition, ""), model.LogLevelError, message)
}

// attachDebug assembles the §4.2 debug record into context["debug"] on any
// executor- or harness-reported error: the current flow (with *service*-named
// keys redacted), the unredacted context, the last few log entries, the
// component's static metadata when available, and its source text when the
// registration makes that cheaply obtainable.
func (e *Engine) attachDebug(ctx context.Context, flowDefinition *model.FlowDefinition, component *model.FlowComponent,
	info *harness.ComponentInfo, reg *model.ComponentRegistration, comp harness.Component) {
	debug := map[string]any{
		"error": flowDefinition.Status.Error,
		"component": map[string]any{
			"key":  component.Key,
			"name": component.Name,
		},
		"flow":             redactedFlow(flowDefinition.Flow),
		"context":          flowDefinition.Context,
		"log":              lastLogEntries(flowDefinition.Status.Log, maxDebugLogEntries),
		"component_source": componentSource(ctx, reg, comp),
	}
	if info != nil {
		debug["component_info"] = info
	}
	flowDefinition.Context["debug"] = debug
}

// serviceKeyPattern matches a key that IS "service", or ends in "_service" -
// the same shape as the original implementation's `(\w+_)?service` fullmatch,
// not a blanket substring search.
var serviceKeyPattern = regexp.MustCompile(`^(\w+_)?service$`)

// redactedFlow re-marshals flow's components through JSON (mirroring the
// original's model_dump()) and strips any key fullmatching serviceKeyPattern,
// recursively through nested maps and lists, per §4.2's "flow serialized with
// all *service*-named keys redacted." Malformed entries are skipped rather
// than failing the whole debug record, since this is all best-effort.
func redactedFlow(flow []model.FlowComponent) []map[string]any {
	out := make([]map[string]any, 0, len(flow))
	for _, c := range flow {
		raw, err := json.Marshal(c)
		if err != nil {
			continue
		}
		var asMap map[string]any
		if err := json.Unmarshal(raw, &asMap); err != nil {
			continue
		}
		stripServiceKeys(asMap)
		out = append(out, asMap)
	}
	return out
}

func stripServiceKeys(v any) {
	switch val := v.(type) {
	case map[string]any:
		for k := range val {
			if serviceKeyPattern.MatchString(k) {
				delete(val, k)
			}
		}
		for _, nested := range val {
			stripServiceKeys(nested)
		}
	case []any:
		for _, item := range val {
			stripServiceKeys(item)
		}
	}
}

// sourceCodeProvider is implemented by component instances that can report
// their own execute source over the wire. Only the remote-endpoint runner
// satisfies it today; asserting the interface here (rather than importing
// remoteexec) keeps the engine from depending on a specific loader.
type sourceCodeProvider interface {
	SourceCode(ctx context.Context) (string, error)
}

// componentSource retrieves the source text of the failing component's
// execute method, best-effort, per §4.2. "code" registrations carry their
// literal source already; an "endpoint" component can be asked for it over
// the wire. "module"/"mcp" components have no equivalent in a statically
// compiled binary and are left empty.
func componentSource(ctx context.Context, reg *model.ComponentRegistration, comp harness.Component) string {
	if reg == nil {
		return ""
	}
	if reg.Type == model.RegistrationTypeCode {
		return reg.Config.Code
	}
	if reg.Type != model.RegistrationTypeEndpoint {
		return ""
	}
	if provider, ok := comp.(sourceCodeProvider); ok {
		if src, err := provider.SourceCode(ctx); err == nil {
			return src
		}
	}
	return ""
}

func lastLogEntries(items []model.LogItem, n int) []model.LogItem {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

// findComponent returns the first FlowComponent in flow whose key matches,
// along with its positional index. Duplicates keep the first match.
func findComponent(flow []model.FlowComponent, key string) (*model.FlowComponent, int) {
	for i := range flow {
		if flow[i].Key == key {
			return &flow[i], i
		}
	}
	return nil, -1
}

// resolveNext applies the explicit-next-wins-over-positional-fallthrough rule.
func resolveNext(step model.FlowStep, flow []model.FlowComponent, currentIndex int) string {
	if step.Next != nil && *step.Next != "" {
		return *step.Next
	}
	if currentIndex+1 >= len(flow) {
		return model.ExitKey
	}
	return flow[currentIndex+1].Key
}

func strPtr(s string) *string { return &s }
