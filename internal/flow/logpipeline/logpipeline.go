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

// Package logpipeline fans every component- or runtime-scoped log record to
// three independent sinks: the flow's own status.log, the event bus (only when
// streaming is requested), and the process console.
package logpipeline

import (
	"encoding/json"
	"fmt"

	"github.com/nodeengine/engine/internal/flow/eventbus"
	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/system/log"
)

// Pipeline fans a LogItem to the status, event and console sinks.
type Pipeline struct {
	bus          *eventbus.Bus
	debugEnabled bool
}

// New constructs a Pipeline that emits through bus. debugEnabled mirrors the
// process-wide log level: at debug, the event sink includes the full flow
// definition on every record, not just error-level ones.
func New(bus *eventbus.Bus, debugEnabled bool) *Pipeline {
	return &Pipeline{bus: bus, debugEnabled: debugEnabled}
}

// Namespace builds the session/flow-scoped namespace a log record is filed
// under, so multi-flow console output stays distinguishable.
func Namespace(flowDefinition *model.FlowDefinition, sub string) string {
	if sub == "" {
		return fmt.Sprintf("%s:%s", flowDefinition.SessionID, flowDefinition.Key)
	}
	return fmt.Sprintf("%s:%s:%s", flowDefinition.SessionID, flowDefinition.Key, sub)
}

// Log appends a LogItem under namespace to flowDefinition.Status.Log, writes it
// to the console, and - when context["stream_log"] is truthy - emits it as a
// "log" FlowEvent, fire-and-forget.
func (p *Pipeline) Log(flowDefinition *model.FlowDefinition, namespace string, level model.LogLevel, message string) {
	item := model.LogItem{Namespace: namespace, Level: level, Message: message}
	flowDefinition.Status.Log = append(flowDefinition.Status.Log, item)

	p.toConsole(namespace, level, message)
	p.toEventBus(flowDefinition, item)
}

func (p *Pipeline) toConsole(namespace string, level model.LogLevel, message string) {
	logger := log.GetLogger().With(log.String("namespace", namespace))
	switch level {
	case model.LogLevelDebug:
		logger.Debug(message)
	case model.LogLevelWarning:
		logger.Warn(message)
	case model.LogLevelError, model.LogLevelCritical:
		logger.Error(message)
	default:
		logger.Info(message)
	}
}

func (p *Pipeline) toEventBus(flowDefinition *model.FlowDefinition, item model.LogItem) {
	streamLog, _ := flowDefinition.Context["stream_log"].(bool)
	if !streamLog {
		return
	}

	payload := map[string]any{
		"namespace": item.Namespace,
		"level":     item.Level,
		"message":   item.Message,
	}
	if item.Level == model.LogLevelError || item.Level == model.LogLevelCritical || p.debugEnabled {
		payload["flow_definition"] = flowDefinition
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.GetLogger().Error("failed to encode log event payload", log.Error(err))
		return
	}

	p.bus.Emit(model.FlowEvent{
		SessionID: flowDefinition.SessionID,
		Event:     "log",
		Data:      string(data),
	}, "")
}
