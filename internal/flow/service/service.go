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

// Package service wires the flow engine to its HTTP boundary: invoke,
// invoke_component, registry listing, SSE subscription, and event emission.
package service

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nodeengine/engine/internal/flow/eventbus"
	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/flow/registry"
	"github.com/nodeengine/engine/internal/system/log"
	"github.com/nodeengine/engine/internal/system/middleware"
	"github.com/nodeengine/engine/internal/system/tunnelauth"
)

// Engine is the subset of internal/flow/engine.Engine the handlers call.
type Engine interface {
	Invoke(ctx context.Context, flowDefinition *model.FlowDefinition, tunnelAuth string) (
		*model.FlowDefinition, error)
	InvokeComponent(ctx context.Context, flowDefinition *model.FlowDefinition, componentKey,
		tunnelAuth string) (model.FlowStep, error)
}

const tunnelAuthHeader = "X-Tunnel-Authorization"

// handlers holds the dependencies every route handler closes over.
type handlers struct {
	engine       Engine
	registry     *registry.Registry
	bus          *eventbus.Bus
	registryRoot string
	issuer       *tunnelauth.Issuer
	logger       *log.Logger
}

// NewRouter builds the gorilla/mux router implementing §6's route set, wrapped
// with correlation-ID propagation and access logging. issuer mints the
// tunnel-auth token a fresh invocation carries, per §4.4.2.
func NewRouter(eng Engine, reg *registry.Registry, bus *eventbus.Bus, registryRoot string,
	issuer *tunnelauth.Issuer) http.Handler {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Service"))
	h := &handlers{engine: eng, registry: reg, bus: bus, registryRoot: registryRoot, issuer: issuer, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/invoke", h.handleInvoke).Methods(http.MethodPost)
	router.HandleFunc("/invoke_component", h.handleInvokeComponent).Methods(http.MethodPost)
	router.HandleFunc("/registry", h.handleRegistryList).Methods(http.MethodGet)
	router.HandleFunc("/sse", h.handleSSE).Methods(http.MethodGet)
	router.HandleFunc("/emit_sse_message", h.handleEmit).Methods(http.MethodPost)
	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	router.Use(mux.MiddlewareFunc(middleware.CorrelationID))
	router.Use(mux.MiddlewareFunc(middleware.AccessLog(logger)))

	return router
}
