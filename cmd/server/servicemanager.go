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

package main

import (
	"net/http"
	"time"

	"github.com/nodeengine/engine/internal/flow/components"
	"github.com/nodeengine/engine/internal/flow/engine"
	"github.com/nodeengine/engine/internal/flow/eventbus"
	"github.com/nodeengine/engine/internal/flow/logpipeline"
	"github.com/nodeengine/engine/internal/flow/registry"
	"github.com/nodeengine/engine/internal/flow/service"
	"github.com/nodeengine/engine/internal/mcp"
	"github.com/nodeengine/engine/internal/system/config"
	"github.com/nodeengine/engine/internal/system/log"
	"github.com/nodeengine/engine/internal/system/tunnelauth"
)

// buildServices wires the registry, event bus, log pipeline, and executor,
// then mounts the HTTP service boundary and - when the registry loads
// cleanly - the MCP server alongside it at /mcp.
func buildServices(logger *log.Logger, cfg *config.Config) http.Handler {
	reg := registry.New(components.BuiltIns())
	bus := eventbus.New(cfg.EventBus.QueueSize)
	logs := logpipeline.New(bus, cfg.Log.Level == "debug")
	eng := engine.New(cfg.Registry.Root, reg, bus, logs)
	issuer := tunnelauth.NewIssuer(cfg.TunnelAuth.SigningKey, time.Duration(cfg.TunnelAuth.ValidityPeriod)*time.Second)

	router := service.NewRouter(eng, reg, bus, cfg.Registry.Root, issuer)

	mcpServer, err := mcp.NewServer(eng, reg, cfg.Registry.Root)
	if err != nil {
		logger.Warn("failed to build mcp server, /mcp will not be mounted", log.Error(err))
		return router
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpServer.Handler())
	mux.Handle("/", router)
	return mux
}
