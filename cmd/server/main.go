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

// Package main is the entry point for starting the node engine server.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nodeengine/engine/internal/system/config"
	"github.com/nodeengine/engine/internal/system/log"
	"github.com/nodeengine/engine/internal/system/middleware"
	"github.com/nodeengine/engine/internal/system/telemetry"
)

// shutdownTimeout bounds how long graceful shutdown waits for in-flight
// requests before giving up.
const shutdownTimeout = 5 * time.Second

// netListen and tlsListen are indirected through variables so tests can
// substitute a failing listener without binding a real socket.
var (
	netListen = net.Listen
	tlsListen = tls.Listen
)

func main() {
	logger := log.GetLogger()

	flags := parseFlags(logger)

	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", log.Error(err))
	}
	if flags.host != "" {
		cfg.Server.Host = flags.host
	}
	if flags.port != 0 {
		cfg.Server.Port = flags.port
	}
	if flags.registryRoot != "" {
		cfg.Registry.Root = flags.registryRoot
	}

	if _, err := os.Stat(cfg.Registry.Root); err != nil {
		logger.Fatal("registry root does not exist", log.String("registry_root", cfg.Registry.Root), log.Error(err))
	}

	ctx := context.Background()
	tracerProvider, err := telemetry.Initialize(ctx, cfg.OTel, "node-engine")
	if err != nil {
		logger.Error("failed to initialize opentelemetry, continuing without tracing", log.Error(err))
	}

	handler := buildServices(logger, cfg)

	mux := http.NewServeMux()
	mux.Handle("/", handler)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var server *http.Server
	if cfg.TLS.Enabled {
		server = startTLSServer(logger, cfg, mux)
	} else {
		logger.Info("TLS is not enabled, starting server without TLS")
		server = startHTTPServer(logger, cfg, mux)
	}

	<-sigChan
	logger.Info("shutting down server...")

	var tracing shutdownable
	if tracerProvider != nil {
		tracing = tracerProvider
	}
	gracefulShutdown(logger, server, tracing)
}

type cliFlags struct {
	host         string
	port         int
	registryRoot string
	configPath   string
}

// parseFlags parses --host, --port, --registry-root and the optional
// --config, per §6's CLI surface.
func parseFlags(logger *log.Logger) cliFlags {
	host := flag.String("host", "", "Address to bind the HTTP service to")
	port := flag.Int("port", 0, "Port to bind the HTTP service to")
	registryRoot := flag.String("registry-root", "", "Root directory holding registry.json and component sources")
	configPath := flag.String("config", "", "Path to an optional YAML configuration overlay")
	flag.Parse()

	if *registryRoot == "" {
		logger.Fatal("--registry-root is required")
	}

	return cliFlags{host: *host, port: *port, registryRoot: *registryRoot, configPath: *configPath}
}

// startTLSServer starts the HTTPS listener.
func startTLSServer(logger *log.Logger, cfg *config.Config, mux *http.ServeMux) *http.Server {
	server, serverAddr := createHTTPServer(logger, cfg, mux)

	tlsConfig, err := loadTLSConfig(cfg)
	if err != nil {
		logger.Fatal("failed to load TLS configuration", log.Error(err))
	}

	ln := createTLSListener(logger, server, tlsConfig)

	logger.Info("node engine server started (HTTPS)", log.String("address", serverAddr))
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to serve requests", log.Error(err))
		}
	}()

	return server
}

// startHTTPServer starts the plaintext HTTP listener.
func startHTTPServer(logger *log.Logger, cfg *config.Config, mux *http.ServeMux) *http.Server {
	server, serverAddr := createHTTPServer(logger, cfg, mux)

	ln := createListener(logger, server)

	logger.Info("node engine server started (HTTP)", log.String("address", serverAddr))
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to serve HTTP requests", log.Error(err))
		}
	}()

	return server
}

// createHTTPServer builds the *http.Server common to both TLS and plaintext
// listeners, wrapping mux with correlation-ID propagation and access logging.
func createHTTPServer(logger *log.Logger, cfg *config.Config, mux *http.ServeMux) (*http.Server, string) {
	handler := middleware.CorrelationID(mux)
	handler = middleware.AccessLog(logger)(handler)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:              serverAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return server, serverAddr
}

// createListener binds server.Addr, exiting the process on failure.
func createListener(logger *log.Logger, server *http.Server) net.Listener {
	ln, err := netListen("tcp", server.Addr)
	if err != nil {
		logger.Fatal("failed to start listener", log.Error(err))
	}
	return ln
}

// createTLSListener binds server.Addr under tlsConfig, exiting the process
// on failure.
func createTLSListener(logger *log.Logger, server *http.Server, tlsConfig *tls.Config) net.Listener {
	ln, err := tlsListen("tcp", server.Addr, tlsConfig)
	if err != nil {
		logger.Fatal("failed to start TLS listener", log.Error(err))
	}
	return ln
}

// loadTLSConfig builds a *tls.Config from cfg.TLS's cert/key pair and
// minimum version.
func loadTLSConfig(cfg *config.Config) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate pair: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tlsMinVersion(cfg.TLS.MinVersion),
	}, nil
}

func tlsMinVersion(version string) uint16 {
	switch version {
	case "1.2":
		return tls.VersionTLS12
	default:
		return tls.VersionTLS13
	}
}

// gracefulShutdown drains in-flight requests and flushes pending spans
// before the process exits.
func gracefulShutdown(logger *log.Logger, server *http.Server, tracerProvider shutdownable) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("error during server shutdown", log.Error(err))
	} else {
		logger.Debug("http server shutdown completed")
	}

	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.Error("error shutting down tracer provider", log.Error(err))
		}
	}

	logger.Info("server shutdown completed")
}

// shutdownable is the subset of sdktrace.TracerProvider gracefulShutdown
// needs, kept narrow so a nil provider (tracing disabled) is a typed nil
// interface value rather than a concrete *sdktrace.TracerProvider check.
type shutdownable interface {
	Shutdown(ctx context.Context) error
}
