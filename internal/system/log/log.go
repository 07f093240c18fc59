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

// Package log provides a structured logger used throughout the engine. It wraps the
// standard library's log/slog rather than a third-party structured-logging library: no
// logging library appears anywhere in the dependency graph this package was generalized
// from, so log/slog is the faithful choice rather than an invented one.
package log

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// Well-known structured field keys, mirrored across every component that logs.
const (
	LoggerKeyComponentName = "component"
	LoggerKeyFlowID        = "flowID"
	LoggerKeyFlowKey       = "flowKey"
	LoggerKeySessionID     = "sessionID"
	LoggerKeyExecutorName  = "executorName"
)

var (
	defaultLogger atomic.Pointer[Logger]
	initOnce      sync.Once
)

// Logger is a structured logger that carries a fixed set of fields through With.
type Logger struct {
	inner *slog.Logger
}

// Field is a single structured logging attribute.
type Field = slog.Attr

// String builds a string field.
func String(key, value string) Field { return slog.String(key, value) }

// Int builds an int field.
func Int(key string, value int) Field { return slog.Int(key, value) }

// Bool builds a bool field.
func Bool(key string, value bool) Field { return slog.Bool(key, value) }

// Error builds an error field under the conventional "error" key.
func Error(err error) Field {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Any builds a field from an arbitrary value.
func Any(key string, value any) Field { return slog.Any(key, value) }

// Initialize configures the process-wide default logger. Safe to call once at startup;
// subsequent calls are no-ops so test binaries and library callers can't clobber it.
func Initialize(level string, jsonFormat bool) {
	initOnce.Do(func() {
		defaultLogger.Store(newLogger(level, jsonFormat))
	})
}

// GetLogger returns the process-wide default logger, initializing it with INFO/text
// defaults if Initialize was never called.
func GetLogger() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	Initialize("info", false)
	return defaultLogger.Load()
}

func newLogger(level string, jsonFormat bool) *Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return &Logger{inner: slog.New(handler)}
}

// With returns a derived logger with the given fields attached to every subsequent record.
func (l *Logger) With(fields ...Field) *Logger {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return &Logger{inner: l.inner.With(args...)}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, fields...) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) { l.log(slog.LevelInfo, msg, fields...) }

// Warn logs at warning level.
func (l *Logger) Warn(msg string, fields ...Field) { l.log(slog.LevelWarn, msg, fields...) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) { l.log(slog.LevelError, msg, fields...) }

// Fatal logs at error level and terminates the process. Reserved for unrecoverable
// startup failures in cmd/server.
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.log(slog.LevelError, msg, fields...)
	os.Exit(1)
}

func (l *Logger) log(level slog.Level, msg string, fields ...Field) {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	l.inner.Log(context.Background(), level, msg, args...)
}
