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

// Package context carries a request's correlation (trace) ID through the
// standard library context.Context, independent of the flow engine's own
// session_id.
package context

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// TraceIDKey is the context key storing the trace ID.
const TraceIDKey contextKey = "trace_id"

// GetTraceID retrieves the trace ID from ctx, generating one if absent.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		return traceID
	}
	return uuid.NewString()
}

// WithTraceID attaches traceID to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// EnsureTraceID guarantees ctx carries a trace ID, minting one if needed.
func EnsureTraceID(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); !ok || traceID == "" {
		ctx = WithTraceID(ctx, uuid.NewString())
	}
	return ctx
}
