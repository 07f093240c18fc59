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

// Package middleware provides gorilla/mux-compatible request middleware for
// the service boundary.
package middleware

import (
	"net/http"

	sysContext "github.com/nodeengine/engine/internal/system/context"
)

// correlationIDHeaders are checked, in order, before a new trace ID is minted.
var correlationIDHeaders = []string{"X-Correlation-ID", "X-Request-ID", "X-Trace-ID"}

// CorrelationID extracts or generates a trace ID for each request, stores it
// in the request context, and mirrors it back as a response header.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := extractCorrelationID(r)

		ctx := r.Context()
		if traceID != "" {
			ctx = sysContext.WithTraceID(ctx, traceID)
		} else {
			ctx = sysContext.EnsureTraceID(ctx)
			traceID = sysContext.GetTraceID(ctx)
		}
		r = r.WithContext(ctx)

		w.Header().Set("X-Correlation-ID", traceID)
		next.ServeHTTP(w, r)
	})
}

func extractCorrelationID(r *http.Request) string {
	for _, header := range correlationIDHeaders {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}
	return ""
}
