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

package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/system/error/serviceerror"
	"github.com/nodeengine/engine/internal/system/log"
	sysutils "github.com/nodeengine/engine/internal/system/utils"
)

// ssePingInterval bounds how long an idle subscriber waits before a keep-alive
// ping is interleaved, so intermediary proxies don't time out the connection.
const ssePingInterval = 30 * time.Second

// handleSSE implements GET /sse?session_id=<s>&connection_id=<c>?: a
// server-sent-events stream that completes when the client disconnects.
func (h *handlers) handleSSE(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeServiceError(w, http.StatusBadRequest, &serviceerror.ErrorInvalidRequest)
		return
	}
	connectionID := r.URL.Query().Get("connection_id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeServiceError(w, http.StatusInternalServerError, &serviceerror.InternalServerError)
		return
	}

	sub := h.bus.AddSubscriber(sessionID, connectionID)
	defer h.bus.Remove(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, evt.Data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// handleEmit implements POST /emit_sse_message?connection_id=<c>?: routes per
// §4.6's bus semantics. When both a query-string connection_id and a
// session_id in the body are present, connection_id wins - it narrows
// delivery to one stream, which is a strictly more specific target than
// "every subscriber on this session".
func (h *handlers) handleEmit(w http.ResponseWriter, r *http.Request) {
	evt, err := sysutils.DecodeJSONBody[model.FlowEvent](r)
	if err != nil {
		writeServiceError(w, http.StatusBadRequest, &serviceerror.ErrorInvalidRequest)
		return
	}

	connectionID := r.URL.Query().Get("connection_id")
	if connectionID == "" && evt.SessionID == "" {
		h.logger.Error("emit_sse_message missing routing target", log.Error(errMissingSessionID))
		writeServiceError(w, http.StatusBadRequest, &serviceerror.ErrorInvalidRequest)
		return
	}

	h.bus.Emit(*evt, connectionID)
	sysutils.WriteSuccessResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
