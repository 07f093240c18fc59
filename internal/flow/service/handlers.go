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

	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/system/error/apierror"
	"github.com/nodeengine/engine/internal/system/error/serviceerror"
	"github.com/nodeengine/engine/internal/system/log"
	sysutils "github.com/nodeengine/engine/internal/system/utils"
)

// handleInvoke implements POST /invoke: always 200, errors travel in status.error.
func (h *handlers) handleInvoke(w http.ResponseWriter, r *http.Request) {
	flowDefinition, err := sysutils.DecodeJSONBody[model.FlowDefinition](r)
	if err != nil {
		writeServiceError(w, http.StatusBadRequest, &serviceerror.ErrorInvalidRequest)
		return
	}

	tunnelAuth, err := h.tunnelAuthFor(r, flowDefinition)
	if err != nil {
		h.logger.Error("failed to mint tunnel auth token", log.Error(err))
		writeServiceError(w, http.StatusInternalServerError, &serviceerror.InternalServerError)
		return
	}

	result, err := h.engine.Invoke(r.Context(), flowDefinition, tunnelAuth)
	if err != nil {
		h.logger.Error("unexpected error invoking flow", log.Error(err))
		message := err.Error()
		flowDefinition.Status.Error = &message
		if flowDefinition.Context == nil {
			flowDefinition.Context = map[string]any{}
		}
		flowDefinition.Context["error"] = message
		result = flowDefinition
	}

	sysutils.WriteSuccessResponse(w, http.StatusOK, result)
}

// handleInvokeComponent implements POST /invoke_component?component_key=<k>.
func (h *handlers) handleInvokeComponent(w http.ResponseWriter, r *http.Request) {
	componentKey := r.URL.Query().Get("component_key")
	if componentKey == "" {
		writeServiceError(w, http.StatusBadRequest, &serviceerror.ErrorInvalidRequest)
		return
	}

	flowDefinition, err := sysutils.DecodeJSONBody[model.FlowDefinition](r)
	if err != nil {
		writeServiceError(w, http.StatusBadRequest, &serviceerror.ErrorInvalidRequest)
		return
	}

	tunnelAuth, err := h.tunnelAuthFor(r, flowDefinition)
	if err != nil {
		h.logger.Error("failed to mint tunnel auth token", log.Error(err))
		writeServiceError(w, http.StatusInternalServerError, &serviceerror.InternalServerError)
		return
	}

	step, err := h.engine.InvokeComponent(r.Context(), flowDefinition, componentKey, tunnelAuth)
	if err != nil {
		h.logger.Error("unexpected error invoking component", log.Error(err))
		writeServiceError(w, http.StatusInternalServerError, &serviceerror.InternalServerError)
		return
	}

	sysutils.WriteSuccessResponse(w, http.StatusOK, step)
}

// handleRegistryList implements GET /registry: {key, label, description, type}
// sorted by key.
func (h *handlers) handleRegistryList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.registry.List(h.registryRoot)
	if err != nil {
		h.logger.Error("failed to list registry", log.Error(err))
		writeServiceError(w, http.StatusInternalServerError, &serviceerror.InternalServerError)
		return
	}

	out := make([]model.RegistryListEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.RegistryListEntry{
			Key: e.Key, Label: e.Label, Description: e.Description, Type: e.Type,
		})
	}

	sysutils.WriteSuccessResponse(w, http.StatusOK, out)
}

// handleHealth implements GET /health: liveness only.
func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	sysutils.WriteSuccessResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tunnelAuthFor returns the incoming X-Tunnel-Authorization header verbatim
// if present, carrying a caller-supplied token across a flow's remaining
// steps. Otherwise it mints a fresh one over flowDefinition's session_id
// (generating one first if this is the flow's first submission), per §4.4.2.
func (h *handlers) tunnelAuthFor(r *http.Request, flowDefinition *model.FlowDefinition) (string, error) {
	if token := r.Header.Get(tunnelAuthHeader); token != "" {
		return token, nil
	}
	if flowDefinition.SessionID == "" {
		flowDefinition.SessionID = sysutils.GenerateUUID()
	}
	return h.issuer.Mint(flowDefinition.SessionID)
}

func writeServiceError(w http.ResponseWriter, statusCode int, svcErr *serviceerror.ServiceError) {
	sysutils.WriteErrorResponse(w, statusCode, apierror.ErrorResponse{
		Code:        svcErr.Code,
		Message:     svcErr.Error,
		Description: svcErr.ErrorDescription,
	})
}

var errMissingSessionID = fmt.Errorf("session_id is required")
