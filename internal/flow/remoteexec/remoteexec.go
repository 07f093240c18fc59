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

// Package remoteexec implements the component contract by forwarding
// execution over HTTP to a remote service hosting the implementation.
package remoteexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nodeengine/engine/internal/flow/harness"
	"github.com/nodeengine/engine/internal/flow/model"
	httpservice "github.com/nodeengine/engine/internal/system/http"
	"github.com/nodeengine/engine/internal/system/log"
	"github.com/nodeengine/engine/internal/system/tunnelauth"
)

// tunnelAuthHeader is the header name the remote collaborator must trust.
const tunnelAuthHeader = "X-Tunnel-Authorization"

// Runner invokes one component by forwarding the flow definition to a
// remote endpoint's /invoke_component route. No client-side timeout is
// applied - a remote collaborator may run arbitrarily long.
type Runner struct {
	base          *harness.ComponentBase
	endpoint      string
	componentName string
	className     string
	client        *http.Client
	logger        *log.Logger
}

// New constructs a Runner bound to endpoint, tagged with the
// component_name/class_name query parameters §4.5 requires. The endpoint's
// scheme is validated lazily, at Execute time: a registration pointing at a
// non-local http:// endpoint still loads cleanly, and only fails the flow
// when the component actually runs.
func New(base *harness.ComponentBase, endpoint, componentName, className string) (*Runner, error) {
	return &Runner{
		base:          base,
		endpoint:      endpoint,
		componentName: componentName,
		className:     className,
		client:        &http.Client{},
		logger:        base.Logger.With(log.String(log.LoggerKeyComponentName, "RemoteExec")),
	}, nil
}

// Execute implements harness.Component by POSTing the current flow
// definition to <endpoint>/invoke_component.
func (r *Runner) Execute() (model.FlowStep, error) {
	if err := httpservice.CheckEndpointScheme(r.endpoint); err != nil {
		return r.base.ExitFlowWithError(err.Error()), nil
	}

	reqURL, err := r.buildURL("invoke_component")
	if err != nil {
		return r.base.ExitFlowWithError(err.Error()), nil
	}

	resp, err := r.post(reqURL, r.base.FlowDefinition)
	if err != nil {
		return r.base.ExitFlowWithError(fmt.Sprintf("remote component invocation failed: %v", err)), nil
	}

	var step model.FlowStep
	if err := json.Unmarshal(resp, &step); err != nil {
		return r.base.ExitFlowWithError(fmt.Sprintf("failed to decode remote component response: %v", err)), nil
	}
	return step, nil
}

// SourceCode fetches the component's literal source via a sibling call to
// /get_component_source, using the same auth and URL policy as Execute.
func (r *Runner) SourceCode(ctx context.Context) (string, error) {
	if err := httpservice.CheckEndpointScheme(r.endpoint); err != nil {
		return "", err
	}

	reqURL, err := r.buildURL("get_component_source")
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build source code request: %w", err)
	}
	r.attachAuth(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch component source: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read component source response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get_component_source returned status %d: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

func (r *Runner) buildURL(path string) (string, error) {
	base, err := url.Parse(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint url: %w", err)
	}
	base.Path = joinPath(base.Path, path)

	q := base.Query()
	q.Set("component_name", r.componentName)
	q.Set("class_name", r.className)
	q.Set("component_key", r.base.ComponentKey)
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func (r *Runner) post(reqURL string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	r.attachAuth(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

func (r *Runner) attachAuth(req *http.Request) {
	if r.base.TunnelAuth == "" {
		return
	}
	token := r.base.TunnelAuth
	if !strings.HasPrefix(token, "tunnel ") {
		token = tunnelauth.Header(token)
	}
	req.Header.Set(tunnelAuthHeader, token)
}

func joinPath(base, suffix string) string {
	if base == "" || base[len(base)-1] != '/' {
		base += "/"
	}
	return base + suffix
}
