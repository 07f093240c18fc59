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

package components

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/nodeengine/engine/internal/flow/harness"
	"github.com/nodeengine/engine/internal/flow/model"
	"github.com/nodeengine/engine/internal/system/log"
)

const (
	defaultHTTPMethod     = "GET"
	defaultHTTPTimeoutSec = 10
	maxHTTPTimeoutSec     = 20
	maxHTTPRetryCount     = 5
	maxHTTPRetryDelayMs   = 5000
)

var validHTTPMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

// httpRequestComponent calls an external HTTP endpoint and maps selected
// fields of the response into the flow context.
type httpRequestComponent struct {
	base   *harness.ComponentBase
	logger *log.Logger
}

func newHTTPRequestComponent(base *harness.ComponentBase) (harness.Component, error) {
	return &httpRequestComponent{
		base:   base,
		logger: base.Logger.With(log.String(log.LoggerKeyComponentName, "HTTPRequest")),
	}, nil
}

func (c *httpRequestComponent) GetInfo() harness.ComponentInfo {
	return harness.ComponentInfo{
		Name:        "HTTPRequest",
		Description: "Calls an external HTTP endpoint and maps fields of the response into context.",
		DefaultConfig: map[string]any{
			"method":          defaultHTTPMethod,
			"timeout":         defaultHTTPTimeoutSec,
			"headers":         map[string]any{},
			"body":            map[string]any{},
			"responseMapping": map[string]any{},
			"errorHandling":   map[string]any{"failOnError": false, "retryCount": 0, "retryDelay": 0},
		},
	}
}

func (c *httpRequestComponent) Execute() (model.FlowStep, error) {
	url, _ := c.base.Config.Get("url", nil).(string)
	if url == "" {
		return c.base.ExitFlowWithError("url is required"), nil
	}

	method := strings.ToUpper(stringOrDefault(c.base.Config.Get("method", nil), defaultHTTPMethod))
	if !slices.Contains(validHTTPMethods, method) {
		return c.base.ExitFlowWithError(fmt.Sprintf("invalid HTTP method: %s", method)), nil
	}

	timeout := clamp(intOrDefault(c.base.Config.Get("timeout", nil), defaultHTTPTimeoutSec), 1, maxHTTPTimeoutSec)
	headers := stringMap(c.base.Config.Get("headers", nil))
	body, _ := c.base.Config.Get("body", nil).(map[string]any)
	responseMapping := stringMap(c.base.Config.Get("responseMapping", nil))

	failOnError, retryCount, retryDelay := c.errorHandling()
	retryCount = clamp(retryCount, 0, maxHTTPRetryCount)
	retryDelay = clamp(retryDelay, 0, maxHTTPRetryDelayMs)

	client := &http.Client{Timeout: time.Duration(timeout) * time.Second}

	var lastErr error
	for attempt := 0; attempt <= retryCount; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying HTTP request", log.Int("attempt", attempt))
			time.Sleep(time.Duration(retryDelay) * time.Millisecond)
		}

		mapped, err := c.doRequest(client, method, url, headers, body, responseMapping)
		if err == nil {
			for k, v := range mapped {
				c.base.Context.Set(k, v)
			}
			return c.base.ContinueFlow(nil), nil
		}
		lastErr = err
	}

	message := fmt.Sprintf("HTTP request failed after %d attempt(s): %v", retryCount+1, lastErr)
	if failOnError {
		return c.base.ExitFlowWithError(message), nil
	}
	c.logger.Warn(message)
	return c.base.ContinueFlow(nil), nil
}

func (c *httpRequestComponent) errorHandling() (failOnError bool, retryCount, retryDelay int) {
	eh, _ := c.base.Config.Get("errorHandling", nil).(map[string]any)
	if eh == nil {
		return false, 0, 0
	}
	failOnError, _ = eh["failOnError"].(bool)
	retryCount = intOrDefault(eh["retryCount"], 0)
	retryDelay = intOrDefault(eh["retryDelay"], 0)
	return failOnError, retryCount, retryDelay
}

func (c *httpRequestComponent) doRequest(client *http.Client, method, url string, headers map[string]string,
	body map[string]any, responseMapping map[string]string) (map[string]any, error) {
	var reader io.Reader
	if len(body) > 0 {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if reader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBytes))
	}

	var parsedBody map[string]any
	if len(respBytes) > 0 {
		if err := json.Unmarshal(respBytes, &parsedBody); err != nil {
			parsedBody = map[string]any{"raw": string(respBytes)}
		}
	}

	responseData := map[string]any{
		"response": map[string]any{
			"data":   parsedBody,
			"status": resp.StatusCode,
		},
	}

	mapped := make(map[string]any, len(responseMapping))
	for targetKey, sourcePath := range responseMapping {
		if v := extractPath(responseData, sourcePath); v != nil {
			mapped[targetKey] = v
		}
	}
	return mapped, nil
}

func extractPath(data map[string]any, path string) any {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
		if current == nil {
			return nil
		}
	}
	return current
}

func stringOrDefault(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func intOrDefault(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func stringMap(v any) map[string]string {
	m, _ := v.(map[string]any)
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
