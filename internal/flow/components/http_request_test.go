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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HTTPRequestComponentTestSuite struct {
	suite.Suite
	mockServer *httptest.Server
}

func TestHTTPRequestComponentTestSuite(t *testing.T) {
	suite.Run(t, new(HTTPRequestComponentTestSuite))
}

func (s *HTTPRequestComponentTestSuite) TearDownTest() {
	if s.mockServer != nil {
		s.mockServer.Close()
		s.mockServer = nil
	}
}

func (s *HTTPRequestComponentTestSuite) TestMapsResponseIntoContext() {
	s.mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "abc123"})
	}))

	base := newTestBase(map[string]any{
		"url":             s.mockServer.URL,
		"method":          "GET",
		"responseMapping": map[string]any{"authToken": "response.data.token"},
	})
	comp, err := newHTTPRequestComponent(base)
	require.NoError(s.T(), err)

	step, err := comp.Execute()
	require.NoError(s.T(), err)
	assert.Nil(s.T(), step.Next)

	v, ok := base.Context.Get("authToken")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "abc123", v)
}

func (s *HTTPRequestComponentTestSuite) TestFailOnErrorExitsFlow() {
	s.mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	base := newTestBase(map[string]any{
		"url":           s.mockServer.URL,
		"errorHandling": map[string]any{"failOnError": true, "retryCount": 0},
	})
	comp, err := newHTTPRequestComponent(base)
	require.NoError(s.T(), err)

	step, err := comp.Execute()
	require.NoError(s.T(), err)
	require.NotNil(s.T(), step.Next)
	assert.Equal(s.T(), "exit", *step.Next)
	require.NotNil(s.T(), base.FlowDefinition.Status.Error)
}

func (s *HTTPRequestComponentTestSuite) TestContinuesWhenNotFailOnError() {
	s.mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	base := newTestBase(map[string]any{
		"url":           s.mockServer.URL,
		"errorHandling": map[string]any{"failOnError": false, "retryCount": 0},
	})
	comp, err := newHTTPRequestComponent(base)
	require.NoError(s.T(), err)

	step, err := comp.Execute()
	require.NoError(s.T(), err)
	assert.Nil(s.T(), step.Next)
}

func (s *HTTPRequestComponentTestSuite) TestNegativeRetryCountStillIssuesOneRequest() {
	requests := 0
	s.mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "abc123"})
	}))

	base := newTestBase(map[string]any{
		"url":             s.mockServer.URL,
		"responseMapping": map[string]any{"authToken": "response.data.token"},
		"errorHandling":   map[string]any{"retryCount": -1},
	})
	comp, err := newHTTPRequestComponent(base)
	require.NoError(s.T(), err)

	step, err := comp.Execute()
	require.NoError(s.T(), err)
	assert.Nil(s.T(), step.Next)
	assert.Equal(s.T(), 1, requests, "a negative retryCount must not skip the request entirely")

	v, ok := base.Context.Get("authToken")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "abc123", v)
}

func (s *HTTPRequestComponentTestSuite) TestMissingURLExitsFlow() {
	base := newTestBase(nil)
	comp, err := newHTTPRequestComponent(base)
	require.NoError(s.T(), err)

	step, err := comp.Execute()
	require.NoError(s.T(), err)
	require.NotNil(s.T(), step.Next)
	assert.Equal(s.T(), "exit", *step.Next)
}
