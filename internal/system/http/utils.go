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

// Package http provides TLS and URL-safety helpers shared by the service
// boundary and the remote-endpoint runner.
package http

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/url"

	"github.com/nodeengine/engine/internal/system/config"
)

// GetTLSVersion returns the appropriate TLS version constant based on the
// provided configuration. It defaults to TLS 1.3 if the configured version is
// not recognized or empty.
func GetTLSVersion(cfg config.Config) uint16 {
	switch cfg.TLS.MinVersion {
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS13
	}
}

// CheckEndpointScheme validates that endpoint uses https, unless it targets a
// loopback, private (RFC1918 or IPv6 unique-local) or link-local address, in
// which case http is also accepted.
// This is the "localhost/RFC1918 over http, everything else https-only"
// policy the remote-endpoint runner enforces before ever dialing out.
func CheckEndpointScheme(endpoint string) error {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint url: %w", err)
	}

	if parsed.Scheme == "https" {
		return nil
	}
	if parsed.Scheme != "http" {
		return fmt.Errorf("unsupported endpoint scheme: %s", parsed.Scheme)
	}

	host := parsed.Hostname()
	if isPrivateHost(host) {
		return nil
	}
	return fmt.Errorf("endpoint %q must use https: only loopback/private hosts may use http", endpoint)
}

// isPrivateHost reports whether host is the literal "localhost" or an IP
// address in a loopback/private/link-local range. It deliberately does not
// match on string prefixes/suffixes: a hostname like "localhost.attacker.com"
// or "10.attacker.example.com" is a public, attacker-controlled host, not a
// loopback or RFC1918 address, and must not be trusted over plain http.
func isPrivateHost(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
	}
	return host == "localhost"
}
