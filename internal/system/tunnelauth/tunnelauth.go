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

// Package tunnelauth mints the compact token the service boundary attaches to
// a flow when it is first submitted, and that the remote-endpoint runner
// later forwards verbatim to a remote collaborator as
// X-Tunnel-Authorization. The engine never decodes or re-verifies a token it
// forwards - that is the remote collaborator's job.
package tunnelauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer mints tunnel-auth tokens under a single HS256 signing key.
type Issuer struct {
	signingKey     []byte
	validityPeriod time.Duration
}

// NewIssuer constructs an Issuer. validityPeriod <= 0 falls back to 5 minutes.
func NewIssuer(signingKey string, validityPeriod time.Duration) *Issuer {
	if validityPeriod <= 0 {
		validityPeriod = 5 * time.Minute
	}
	return &Issuer{signingKey: []byte(signingKey), validityPeriod: validityPeriod}
}

// claims is the token body: a session_id and the standard expiry claim.
type claims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Mint issues a token carrying sessionID, valid from now for the issuer's
// configured period.
func (i *Issuer) Mint(sessionID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validityPeriod)),
		},
	})

	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign tunnel auth token: %w", err)
	}
	return signed, nil
}

// Header formats token as the value of the X-Tunnel-Authorization header.
func Header(token string) string {
	return "tunnel " + token
}
