// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package jwt

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/go-arcade/invitekit/pkg/log"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is the only error Verify returns to callers.
var ErrUnauthenticated = errors.New("unauthenticated")

const jwksRetryInterval = 30 * time.Second

// Auth configures Cognito bearer verification.
type Auth struct {
	Region          string   `mapstructure:"region"`
	UserPoolId      string   `mapstructure:"userPoolId"`
	ClientId        string   `mapstructure:"clientId"`
	TokenUses       []string `mapstructure:"tokenUses"`
	RefreshInterval int      `mapstructure:"refreshInterval"` // minutes
	Leeway          int      `mapstructure:"leeway"`          // seconds
}

func (a *Auth) SetDefaults() {
	if len(a.TokenUses) == 0 {
		a.TokenUses = []string{"id", "access"}
	}
	if a.RefreshInterval == 0 {
		a.RefreshInterval = 60
	}
}

// Enabled reports whether a user pool is configured.
func (a *Auth) Enabled() bool {
	return a.Region != "" && a.UserPoolId != "" && a.ClientId != ""
}

func (a *Auth) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", a.Region, a.UserPoolId)
}

func (a *Auth) JWKSURL() string {
	return a.Issuer() + "/.well-known/jwks.json"
}

// CognitoClaims covers the fields of Cognito id and access tokens we read.
type CognitoClaims struct {
	TokenUse        string `json:"token_use"`
	ClientId        string `json:"client_id,omitempty"`
	CognitoUsername string `json:"cognito:username,omitempty"`
	Username        string `json:"username,omitempty"`
	Email           string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Principal returns the best human-readable identity for logs.
func (c *CognitoClaims) Principal() string {
	switch {
	case c.Email != "":
		return c.Email
	case c.CognitoUsername != "":
		return c.CognitoUsername
	case c.Username != "":
		return c.Username
	default:
		return c.Subject
	}
}

// Verifier checks Cognito-issued RS256 tokens against the pool JWKS.
type Verifier struct {
	conf *Auth

	mu          sync.Mutex
	keyfunc     jwt.Keyfunc
	jwks        *keyfunc.JWKS
	lastAttempt time.Time
}

// NewVerifier returns a verifier that fetches the JWKS on first use.
func NewVerifier(conf *Auth) *Verifier {
	return &Verifier{conf: conf}
}

// NewVerifierWithKeys returns a verifier bound to a fixed key set.
func NewVerifierWithKeys(conf *Auth, jwks *keyfunc.JWKS) *Verifier {
	return &Verifier{conf: conf, jwks: jwks, keyfunc: jwks.Keyfunc}
}

func (v *Verifier) keys() (jwt.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keyfunc != nil {
		return v.keyfunc, nil
	}
	if time.Since(v.lastAttempt) < jwksRetryInterval {
		return nil, errors.New("jwks unavailable")
	}
	v.lastAttempt = time.Now()

	url := v.conf.JWKSURL()
	jwks, err := keyfunc.Get(url, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Errorw("failed to refresh jwks", "url", url, "error", err)
		},
		RefreshInterval:   time.Duration(v.conf.RefreshInterval) * time.Minute,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		log.Errorw("failed to fetch jwks", "url", url, "error", err)
		return nil, err
	}
	log.Infow("jwks loaded", "url", url, "kids", len(jwks.KIDs()))
	v.jwks = jwks
	v.keyfunc = jwks.Keyfunc
	return v.keyfunc, nil
}

// Verify parses a raw bearer token. Every failure is ErrUnauthenticated.
func (v *Verifier) Verify(raw string) (*CognitoClaims, error) {
	claims, err := v.verify(raw)
	if err != nil {
		log.Debugw("bearer token rejected", "error", err)
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

func (v *Verifier) verify(raw string) (*CognitoClaims, error) {
	if !v.conf.Enabled() {
		return nil, errors.New("auth is not configured")
	}
	kf, err := v.keys()
	if err != nil {
		return nil, err
	}

	claims := new(CognitoClaims)
	token, err := jwt.ParseWithClaims(raw, claims, kf,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.conf.Issuer()),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(time.Duration(v.conf.Leeway)*time.Second),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if !slices.Contains(v.conf.TokenUses, claims.TokenUse) {
		return nil, fmt.Errorf("token_use %q not allowed", claims.TokenUse)
	}
	switch claims.TokenUse {
	case "id":
		if !slices.Contains(claims.Audience, v.conf.ClientId) {
			return nil, errors.New("audience mismatch")
		}
	case "access":
		if claims.ClientId != v.conf.ClientId {
			return nil, errors.New("client_id mismatch")
		}
	}
	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *Verifier) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
