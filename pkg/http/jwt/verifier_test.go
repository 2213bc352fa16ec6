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
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKid = "test-kid"

func testConf() *Auth {
	conf := &Auth{Region: "us-east-1", UserPoolId: "us-east-1_pool", ClientId: "client-123"}
	conf.SetDefaults()
	return conf
}

func newTestVerifier(t *testing.T) (*Verifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKid,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	})
	require.NoError(t, err)

	jwks, err := keyfunc.NewJSON(raw)
	require.NoError(t, err)
	return NewVerifierWithKeys(testConf(), jwks), key
}

func sign(t *testing.T, key *rsa.PrivateKey, kid string, claims CognitoClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(use string) CognitoClaims {
	conf := testConf()
	c := CognitoClaims{
		TokenUse: use,
		Email:    "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.Issuer(),
			Subject:   "sub-1",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	if use == "id" {
		c.Audience = jwt.ClaimStrings{conf.ClientId}
	} else {
		c.ClientId = conf.ClientId
	}
	return c
}

func TestVerifier_Accepts(t *testing.T) {
	v, key := newTestVerifier(t)

	for _, use := range []string{"id", "access"} {
		t.Run(use, func(t *testing.T) {
			claims, err := v.Verify(sign(t, key, testKid, validClaims(use)))
			require.NoError(t, err)
			assert.Equal(t, use, claims.TokenUse)
			assert.Equal(t, "admin@example.com", claims.Principal())
		})
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v, key := newTestVerifier(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token func() string
	}{
		{"wrong issuer", func() string {
			c := validClaims("id")
			c.Issuer = "https://cognito-idp.us-east-1.amazonaws.com/other"
			return sign(t, key, testKid, c)
		}},
		{"wrong audience", func() string {
			c := validClaims("id")
			c.Audience = jwt.ClaimStrings{"someone-else"}
			return sign(t, key, testKid, c)
		}},
		{"wrong client id", func() string {
			c := validClaims("access")
			c.ClientId = "someone-else"
			return sign(t, key, testKid, c)
		}},
		{"wrong token use", func() string {
			c := validClaims("id")
			c.TokenUse = "refresh"
			return sign(t, key, testKid, c)
		}},
		{"expired", func() string {
			c := validClaims("id")
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			return sign(t, key, testKid, c)
		}},
		{"missing expiry", func() string {
			c := validClaims("id")
			c.ExpiresAt = nil
			return sign(t, key, testKid, c)
		}},
		{"unknown kid", func() string {
			return sign(t, key, "nope", validClaims("id"))
		}},
		{"foreign key", func() string {
			return sign(t, other, testKid, validClaims("id"))
		}},
		{"hs256", func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("id"))
			token.Header["kid"] = testKid
			s, err := token.SignedString([]byte("shared-secret"))
			require.NoError(t, err)
			return s
		}},
		{"garbage", func() string { return "not.a.jwt" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.Verify(tt.token())
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.Equal(t, ErrUnauthenticated, err)
		})
	}
}

func TestVerifier_NotConfigured(t *testing.T) {
	v := NewVerifier(&Auth{})
	_, err := v.Verify("anything")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuth_URLs(t *testing.T) {
	conf := testConf()
	assert.True(t, conf.Enabled())
	assert.Equal(t, "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_pool", conf.Issuer())
	assert.Equal(t, "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_pool/.well-known/jwks.json", conf.JWKSURL())
	assert.Equal(t, []string{"id", "access"}, conf.TokenUses)
}
