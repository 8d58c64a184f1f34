package oidc

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/escrow-api/internal/adapters/authroles"
	domainauth "github.com/target/escrow-api/internal/domain/auth"
)

const testIssuer = "https://idp.example.test"

func newTestVerifier(t *testing.T) (*Verifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	mapper, err := authroles.NewClaimsRoleMapper("roles", nil)
	require.NoError(t, err)
	keys := &gooidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return NewVerifierFromKeySet(testIssuer, keys, VerifierConfig{Audience: "escrow-api", Mapper: mapper}), key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return raw
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()
	v, key := newTestVerifier(t)

	raw := sign(t, key, jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   "escrow-api",
		"sub":   "client-42",
		"email": "c@example.test",
		"roles": []string{"client"},
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	})

	id, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "client-42", id.UserID)
	assert.Equal(t, "c@example.test", id.Email)
	assert.Equal(t, []domainauth.Role{domainauth.RoleClient}, id.Roles)
}

func TestVerifier_RejectsBadTokens(t *testing.T) {
	t.Parallel()
	v, key := newTestVerifier(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss": testIssuer,
			"aud": "escrow-api",
			"sub": "u1",
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	wrongAud := base()
	wrongAud["aud"] = "someone-else"
	expired := base()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not-a-jwt"},
		{name: "wrong audience", raw: sign(t, key, wrongAud)},
		{name: "expired", raw: sign(t, key, expired)},
		{name: "foreign key", raw: sign(t, other, base())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := v.Verify(context.Background(), tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestNewVerifier_Discovery(t *testing.T) {
	t.Parallel()
	var issuer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 issuer,
			"authorization_endpoint": issuer + "/auth",
			"token_endpoint":         issuer + "/token",
			"jwks_uri":               issuer + "/jwks",
		})
	}))
	defer srv.Close()
	issuer = srv.URL

	mapper, err := authroles.NewClaimsRoleMapper("", nil)
	require.NoError(t, err)
	v, err := NewVerifier(context.Background(), VerifierConfig{IssuerURL: srv.URL, Audience: "escrow-api", Mapper: mapper})
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestNewVerifier_ValidationErrors(t *testing.T) {
	t.Parallel()
	mapper, _ := authroles.NewClaimsRoleMapper("", nil)
	_, err := NewVerifier(context.Background(), VerifierConfig{Audience: "a", Mapper: mapper})
	require.Error(t, err)
	_, err = NewVerifier(context.Background(), VerifierConfig{IssuerURL: "https://x", Mapper: mapper})
	require.Error(t, err)
	_, err = NewVerifier(context.Background(), VerifierConfig{IssuerURL: "https://x", Audience: "a"})
	require.Error(t, err)
}
