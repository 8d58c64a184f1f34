// Package devauth verifies locally minted HS256 bearer tokens for development
// and tests. It must never be enabled in production.
package devauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/target/escrow-api/internal/domain/auth"
	"github.com/target/escrow-api/internal/ports"
)

const defaultIssuer = "escrow-dev"

// Config controls the dev verifier.
type Config struct {
	Secret string
	Issuer string
	Mapper ports.RoleMapper
}

// Verifier implements ports.TokenVerifier over a shared HMAC secret.
type Verifier struct {
	secret []byte
	issuer string
	mapper ports.RoleMapper
}

// NewVerifier constructs a dev verifier from Config.
func NewVerifier(cfg Config) (*Verifier, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("dev auth: secret must be at least 16 bytes")
	}
	if cfg.Mapper == nil {
		return nil, errors.New("dev auth: role mapper is required")
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = defaultIssuer
	}
	return &Verifier{secret: []byte(cfg.Secret), issuer: issuer, mapper: cfg.Mapper}, nil
}

// Verify parses and validates an HS256 token.
func (v *Verifier) Verify(_ context.Context, rawToken string) (domainauth.Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(rawToken), claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domainauth.Identity{}, errors.New("token has no subject")
	}
	var expiresAt time.Time
	if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
		expiresAt = exp.Time
	}
	email, _ := claims["email"].(string)

	return domainauth.Identity{
		UserID:    sub,
		Email:     email,
		Roles:     v.mapper.Map(claims),
		ExpiresAt: expiresAt,
	}, nil
}

// Mint signs a token for userID carrying roles, valid for ttl.
func (v *Verifier) Mint(userID string, roles []domainauth.Role, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("dev auth: user id is required")
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   v.issuer,
		"sub":   userID,
		"roles": names,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
