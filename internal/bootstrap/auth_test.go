package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/escrow-api/config"
	"github.com/target/escrow-api/internal/adapters/devauth"
)

func TestBuildTokenVerifier(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("dev mode", func(t *testing.T) {
		t.Parallel()
		v, err := BuildTokenVerifier(context.Background(), AuthConfig{
			Auth: config.AuthConfig{
				Mode:        config.AuthModeDev,
				Dev:         config.DevAuthConfig{Secret: "0123456789abcdef", Issuer: "escrow-dev"},
				RolesClaim:  "roles",
				RoleAliases: map[string]string{"ops": "admin"},
			},
			IsDev:  true,
			Logger: logger,
		})
		require.NoError(t, err)
		assert.IsType(t, &devauth.Verifier{}, v)
	})

	t.Run("dev mode rejected in production", func(t *testing.T) {
		t.Parallel()
		_, err := BuildTokenVerifier(context.Background(), AuthConfig{
			Auth: config.AuthConfig{
				Mode: config.AuthModeDev,
				Dev:  config.DevAuthConfig{Secret: "0123456789abcdef"},
			},
			Logger: logger,
		})
		require.Error(t, err)
	})

	t.Run("oidc without issuer", func(t *testing.T) {
		t.Parallel()
		_, err := BuildTokenVerifier(context.Background(), AuthConfig{
			Auth:   config.AuthConfig{Mode: config.AuthModeOIDC},
			Logger: logger,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OIDC_ISSUER_URL")
	})

	t.Run("unknown alias role", func(t *testing.T) {
		t.Parallel()
		_, err := BuildTokenVerifier(context.Background(), AuthConfig{
			Auth: config.AuthConfig{
				Mode:        config.AuthModeDev,
				Dev:         config.DevAuthConfig{Secret: "0123456789abcdef"},
				RoleAliases: map[string]string{"ops": "superuser"},
			},
			IsDev:  true,
			Logger: logger,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "superuser")
	})
}
