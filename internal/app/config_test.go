package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/savemo/identity/internal/token"
	_ "github.com/savemo/identity/testing"
)

func TestLoadConfigRejectsEmptyJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "super-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 12, cfg.BcryptCost)
}

func TestTokenConfigCarriesSecretBytes(t *testing.T) {
	cfg := &Config{
		JWTSecret:       "super-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}

	tc := cfg.TokenConfig()
	require.Equal(t, []byte("super-secret"), tc.Secret)
	require.Equal(t, time.Hour, tc.AccessTTL)
	require.Equal(t, 24*time.Hour, tc.RefreshTTL)

	svc, err := token.NewService(tc)
	require.NoError(t, err)
	require.NotNil(t, svc)
}
