package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthConfig_Success(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-at-least-16-chars")
	t.Setenv("JWT_EXPIRATION_HOURS", "48")

	cfg, err := NewAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "test-secret-key-at-least-16-chars", cfg.Secret)
	assert.Equal(t, 48, cfg.ExpirationHours)
	assert.Equal(t, DefaultTokenIssuer, cfg.Issuer)
}

func TestNewAuthConfig_DefaultExpiration(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-at-least-16-chars")
	t.Setenv("JWT_EXPIRATION_HOURS", "")

	cfg, err := NewAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.ExpirationHours)
}

func TestNewAuthConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := NewAuthConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestNewAuthConfig_InvalidExpiration(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-at-least-16-chars")
	t.Setenv("JWT_EXPIRATION_HOURS", "soon")

	_, err := NewAuthConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JWT_EXPIRATION_HOURS")
}

func TestAuthConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AuthConfig
		wantErr bool
	}{
		{"valid", AuthConfig{Secret: "0123456789abcdef", ExpirationHours: 1}, false},
		{"short secret", AuthConfig{Secret: "short", ExpirationHours: 1}, true},
		{"zero expiration", AuthConfig{Secret: "0123456789abcdef", ExpirationHours: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
