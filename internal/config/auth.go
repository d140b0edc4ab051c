package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultTokenIssuer is the issuer claim on API tokens.
const DefaultTokenIssuer = "seo-content-machine"

// AuthConfig holds configuration for API bearer tokens.
type AuthConfig struct {
	Secret          string
	ExpirationHours int
	Issuer          string
}

// NewAuthConfig creates the token configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default: 24).
func NewAuthConfig() (*AuthConfig, error) {
	secret := cleanEnv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	expirationStr := os.Getenv("JWT_EXPIRATION_HOURS")
	if expirationStr == "" {
		expirationStr = "24"
	}

	expirationHours, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
	}

	cfg := &AuthConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
		Issuer:          DefaultTokenIssuer,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the token settings.
func (c *AuthConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
