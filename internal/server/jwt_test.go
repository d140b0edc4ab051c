package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonathan/seo-content-machine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func newTestTokenService(expirationHours int) *TokenService {
	return NewTokenService(&config.AuthConfig{
		Secret:          testSecret,
		ExpirationHours: expirationHours,
		Issuer:          config.DefaultTokenIssuer,
	})
}

func TestTokenService_RoundTrip(t *testing.T) {
	service := newTestTokenService(24)

	token, err := service.GenerateToken("cms-bot")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "cms-bot", claims.Subject)
	assert.Equal(t, config.DefaultTokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenService_UniqueTokens(t *testing.T) {
	service := newTestTokenService(24)
	a, err := service.GenerateToken("cms-bot")
	require.NoError(t, err)
	b, err := service.GenerateToken("cms-bot")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenService_EmptySubject(t *testing.T) {
	_, err := newTestTokenService(24).GenerateToken("")
	assert.Error(t, err)
}

func TestTokenService_Rejects(t *testing.T) {
	service := newTestTokenService(24)
	valid, err := service.GenerateToken("cms-bot")
	require.NoError(t, err)

	other := NewTokenService(&config.AuthConfig{Secret: "another-secret-key-0123456789", ExpirationHours: 1, Issuer: config.DefaultTokenIssuer})
	foreign, err := other.GenerateToken("cms-bot")
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "cms-bot",
		Issuer:    config.DefaultTokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "cms-bot",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	wrongIssuerToken, err := wrongIssuer.SignedString([]byte(testSecret))
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "cms-bot"}})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{"empty", "", "empty"},
		{"garbage", "not.a.token", "malformed"},
		{"wrong secret", foreign, "signature"},
		{"expired", expiredToken, "expired"},
		{"wrong issuer", wrongIssuerToken, "failed to parse"},
		{"none algorithm", noneToken, "signature"},
		{"tampered payload", tamper(valid), "signature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

// tamper swaps the payload of token for another valid payload.
func tamper(token string) string {
	parts := strings.Split(token, ".")
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    config.DefaultTokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	signed, _ := forged.SignedString([]byte("forger-secret-0123456789"))
	parts[1] = strings.Split(signed, ".")[1]
	return strings.Join(parts, ".")
}

func TestTokenService_AsTokenValidator(t *testing.T) {
	service := newTestTokenService(1)
	token, err := service.GenerateToken("cms-bot")
	require.NoError(t, err)

	claims, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	subject, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "cms-bot", subject)
}
