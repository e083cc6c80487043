package jwtutil

import (
	"testing"

	"timetracker-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func TestTokenRoundTrip(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	token, err := GenerateToken("worker@example.com", 42, uintPtr(7), "Acme", "employee")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "worker@example.com", claims.Email)
	assert.Equal(t, uint(42), claims.UserID)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, uint(7), *claims.CompanyID)
	assert.Equal(t, "Acme", claims.CompanyName)
	assert.Equal(t, "employee", claims.Role)
}

func TestTokenWithoutCompany(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	token, err := GenerateToken("root@example.com", 1, nil, "", "root")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.CompanyID)
	assert.Equal(t, "root", claims.Role)
}

func TestExpiredTokenRejected(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: -1})
	token, err := GenerateToken("worker@example.com", 42, nil, "", "employee")
	require.NoError(t, err)

	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestWrongKeyRejected(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	token, err := GenerateToken("worker@example.com", 42, nil, "", "employee")
	require.NoError(t, err)

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}
