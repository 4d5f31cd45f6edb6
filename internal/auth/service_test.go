package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_TokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Hour, "resource-autoscaler")

	token, err := svc.GenerateToken("ops")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
	assert.Equal(t, "resource-autoscaler", claims.Issuer)
}

func TestService_RejectsWrongSecret(t *testing.T) {
	token, err := NewService("secret-a", time.Hour, "iss").GenerateToken("ops")
	require.NoError(t, err)

	_, err = NewService("secret-b", time.Hour, "iss").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RejectsExpiredToken(t *testing.T) {
	svc := NewService("test-secret", -time.Minute, "iss")

	token, err := svc.GenerateToken("ops")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestService_RejectsGarbage(t *testing.T) {
	svc := NewService("test-secret", time.Hour, "iss")

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
