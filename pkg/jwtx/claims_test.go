package jwtx_test

import (
	"testing"
	"time"

	"github.com/econest/web/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: exampleIssuer}}

	require.NoError(t, c.ValidateIssuer(exampleIssuer))
	require.NoError(t, c.ValidateIssuer(""))
	require.ErrorIs(t, c.ValidateIssuer("https://other/auth/v1"), jwtx.ErrIssuer)
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Audience: []string{"authenticated"}}}

	require.NoError(t, c.ValidateAudience(nil))
	require.NoError(t, c.ValidateAudience([]string{"anon", "authenticated"}))
	require.ErrorIs(t, c.ValidateAudience([]string{"service_role"}), jwtx.ErrAudience)
}

func TestValidateExpiryWithLeeway(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second)),
		NotBefore: jwt.NewNumericDate(now.Add(-time.Hour)),
	}}

	require.ErrorIs(t, c.ValidateExpiryWithLeeway(now, 0), jwtx.ErrExpired)
	require.NoError(t, c.ValidateExpiryWithLeeway(now, 30*time.Second))

	future := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{NotBefore: jwt.NewNumericDate(now.Add(time.Minute))}}
	require.ErrorIs(t, future.ValidateExpiryWithLeeway(now, 0), jwtx.ErrNotYetValid)
}

func TestExpiryZeroWhenAbsent(t *testing.T) {
	var c jwtx.Claims
	require.True(t, c.Expiry().IsZero())
}
