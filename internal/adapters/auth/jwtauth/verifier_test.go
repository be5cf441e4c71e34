package jwtauth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"family-care/internal/ports/auth"
)

func newTestVerifier(t *testing.T, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{Secret: "super-secret", Audience: "authenticated"})
	require.NoError(t, err)
	v.now = func() time.Time { return now }
	return v
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.ErrorIs(t, err, ErrSecretRequired)
}

func TestVerify_RoundTrip(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	v := newTestVerifier(t, now)

	tok, err := v.Sign("user-1", "ana@example.com", time.Hour)
	require.NoError(t, err)

	c, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, "ana@example.com", c.Email)
	assert.Equal(t, "authenticated", c.Role)
	assert.True(t, c.ExpiresAt.Equal(now.Add(time.Hour)))
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	v := newTestVerifier(t, now)
	tok, err := v.Sign("user-1", "", time.Minute)
	require.NoError(t, err)

	v.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = v.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestVerify_Rejects(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	v := newTestVerifier(t, now)
	ctx := context.Background()

	_, err := v.Verify(ctx, "")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = v.Verify(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	other, _ := NewVerifier(Config{Secret: "other", Audience: "authenticated"})
	other.now = v.now
	tok, err := other.Sign("user-1", "", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(ctx, tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Audiencia equivocada.
	wrongAud, _ := NewVerifier(Config{Secret: "super-secret", Audience: "anon"})
	wrongAud.now = v.now
	tok, err = wrongAud.Sign("user-1", "", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(ctx, tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Sin sub.
	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	tok, err = noSub.SignedString([]byte("super-secret"))
	require.NoError(t, err)
	_, err = v.Verify(ctx, tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
