package crypto

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/config"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

func TestGenerateAndVerify(t *testing.T) {
	svc := NewJWTService(&config.JwtConfig{Secret: "s3cret"})
	ctx := context.Background()

	tok, err := svc.GenerateTokenHMAC(ctx, map[string]interface{}{"sub": "ops"})
	require.NoError(t, err)

	ok, err := svc.VerifyTokenHMAC(ctx, tok)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGenerateDoesNotMutateClaims(t *testing.T) {
	svc := NewJWTService(&config.JwtConfig{Secret: "s3cret"})
	claims := map[string]interface{}{"sub": "ops"}

	_, err := svc.GenerateTokenHMAC(context.Background(), claims)
	require.NoError(t, err)
	assert.NotContains(t, claims, "exp")
}

func TestGenerateWithoutSecret(t *testing.T) {
	svc := NewJWTService(&config.JwtConfig{})
	_, err := svc.GenerateTokenHMAC(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
}

func TestVerifyWrongSecret(t *testing.T) {
	ctx := context.Background()
	tok, err := NewJWTService(&config.JwtConfig{Secret: "a"}).GenerateTokenHMAC(ctx, map[string]interface{}{})
	require.NoError(t, err)

	ok, err := NewJWTService(&config.JwtConfig{Secret: "b"}).VerifyTokenHMAC(ctx, tok)
	assert.ErrorIs(t, err, errs.ErrInvalidToken)
	assert.False(t, ok)
}

func TestVerifyExpired(t *testing.T) {
	svc := NewJWTService(&config.JwtConfig{Secret: "s3cret"})
	ctx := context.Background()

	tok, err := svc.GenerateTokenHMAC(ctx, map[string]interface{}{"exp": time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, err)

	_, err = svc.VerifyTokenHMAC(ctx, tok)
	assert.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestVerifyRejectsNonHMAC(t *testing.T) {
	svc := NewJWTService(&config.JwtConfig{Secret: "s3cret"})
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.VerifyTokenHMAC(context.Background(), tok)
	assert.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestVerifyMissing(t *testing.T) {
	svc := NewJWTService(&config.JwtConfig{Secret: "s3cret"})
	_, err := svc.VerifyTokenHMAC(context.Background(), "")
	assert.ErrorIs(t, err, errs.ErrMissingToken)
}
