package crypto

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/config"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

var _ primary.TokenService = (*JWTServiceImpl)(nil)

// DefaultTokenTTL applies to tokens generated without an exp claim.
const DefaultTokenTTL = time.Hour

type JWTServiceImpl struct {
	HMACSecretKey string
	now           func() time.Time
}

func NewJWTService(jwtConfig *config.JwtConfig) *JWTServiceImpl {
	return &JWTServiceImpl{
		HMACSecretKey: jwtConfig.Secret,
		now:           time.Now,
	}
}

func (J *JWTServiceImpl) GenerateTokenHMAC(ctx context.Context, claims map[string]interface{}) (string, error) {
	if J.HMACSecretKey == "" {
		return "", fmt.Errorf("hmac secret is not configured")
	}

	mapClaims := jwt.MapClaims{}
	for k, v := range claims {
		mapClaims[k] = v
	}
	if _, exists := mapClaims["exp"]; !exists {
		mapClaims["exp"] = J.now().Add(DefaultTokenTTL).Unix()
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return tok.SignedString([]byte(J.HMACSecretKey))
}

func (J *JWTServiceImpl) VerifyTokenHMAC(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, errs.ErrMissingToken
	}

	parsedToken, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(J.HMACSecretKey), nil
	}, jwt.WithTimeFunc(J.now))
	if err != nil {
		return false, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	}

	return parsedToken.Valid, nil
}
