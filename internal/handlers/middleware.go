package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/handlers/response"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

type MiddlewareProvider struct {
	Tokens primary.TokenService
	// Enabled is false when no secret is configured; requests then pass through.
	Enabled bool
	Logger  primary.Logger
}

func New(tokens primary.TokenService, enabled bool, logger primary.Logger) *MiddlewareProvider {
	return &MiddlewareProvider{
		Tokens:  tokens,
		Enabled: enabled,
		Logger:  logger,
	}
}

func (m *MiddlewareProvider) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.WriteError(w, response.ErrorMessage{Message: errs.ErrMissingToken.Error(), StatusCode: http.StatusUnauthorized})
			return
		}

		// Extract token from "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		ok, err := m.Tokens.VerifyTokenHMAC(r.Context(), tokenString)
		if err != nil || !ok {
			if err != nil && !errors.Is(err, errs.ErrInvalidToken) && !errors.Is(err, errs.ErrMissingToken) {
				m.Logger.Warn("Token verification failed", "error", err)
			}
			response.WriteError(w, response.ErrorMessage{Message: errs.ErrInvalidToken.Error(), StatusCode: http.StatusUnauthorized})
			return
		}

		next.ServeHTTP(w, r)
	})
}
