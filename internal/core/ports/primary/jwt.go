package primary

import "context"

// TokenService issues and verifies bearer tokens for the control API.
type TokenService interface {
	GenerateTokenHMAC(ctx context.Context, claims map[string]interface{}) (string, error)
	VerifyTokenHMAC(ctx context.Context, token string) (bool, error)
}
