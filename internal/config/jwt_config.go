package config

type JwtConfig struct {
	// Secret signs control API tokens. Empty disables authentication.
	Secret string
}

func NewJwtConfig() *JwtConfig {
	return &JwtConfig{
		Secret: getEnv("JWT_SECRET", ""),
	}
}
