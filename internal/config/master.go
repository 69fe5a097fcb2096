package config

import "time"

type AppConfig struct {
	DebugMode bool
	LogLevel  string
	HttpPort  int

	// ShutdownTimeout bounds how long the master waits for ready-to-die
	// after a termination signal.
	ShutdownTimeout time.Duration

	ClusterConfig  *ClusterConfig
	RedisConfig    *RedisConfig
	PostgresConfig *PostgresConfig
	JwtConfig      *JwtConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:       getBoolEnv("DEBUG_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		HttpPort:        getIntEnv("HTTP_PORT", 8082),
		ShutdownTimeout: getMillisEnv("SHUTDOWN_TIMEOUT_MS", 30*time.Second),
		ClusterConfig:   NewClusterConfig(),
		RedisConfig:     NewRedisConfig(),
		PostgresConfig:  NewPostgresConfig(),
		JwtConfig:       NewJwtConfig(),
	}
}
