package config

import "time"

type RedisConfig struct {
	DB       int
	Url      string
	Password string

	// SnapshotInterval is how often the worker table is mirrored.
	SnapshotInterval time.Duration
}

func NewRedisConfig() *RedisConfig {
	return &RedisConfig{
		DB:               getIntEnv("REDIS_DB", 0),
		Url:              getEnv("REDIS_ADDR", "localhost:6379"),
		Password:         getEnv("REDIS_PASSWORD", ""),
		SnapshotInterval: time.Duration(getIntEnv("SNAPSHOT_INTERVAL_SEC", 15)) * time.Second,
	}
}
