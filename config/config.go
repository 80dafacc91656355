package config

import (
	"os"
	"time"
)

type Config struct {
	Addr               string
	DatabaseDSN        string
	RedisAddr          string
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func LoadConfig() (*Config, error) {
	return &Config{
		Addr:               getEnv("ADDR", ":5000"),
		DatabaseDSN:        getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=pulse port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		AccessTokenSecret:  []byte(getEnv("ACCESS_TOKEN_SECRET", "dev-access-secret")),
		RefreshTokenSecret: []byte(getEnv("REFRESH_TOKEN_SECRET", "dev-refresh-secret")),
		AccessTokenTTL:     time.Hour,
		RefreshTokenTTL:    time.Hour * 24 * 7,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
