package main

import (
	"pulse/config"
	"pulse/internal/cache"
	"pulse/internal/database"
	"pulse/internal/di"
	"pulse/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		logger.Fatalf("failed to migrate database: %v", err)
	}

	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		logger.Fatalf("failed to connect to redis: %v", err)
	}

	server := di.InitializeServer(cfg, db, redisCache)

	logger.Infof("listening on %s", cfg.Addr)
	if err := server.Run(cfg.Addr); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
