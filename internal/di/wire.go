//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"pulse/config"
	"pulse/internal/api"
	"pulse/internal/auth"
	"pulse/internal/cache"
	"pulse/internal/chat"
	"pulse/internal/database"
	"pulse/internal/sessions"
	"pulse/internal/user"
)

func InitializeServer(cfg *config.Config, db *database.Database, redis *cache.RedisCache) *api.Server {
	wire.Build(
		sessions.NewRedisStore,
		user.NewRepository,
		user.NewService,
		user.NewJSONHandler,
		auth.NewService,
		auth.NewJSONHandler,
		auth.NewMiddleware,
		wire.Bind(new(chat.TokenVerifier), new(*auth.Service)),
		chat.NewRepository,
		chat.NewRegistry,
		chat.NewGateway,
		chat.NewJSONHandler,
		api.NewServer,
	)
	return nil
}
