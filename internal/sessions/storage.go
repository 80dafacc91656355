package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"pulse/infrastructure"
	"pulse/internal/cache"
)

type Store interface {
	Save(ctx context.Context, session *Session, ttl time.Duration) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type redisStore struct {
	cache *cache.RedisCache
}

func NewRedisStore(cache *cache.RedisCache) Store {
	return &redisStore{cache: cache}
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func (s *redisStore) Save(ctx context.Context, session *Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, sessionKey(session.ID), data, ttl)
}

func (s *redisStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := s.cache.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, infrastructure.ErrSessionNotFound
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *redisStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.cache.Delete(ctx, sessionKey(id))
}
