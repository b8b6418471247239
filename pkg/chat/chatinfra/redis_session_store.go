package chatinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/chat"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/redis/go-redis/v9"
)

// RedisSessionStore stores each session as JSON with a TTL matching its expiry
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

var _ chat.SessionStore = (*RedisSessionStore)(nil)

func sessionKey(id string) string {
	return fmt.Sprintf("chat_session:%s", id)
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*chat.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, chat.ErrSessionNotFound().WithDetail("session_id", id)
	}
	if err != nil {
		return nil, errx.Wrap(err, "failed to get session from Redis", errx.TypeInternal)
	}

	var session chat.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, errx.Wrap(err, "failed to decode session", errx.TypeInternal)
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *chat.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errx.Wrap(err, "failed to encode session", errx.TypeInternal)
	}

	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = time.Until(session.ExpiresAt)
		if ttl <= 0 {
			return s.Delete(ctx, session.ID)
		}
	}

	if err := s.client.Set(ctx, sessionKey(session.ID), data, ttl).Err(); err != nil {
		return errx.Wrap(err, "failed to store session in Redis", errx.TypeInternal)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return errx.Wrap(err, "failed to delete session from Redis", errx.TypeInternal)
	}
	return nil
}

// CleanExpired is a no-op: redis expires keys on its own
func (s *RedisSessionStore) CleanExpired(ctx context.Context) (int, error) {
	return 0, nil
}
