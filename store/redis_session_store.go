package store

import (
	"context"
	"strconv"
	"time"

	"github.com/simplelearn-uz/convertbot/internal/session"
)

// RedisSessionStore keeps conversation sessions in redis with a sliding
// TTL, so abandoned conversations expire on their own.
type RedisSessionStore struct {
	client *RedisClient
	ttl    time.Duration
}

func NewRedisSessionStore(client *RedisClient, ttlHours int) *RedisSessionStore {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &RedisSessionStore{
		client: client,
		ttl:    time.Duration(ttlHours) * time.Hour,
	}
}

func (s *RedisSessionStore) key(userID int64) string {
	return s.client.generateKey("session", strconv.FormatInt(userID, 10))
}

func (s *RedisSessionStore) Get(ctx context.Context, userID int64) (*session.Session, error) {
	var sess session.Session
	if err := s.client.Get(ctx, s.key(userID), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, sess session.Session) error {
	return s.client.Set(ctx, s.key(sess.UserID), sess, s.ttl)
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, s.key(userID))
}
