package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis with a native TTL, so expiry needs no
// cleanup pass.
type RedisStore struct{ rdb *redis.Client }

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func redisKey(token string) string { return "session:" + token }

func (s *RedisStore) Create(ctx context.Context, accountID string) (Session, error) {
	tok, err := NewToken()
	if err != nil {
		return Session{}, err
	}
	now := time.Now().UTC()
	sess := Session{Token: tok, AccountID: accountID, CreatedAt: now, ExpiresAt: now.Add(TTL)}
	raw, err := json.Marshal(sess)
	if err != nil {
		return Session{}, err
	}
	if err := s.rdb.Set(ctx, redisKey(tok), raw, TTL).Err(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (Session, error) {
	raw, err := s.rdb.Get(ctx, redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, err
	}
	if sess.Expired(time.Now()) {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, redisKey(token)).Err()
}
