package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix     = "session:"
	redisUserKeyPrefix = "session:user:"
)

// RedisStore keeps each record under session:<id> with a TTL matching its
// expiry, and indexes ids per user so all of a user's sessions can be revoked.
// A revoked session is deleted rather than flagged.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Create(ctx context.Context, rec Record) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session create: record already expired")
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}

	userKey := redisUserKeyPrefix + rec.UserID

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKeyPrefix+rec.ID, raw, ttl)
		pipe.SAdd(ctx, userKey, rec.ID)
		// every session shares one TTL, so the newest bounds the index
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session create: %w", err)
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("session get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("session decode: %w", err)
	}

	return rec, nil
}

func (s *RedisStore) Revoke(ctx context.Context, id string) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisKeyPrefix+id)
		pipe.SRem(ctx, redisUserKeyPrefix+rec.UserID, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session revoke: %w", err)
	}

	return nil
}

func (s *RedisStore) RevokeAllForUser(ctx context.Context, userID string) error {
	userKey := redisUserKeyPrefix + userID

	ids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("session list for user: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, redisKeyPrefix+id)
	}
	keys = append(keys, userKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session revoke all: %w", err)
	}

	return nil
}
