package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkce-labs/vivalab-backend/internal/config"
	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// RedisStore keeps question sets in Redis so attempts survive process
// restarts and multiple server instances see the same paper. Expiry is
// delegated to Redis via TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisStore) Put(ctx context.Context, key Key, questions []model.Question) error {
	payload, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store questions: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key Key) ([]model.Question, error) {
	payload, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	var questions []model.Question
	if err := json.Unmarshal(payload, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	return questions, nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	return nil
}

func (s *RedisStore) key(key Key) string {
	return config.CacheKey.SessionQuestionsKey(key.StudentID, key.ExperimentID, key.SessionID)
}
