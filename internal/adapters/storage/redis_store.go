package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
	redis "github.com/redis/go-redis/v9"
)

// DefaultRedisKey is where the snapshot lives when no key is configured.
const DefaultRedisKey = "cyberpet:pet_state"

var _ ports.SnapshotStore = (*RedisStore)(nil)

// RedisStore keeps the pet snapshot as a JSON value under a single key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Save(ctx context.Context, state domain.PetState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode pet state: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (*domain.PetState, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var state domain.PetState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode state from %s: %w", s.key, err)
	}
	return &state, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
