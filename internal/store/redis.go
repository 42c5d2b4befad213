package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jason-s-yu/argumentor/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "debate:"

// RedisStore keeps one JSON value per room under "debate:<code>" with a sliding TTL.
type RedisStore struct {
	rdb redis.UniversalClient
	ttl TTLPolicy
}

// NewRedisStore wraps an already connected client.
func NewRedisStore(rdb redis.UniversalClient, ttl TTLPolicy) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func key(roomCode string) string {
	return keyPrefix + roomCode
}

// Get loads and decodes the snapshot for roomCode.
func (s *RedisStore) Get(ctx context.Context, roomCode string) (*models.Debate, error) {
	data, err := s.rdb.Get(ctx, key(roomCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", roomCode, err)
	}
	var d models.Debate
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode debate %s: %w", roomCode, err)
	}
	return &d, nil
}

// Put writes the snapshot and resets its expiry according to its status.
func (s *RedisStore) Put(ctx context.Context, d models.Debate) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode debate %s: %w", d.RoomCode, err)
	}
	if err := s.rdb.Set(ctx, key(d.RoomCode), data, s.ttl.For(d)).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", d.RoomCode, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, roomCode string) error {
	if err := s.rdb.Del(ctx, key(roomCode)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", roomCode, err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, roomCode string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key(roomCode)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", roomCode, err)
	}
	return n == 1, nil
}

// Codes walks the keyspace with SCAN so large deployments are not blocked.
func (s *RedisStore) Codes(ctx context.Context) ([]string, error) {
	var codes []string
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		codes = append(codes, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return codes, nil
}
