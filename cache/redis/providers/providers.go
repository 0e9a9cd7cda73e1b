package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned when a requested key does not exist.
var ErrKeyNotFound = errors.New("key not found")

type RedisProvider struct {
	RedisClient *redis.Client
}

func NewRedisProvider(redisClient *redis.Client) (*RedisProvider, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("invalid redis client: nil pointer provided")
	}
	return &RedisProvider{RedisClient: redisClient}, nil
}

// SetJSON marshals value and stores it under key with the given TTL.
func (p *RedisProvider) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}
	return p.RedisClient.Set(ctx, key, data, ttl).Err()
}

// GetJSON fetches key and unmarshals it into dest. Returns ErrKeyNotFound
// when the key does not exist.
func (p *RedisProvider) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := p.RedisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrKeyNotFound
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

func (p *RedisProvider) Delete(ctx context.Context, key string) error {
	return p.RedisClient.Del(ctx, key).Err()
}

func (p *RedisProvider) AddToSet(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return p.RedisClient.SAdd(ctx, key, args...).Err()
}

func (p *RedisProvider) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return p.RedisClient.SRem(ctx, key, args...).Err()
}

func (p *RedisProvider) SetMembers(ctx context.Context, key string) ([]string, error) {
	return p.RedisClient.SMembers(ctx, key).Result()
}
