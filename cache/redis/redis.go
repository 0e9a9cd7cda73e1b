package redis

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Cache struct {
	RedisClient *redis.Client
}

// ConnectRedis establishes a connection to the Redis server using env config.
func ConnectRedis() *Cache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("failed to connect to Redis")
	}

	log.Info().Str("addr", addr).Msg("connected to Redis")
	return &Cache{RedisClient: client}
}

// Stop gracefully closes the Redis connection.
func (c *Cache) Stop() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			log.Error().Err(err).Msg("error closing Redis connection")
		} else {
			log.Info().Msg("Redis connection closed")
		}
	}
}
