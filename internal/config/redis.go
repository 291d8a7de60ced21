package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis when an address is configured. It returns
// nil when Redis is disabled or unreachable; callers degrade gracefully.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		log.Printf("redis disabled: empty address")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis disabled: %v", err)
		_ = client.Close()
		return nil
	}
	log.Printf("redis connected addr=%s", cfg.Addr)
	return client
}
