package config

import (
	"context"
	"log"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis dials the optional redis instance used for the best-effort
// webhook run lock. An empty address or an unreachable server is not fatal:
// the MySQL advisory lock inside the rollup engine stays authoritative, so
// both return values may be nil.
func ConnectRedis(cfg *Config) (*redis.Client, *redislock.Client) {
	if cfg.RedisAddress == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddress,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis not reachable at %s: %v; proceeding without redis lock", cfg.RedisAddress, err)
		_ = rdb.Close()
		return nil, nil
	}

	return rdb, redislock.New(rdb)
}
