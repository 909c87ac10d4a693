package storage

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/kataras/golog"
)

var Redis *redis.Client

func InitializeRedis(addr, password string) *redis.Client {
	if addr == "" {
		addr = "localhost:6379"
		golog.Warn("⚠️  REDIS_URL not set, using localhost:6379 (development mode)")
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := Redis.Ping(ctx).Err(); err != nil {
		golog.Warnf("⚠️  Redis not reachable at %s: %v", addr, err)
	}

	golog.Info("🔧 Redis initialized with address: ", addr)
	return Redis
}
