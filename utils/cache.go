package utils

import (
	"context"
	"time"

	"kvrdesk/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	// CacheClient holds conversation snapshots.
	CacheClient *redis.Client
)

// InitCache initializes the Redis client used for conversation snapshots.
// An unreachable Redis is logged, not fatal: snapshots are optional.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := CacheClient.Ping(ctx).Err(); err != nil {
		GetLogger().Warn("Failed to connect to Redis (Cache)", zap.Error(err))
	}
}

// GetCacheClient returns the snapshot cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}
