// Package rediswr implements cache.Cache on Redis.
package rediswr

import (
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewClient creates a new Redis client. A cluster client is returned when cfg.IsClusterMode is set.
func NewClient(cfg Config) redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:         strings.Split(cfg.Addrs, ","),
		Username:      cfg.Username,
		Password:      cfg.Password,
		DB:            cfg.DB,
		IsClusterMode: cfg.IsClusterMode,
		DialTimeout:   cfg.DialTimeout,
	})
}
