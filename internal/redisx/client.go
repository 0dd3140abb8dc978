package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr}).WithTimeout(2 * time.Second)
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	if rdb == nil {
		return false, nil // cache mati -> selalu miss, DB tetap benar
	}
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}
