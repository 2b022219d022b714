package health

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisPinger is the subset of a go-redis client the checker needs.
// Both *redis.Client and *redis.ClusterClient satisfy it.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker verifies Redis connectivity with a PING command.
type RedisChecker struct {
	name   string
	client RedisPinger
}

// NewRedisChecker creates a new Redis checker.
func NewRedisChecker(name string, client RedisPinger) *RedisChecker {
	return &RedisChecker{name: name, client: client}
}

// Name returns the name of this checker.
func (r *RedisChecker) Name() string {
	return r.name
}

// Check pings the Redis server.
func (r *RedisChecker) Check(ctx context.Context) Result {
	if r.client == nil {
		return Unhealthy("redis client not configured", ErrNilTarget)
	}

	if err := r.client.Ping(ctx).Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Unhealthy("redis ping timeout", ErrCheckTimeout)
		}
		return Unhealthy("redis connection failed", err)
	}

	return Healthy("redis reachable")
}
