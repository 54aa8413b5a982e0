package docconv

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisPushTimeout bounds each telemetry push so a slow or dead Redis
// never holds a request goroutine.
const redisPushTimeout = 250 * time.Millisecond

// redisKeyPrefix namespaces telemetry keys.
const redisKeyPrefix = "docconv:metrics:"

// RedisSink mirrors telemetry into Redis so external dashboards can
// read counters across restarts. Every push is fire-and-forget with a
// short deadline; errors are dropped after a debug log.
type RedisSink struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisSink connects to Redis and verifies reachability.
// Callers fall back to in-memory-only telemetry on error.
func NewRedisSink(ctx context.Context, addr, password string, db int, log *zap.Logger) (*RedisSink, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis telemetry unavailable: %w", err)
	}
	return &RedisSink{client: client, log: log}, nil
}

func (s *RedisSink) Count(name string, delta int64) {
	s.push(func(ctx context.Context) error {
		return s.client.IncrBy(ctx, redisKeyPrefix+name, delta).Err()
	})
}

func (s *RedisSink) GaugeAdd(name string, delta float64) {
	s.push(func(ctx context.Context) error {
		return s.client.IncrByFloat(ctx, redisKeyPrefix+name, delta).Err()
	})
}

func (s *RedisSink) GaugeSet(name string, value float64) {
	s.push(func(ctx context.Context) error {
		return s.client.Set(ctx, redisKeyPrefix+name, value, 0).Err()
	})
}

func (s *RedisSink) Observe(name string, value float64) {
	s.push(func(ctx context.Context) error {
		pipe := s.client.Pipeline()
		pipe.IncrByFloat(ctx, redisKeyPrefix+name+"_sum", value)
		pipe.Incr(ctx, redisKeyPrefix+name+"_count")
		_, err := pipe.Exec(ctx)
		return err
	})
}

// Close releases the Redis connection.
func (s *RedisSink) Close() error { return s.client.Close() }

// push runs op off the request path under a short deadline.
func (s *RedisSink) push(op func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), redisPushTimeout)
		defer cancel()
		if err := op(ctx); err != nil {
			s.log.Debug("telemetry push dropped", zap.Error(err))
		}
	}()
}
