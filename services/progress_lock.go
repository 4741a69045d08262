package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressLock serializes completion processing per referee so that two
// progress triggers for the same user never interleave.
type ProgressLock interface {
	// Acquire takes the per-user lock and returns a release function, or
	// an error when the lock is held elsewhere.
	Acquire(ctx context.Context, userID primitive.ObjectID) (func(), error)
}

// RedisProgressLock implements ProgressLock with Redis SetNX and a TTL so
// a crashed holder cannot wedge the pipeline.
type RedisProgressLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProgressLock(client *redis.Client) *RedisProgressLock {
	return &RedisProgressLock{client: client, ttl: 60 * time.Second}
}

func (l *RedisProgressLock) Acquire(ctx context.Context, userID primitive.ObjectID) (func(), error) {
	key := fmt.Sprintf("referral_progress:%s", userID.Hex())

	ok, err := l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire progress lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("progress lock busy for user '%s'", userID.Hex())
	}

	return func() {
		l.client.Del(context.Background(), key)
	}, nil
}

// NoopProgressLock is used when Redis is unavailable; single-instance
// deployments fall back to transaction-level serialization only.
type NoopProgressLock struct{}

func (NoopProgressLock) Acquire(ctx context.Context, userID primitive.ObjectID) (func(), error) {
	return func() {}, nil
}
