package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultGuardTTL = 24 * time.Hour

// IRedis is a one-shot key store used to make sure a dispatch happens once
// per session even when several processes see the same call end.
type IRedis interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

type redisClient struct {
	client *redis.Client
	ttl    time.Duration
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client, ttl: ttlFromEnv()}
}

func ttlFromEnv() time.Duration {
	raw := os.Getenv("DISPATCH_GUARD_TTL")
	if raw == "" {
		return DefaultGuardTTL
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		logrus.Warn(fmt.Sprintf("Invalid DISPATCH_GUARD_TTL %q, using %s", raw, DefaultGuardTTL))
		return DefaultGuardTTL
	}
	return ttl
}

// Acquire reports whether the caller is the first to claim key.
func (r *redisClient) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error acquiring guard %s: %v", key, err))
		return false, err
	}
	if !ok {
		logrus.Debug(fmt.Sprintf("Guard %s already held", key))
	}
	return ok, nil
}

func (r *redisClient) Release(ctx context.Context, key string) error {
	result, err := r.client.Del(ctx, key).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error releasing guard %s: %v", key, err))
		return err
	}

	if result == 0 {
		logrus.Debug(fmt.Sprintf("Guard %s not found for release", key))
	}
	return nil
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
