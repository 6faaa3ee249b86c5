package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

func stubRedis(t *testing.T, pingErr error) *string {
	t.Helper()

	origNewClient := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNewClient
		pingRedis = origPing
	})

	var capturedAddr string
	newRedisClient = func(opts *redis.Options) *redis.Client {
		capturedAddr = opts.Addr
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return pingErr
	}
	return &capturedAddr
}

func TestInitRedisWithCustomAddr(t *testing.T) {
	t.Setenv("REDIS_URL", "redis:9999")
	capturedAddr := stubRedis(t, nil)

	client := InitRedis(context.Background())
	if client == nil {
		t.Fatal("expected a client")
	}
	if *capturedAddr != "redis:9999" {
		t.Fatalf("expected custom addr, got %s", *capturedAddr)
	}
}

func TestInitRedisDisabledWithoutURL(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	stubRedis(t, nil)

	if client := InitRedis(context.Background()); client != nil {
		t.Fatal("expected nil client when REDIS_URL is unset")
	}
}

func TestInitRedisUnreachableIsNotFatal(t *testing.T) {
	t.Setenv("REDIS_URL", "redis:9999")
	stubRedis(t, errors.New("connection refused"))

	if client := InitRedis(context.Background()); client != nil {
		t.Fatal("expected nil client when Redis is unreachable")
	}
}
