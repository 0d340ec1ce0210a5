package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLoginLimiter_Window(t *testing.T) {
	client := redisClient(t)
	limiter := NewLoginLimiter(client, Config{
		Prefix:      "test_login_" + uuid.NewString(),
		Window:      time.Second,
		MaxAttempts: 3,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "ana@example.com")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	ok, err := limiter.Allow(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("fourth attempt should be throttled")
	}

	if ok, _ := limiter.Allow(ctx, "other@example.com"); !ok {
		t.Fatal("keys must be independent")
	}

	time.Sleep(1200 * time.Millisecond)
	if ok, _ := limiter.Allow(ctx, "ana@example.com"); !ok {
		t.Fatal("attempts should expire with the window")
	}
}

func TestLoginLimiter_Disabled(t *testing.T) {
	limiter := NewLoginLimiter(nil, Config{MaxAttempts: 0, Window: time.Minute})
	ok, err := limiter.Allow(context.Background(), "k")
	if err != nil || !ok {
		t.Fatalf("disabled limiter must allow, got %v %v", ok, err)
	}
}

func TestLoginLimiter_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	limiter := NewLoginLimiter(client, Config{Window: time.Minute, MaxAttempts: 5})
	if _, err := limiter.Allow(context.Background(), "k"); err == nil {
		t.Fatal("expected an error from an unreachable redis")
	}
}
