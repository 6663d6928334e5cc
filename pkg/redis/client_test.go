package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestSetNXAndDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, "od:lock:backup", "owner-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "od:lock:backup", "owner-2", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second SetNX to lose, ok=%v err=%v", ok, err)
	}

	value, err := client.Get(ctx, "od:lock:backup")
	if err != nil || value != "owner-1" {
		t.Fatalf("unexpected owner %q err=%v", value, err)
	}

	if err := client.Del(ctx, "od:lock:backup"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "od:lock:backup"); !IsNil(err) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on uninitialized client should be a no-op: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("orders.submit", "abc"); got != "od:idempotency:orders.submit:abc" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.LockKey("csv-backup"); got != "od:lock:csv-backup" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.IdempotencyKey("scope", ""); got != "od:idempotency:scope" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 3 {
		t.Fatalf("unexpected options %+v", opts)
	}
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
