package utils

import (
	"context"
	"testing"
	"time"
)

func TestRedisConfig_Defaults(t *testing.T) {
	cfg := RedisConfig{Addr: "127.0.0.1:6379"}.withDefaults()

	if cfg.DialTimeout != 3*time.Second {
		t.Fatalf("expected 3s dial timeout, got %v", cfg.DialTimeout)
	}
	if cfg.PoolSize != 10 {
		t.Fatalf("expected pool size 10, got %d", cfg.PoolSize)
	}
	if cfg.DB != 0 {
		t.Fatalf("expected db 0, got %d", cfg.DB)
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
