package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	cfg := PostgresPoolConfig{}.withDefaults()

	if cfg.MaxOpenConns != 10 {
		t.Fatalf("expected 10 max open conns, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns != 5 {
		t.Fatalf("expected 5 max idle conns, got %d", cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("expected 30m lifetime, got %v", cfg.ConnMaxLifetime)
	}
	if cfg.PingTimeout != 5*time.Second {
		t.Fatalf("expected 5s ping timeout, got %v", cfg.PingTimeout)
	}
}

func TestPostgresPoolConfig_KeepsExplicitValues(t *testing.T) {
	cfg := PostgresPoolConfig{
		MaxOpenConns: 3,
		PingTimeout:  time.Second,
	}.withDefaults()

	if cfg.MaxOpenConns != 3 {
		t.Fatalf("expected explicit max open conns to survive, got %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout != time.Second {
		t.Fatalf("expected explicit ping timeout to survive, got %v", cfg.PingTimeout)
	}
	if cfg.MaxIdleConns != 5 {
		t.Fatalf("expected default idle conns, got %d", cfg.MaxIdleConns)
	}
}
