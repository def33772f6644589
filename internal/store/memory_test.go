package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"inboxpulse/internal/metrics"
)

func TestMemoryStore_SeedAndQuery(t *testing.T) {
	s := NewMemory()
	s.Seed(dayRecord(t, "2025-08-01", 3), dayRecord(t, "2025-08-02", 1))
	ctx := context.Background()

	rec, err := s.Day(ctx, "2025-08-02")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if rec.Summary.TotalEmails != 1 {
		t.Fatalf("expected 1 email, got %d", rec.Summary.TotalEmails)
	}

	if _, err := s.Day(ctx, "2025-08-09"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Seed bypasses metadata on purpose.
	meta, err := s.Meta(ctx)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.TotalDaysProcessed != 0 {
		t.Fatalf("expected untouched metadata after seed, got %+v", meta)
	}
}

func TestMemoryStore_PutUpdatesMeta(t *testing.T) {
	s := NewMemory()
	fixed := time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	if err := s.PutDays(ctx, nil, nil); err != nil {
		t.Fatalf("empty put: %v", err)
	}
	meta, err := s.Meta(ctx)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if !meta.LastUpdated.IsZero() {
		t.Fatalf("empty put must not touch metadata, got %+v", meta)
	}

	if err := s.PutDays(ctx, []metrics.DayRecord{dayRecord(t, "2025-08-01", 2)}, []string{"01-08-25.csv"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	meta, err = s.Meta(ctx)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if !meta.LastUpdated.Equal(fixed) {
		t.Fatalf("expected last_updated %v, got %v", fixed, meta.LastUpdated)
	}
	if meta.EarliestDate != "2025-08-01" || meta.LatestDate != "2025-08-01" {
		t.Fatalf("unexpected date range %s..%s", meta.EarliestDate, meta.LatestDate)
	}
}
