package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"inboxpulse/internal/metrics"
)

// MemoryStore is a map-backed Store useful for tests.
// It is not intended for production use.

type MemoryStore struct {
	mu   sync.Mutex
	days map[string]metrics.DayRecord
	meta Metadata
	now  func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{
		days: map[string]metrics.DayRecord{},
		now:  time.Now,
	}
}

// Seed inserts records without touching metadata, for test setup.
func (s *MemoryStore) Seed(records ...metrics.DayRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.days[metrics.DayKey(r.Date)] = r
	}
}

func (s *MemoryStore) Day(ctx context.Context, date string) (metrics.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.days[date]
	if !ok {
		return metrics.DayRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Days(ctx context.Context, from, to string) ([]metrics.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []metrics.DayRecord
	for _, date := range s.sortedDatesLocked() {
		if inRange(date, from, to) {
			out = append(out, s.days[date])
		}
	}
	return out, nil
}

func (s *MemoryStore) Dates(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedDatesLocked(), nil
}

func (s *MemoryStore) PutDays(ctx context.Context, records []metrics.DayRecord, sources []string) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.days[metrics.DayKey(r.Date)] = r
	}
	s.meta = refreshMeta(s.meta, s.now(), s.sortedDatesLocked(), sources)
	return nil
}

func (s *MemoryStore) Meta(ctx context.Context) (Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) sortedDatesLocked() []string {
	dates := make([]string, 0, len(s.days))
	for d := range s.days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
