package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"inboxpulse/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func dayRecord(t *testing.T, date string, total int) metrics.DayRecord {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("parse date %s: %v", date, err)
	}
	rec := metrics.DayRecord{}
	rec.Date = d
	for i := range rec.Buckets {
		rec.Buckets[i].Hour = i
	}
	rec.Buckets[9].EmailsReceived = total
	rec.Summary.Date = d
	rec.Summary.TotalEmails = total
	rec.Summary.HasEmailData = total > 0
	return rec
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	ctx := context.Background()

	s, err := OpenFile(path, testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fixed := time.Date(2025, 8, 4, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	records := []metrics.DayRecord{
		dayRecord(t, "2025-08-01", 5),
		dayRecord(t, "2025-08-03", 2),
	}
	if err := s.PutDays(ctx, records, []string{"01-08-25.csv"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	reopened, err := OpenFile(path, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Day(ctx, "2025-08-01")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if !reflect.DeepEqual(got, records[0]) {
		t.Fatalf("record changed across round trip:\n got %+v\nwant %+v", got, records[0])
	}

	dates, err := reopened.Dates(ctx)
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	want := []string{"2025-08-01", "2025-08-03"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("expected dates %v, got %v", want, dates)
	}

	meta, err := reopened.Meta(ctx)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.TotalDaysProcessed != 2 {
		t.Fatalf("expected 2 days processed, got %d", meta.TotalDaysProcessed)
	}
	if meta.EarliestDate != "2025-08-01" || meta.LatestDate != "2025-08-03" {
		t.Fatalf("expected range 2025-08-01..2025-08-03, got %s..%s", meta.EarliestDate, meta.LatestDate)
	}
	if !meta.LastUpdated.Equal(fixed) {
		t.Fatalf("expected last_updated %v, got %v", fixed, meta.LastUpdated)
	}
	if len(meta.DataSources) != 1 || meta.DataSources[0] != "01-08-25.csv" {
		t.Fatalf("expected one data source, got %v", meta.DataSources)
	}
}

func TestFileStore_MissingDay(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "db.json"), testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Day(context.Background(), "2025-01-01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_RangeQuery(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "db.json"), testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	err = s.PutDays(ctx, []metrics.DayRecord{
		dayRecord(t, "2025-08-01", 1),
		dayRecord(t, "2025-08-02", 2),
		dayRecord(t, "2025-08-05", 3),
	}, []string{"seed"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	days, err := s.Days(ctx, "2025-08-02", "2025-08-05")
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days in range, got %d", len(days))
	}
	if metrics.DayKey(days[0].Date) != "2025-08-02" || metrics.DayKey(days[1].Date) != "2025-08-05" {
		t.Fatalf("unexpected range contents: %s, %s", metrics.DayKey(days[0].Date), metrics.DayKey(days[1].Date))
	}

	all, err := s.Days(ctx, "", "")
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 days with open bounds, got %d", len(all))
	}
}

func TestFileStore_ReingestKeepsOneSourceEntry(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "db.json"), testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := s.PutDays(ctx, []metrics.DayRecord{dayRecord(t, "2025-08-01", 1)}, []string{"01-08-25.csv"}); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	meta, err := s.Meta(ctx)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if len(meta.DataSources) != 1 {
		t.Fatalf("expected source recorded once, got %v", meta.DataSources)
	}
	if meta.TotalDaysProcessed != 1 {
		t.Fatalf("expected 1 day processed, got %d", meta.TotalDaysProcessed)
	}
}

func TestFileStore_CorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	s, err := OpenFile(path, testLogger())
	if err != nil {
		t.Fatalf("open should recover from a corrupt file, got %v", err)
	}

	dates, err := s.Dates(context.Background())
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	if len(dates) != 0 {
		t.Fatalf("expected a fresh database, got dates %v", dates)
	}

	aside, err := filepath.Glob(path + ".corrupt-*")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(aside) != 1 {
		t.Fatalf("expected the corrupt file moved aside, found %v", aside)
	}

	// The store must be writable after recovery.
	if err := s.PutDays(context.Background(), []metrics.DayRecord{dayRecord(t, "2025-08-01", 1)}, []string{"seed"}); err != nil {
		t.Fatalf("put after recovery: %v", err)
	}
}

func TestFileStore_Backup(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(filepath.Join(dir, "email_database.json"), testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if err := s.PutDays(ctx, []metrics.DayRecord{dayRecord(t, "2025-08-01", 4)}, []string{"seed"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	backupDir := filepath.Join(dir, "backup")
	dst, err := s.Backup(ctx, backupDir)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if filepath.Dir(dst) != backupDir {
		t.Fatalf("expected backup under %s, got %s", backupDir, dst)
	}

	copied, err := OpenFile(dst, testLogger())
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	if _, err := copied.Day(ctx, "2025-08-01"); err != nil {
		t.Fatalf("backup should contain the stored day: %v", err)
	}
}
