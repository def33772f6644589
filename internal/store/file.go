package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"inboxpulse/internal/metrics"
)

// document is the on-disk shape of the JSON database: a metadata block plus
// days keyed YYYY-MM-DD. Earlier tooling wrote the same layout, so existing
// databases load as-is.
type document struct {
	Metadata Metadata                     `json:"metadata"`
	Days     map[string]metrics.DayRecord `json:"days"`
}

// FileStore keeps the whole dataset in one JSON file. Reads serve from
// memory; every write rewrites the file through a temp file and rename, so a
// crash mid-write leaves the previous database intact.
type FileStore struct {
	path string
	log  *slog.Logger

	// clock is injectable for tests
	now func() time.Time

	mu  sync.Mutex
	doc document
}

var _ Store = (*FileStore)(nil)

// OpenFile loads the database at path, starting fresh when the file does not
// exist. A file that no longer parses is moved aside with a timestamped
// suffix and logged at ERROR; the store then starts empty rather than
// refusing every subsequent run.
func OpenFile(path string, log *slog.Logger) (*FileStore, error) {
	s := &FileStore{path: path, log: log, now: time.Now}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.doc = document{Days: map[string]metrics.DayRecord{}}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%s", s.path, s.now().Format("20060102_150405"))
		if mvErr := os.Rename(s.path, aside); mvErr != nil {
			return fmt.Errorf("store file is corrupt and could not be moved aside: %v (parse error: %w)", mvErr, err)
		}
		s.log.Error("store file is corrupt, starting a fresh database",
			"path", s.path,
			"moved_to", aside,
			"error", err.Error(),
		)
		s.doc = document{Days: map[string]metrics.DayRecord{}}
		return nil
	}
	if doc.Days == nil {
		doc.Days = map[string]metrics.DayRecord{}
	}
	s.doc = doc
	return nil
}

func (s *FileStore) Day(ctx context.Context, date string) (metrics.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.doc.Days[date]
	if !ok {
		return metrics.DayRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *FileStore) Days(ctx context.Context, from, to string) ([]metrics.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []metrics.DayRecord
	for _, date := range s.sortedDatesLocked() {
		if inRange(date, from, to) {
			out = append(out, s.doc.Days[date])
		}
	}
	return out, nil
}

func (s *FileStore) Dates(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedDatesLocked(), nil
}

func (s *FileStore) PutDays(ctx context.Context, records []metrics.DayRecord, sources []string) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.doc.Days[metrics.DayKey(r.Date)] = r
	}
	s.doc.Metadata = refreshMeta(s.doc.Metadata, s.now(), s.sortedDatesLocked(), sources)
	return s.flushLocked()
}

func (s *FileStore) Meta(ctx context.Context) (Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Metadata, nil
}

// Close is a no-op: every write already reached disk.
func (s *FileStore) Close() error { return nil }

// Backup writes a timestamped copy of the current database into dir and
// returns the copy's path.
func (s *FileStore) Backup(ctx context.Context, dir string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	base := filepath.Base(s.path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	dst := filepath.Join(dir, fmt.Sprintf("%s_backup_%s%s", stem, s.now().Format("20060102_150405"), ext))
	if err := os.WriteFile(dst, raw, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dst, nil
}

func (s *FileStore) sortedDatesLocked() []string {
	dates := make([]string, 0, len(s.doc.Days))
	for d := range s.doc.Days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

func (s *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
