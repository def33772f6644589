// Package ingest runs the batch pipeline: scan the data directory, parse the
// CSV exports, classify, aggregate, and fold the result into the day store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"inboxpulse/internal/classify"
	"inboxpulse/internal/metrics"
	"inboxpulse/internal/schedule"
	"inboxpulse/internal/store"
)

// ErrNoInput is returned when the data directory holds no CSV files.
var ErrNoInput = errors.New("ingest: no csv files found")

// Backupper is implemented by stores that can copy themselves into a backup
// directory. The file store does; the database stores have their own backup
// story and do not.
type Backupper interface {
	Backup(ctx context.Context, dir string) (string, error)
}

// Options are the run-invariant settings of an ingestion Service.
type Options struct {
	DataDir   string
	BackupDir string

	// UnreadThreshold derives sla_met for snapshot rows without a Title column.
	UnreadThreshold int
}

// Report summarizes one ingestion run.
type Report struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`

	EventFiles    int      `json:"event_files"`
	SnapshotFiles int      `json:"snapshot_files"`
	FailedFiles   []string `json:"failed_files,omitempty"`

	Events            int `json:"events"`
	Snapshots         int `json:"snapshots"`
	SkippedRows       int `json:"skipped_rows"`
	DuplicatesRemoved int `json:"duplicates_removed"`

	DaysWritten []string `json:"days_written,omitempty"`
	BackupPath  string   `json:"backup_path,omitempty"`
}

type Service struct {
	store store.Store
	hours schedule.BusinessHours
	opts  Options
	log   *slog.Logger

	// injectable for tests
	now   func() time.Time
	newID func() string
}

func NewService(st store.Store, hours schedule.BusinessHours, opts Options, log *slog.Logger) *Service {
	return &Service{
		store: st,
		hours: hours,
		opts:  opts,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Run executes one full ingestion pass. Per-file and per-row problems are
// logged and counted, never fatal; only store failures abort the run.
func (s *Service) Run(ctx context.Context) (Report, error) {
	rep := Report{RunID: s.newID(), StartedAt: s.now()}
	log := s.log.With("run_id", rep.RunID)

	paths, err := s.scan()
	if err != nil {
		return rep, err
	}
	if len(paths) == 0 {
		return rep, ErrNoInput
	}

	var (
		events    []classify.Event
		snaps     []metrics.UnreadSnapshot
		processed []string
		sources   []string
	)
	for _, path := range paths {
		base := filepath.Base(path)
		records, err := readCSV(path)
		if err != nil {
			log.Warn("skipping unreadable csv", "file", base, "error", err.Error())
			rep.FailedFiles = append(rep.FailedFiles, base)
			continue
		}
		if len(records) < 2 {
			log.Warn("skipping csv without data rows", "file", base)
			rep.FailedFiles = append(rep.FailedFiles, base)
			continue
		}

		idx := normalizeHeader(records[0])
		switch detectKind(idx) {
		case fileEvents:
			evs, skipped, err := parseEvents(records, idx, base, log)
			if err != nil {
				log.Warn("skipping event csv", "file", base, "error", err.Error())
				rep.FailedFiles = append(rep.FailedFiles, base)
				continue
			}
			events = append(events, evs...)
			rep.EventFiles++
			rep.SkippedRows += skipped
		case fileSnapshots:
			sn, skipped, err := parseSnapshots(records, idx, s.opts.UnreadThreshold, base, log)
			if err != nil {
				log.Warn("skipping snapshot csv", "file", base, "error", err.Error())
				rep.FailedFiles = append(rep.FailedFiles, base)
				continue
			}
			snaps = append(snaps, sn...)
			rep.SnapshotFiles++
			rep.SkippedRows += skipped
		default:
			log.Warn("skipping csv with unrecognized columns", "file", base)
			rep.FailedFiles = append(rep.FailedFiles, base)
			continue
		}
		processed = append(processed, path)
		sources = append(sources, base)
	}

	before := len(events)
	events = classify.Dedup(events)
	rep.DuplicatesRemoved = before - len(events)
	rep.Events = len(events)
	rep.Snapshots = len(snaps)

	emails := classify.Classify(events, s.hours)
	days := metrics.BuildDays(emails, snaps)

	records := make([]metrics.DayRecord, 0, len(days))
	for _, day := range days {
		rec := metrics.DayRecord{Day: day}
		rec.Summary = metrics.SummarizeDay(day, s.hours)

		key := metrics.DayKey(day.Date)
		existing, err := s.store.Day(ctx, key)
		switch {
		case err == nil:
			rec = metrics.MergeDayRecord(existing, rec, s.hours)
		case errors.Is(err, store.ErrNotFound):
			// first sighting of this date
		default:
			return rep, fmt.Errorf("load existing day %s: %w", key, err)
		}

		records = append(records, rec)
		rep.DaysWritten = append(rep.DaysWritten, key)
	}

	if len(records) > 0 {
		if err := s.store.PutDays(ctx, records, sources); err != nil {
			return rep, fmt.Errorf("write day records: %w", err)
		}
	}

	if b, ok := s.store.(Backupper); ok && len(records) > 0 {
		dst, err := b.Backup(ctx, s.opts.BackupDir)
		if err != nil {
			log.Warn("database backup failed", "error", err.Error())
		} else {
			rep.BackupPath = dst
			log.Info("database backed up", "path", dst)
		}
	}

	for _, path := range processed {
		dst, err := s.archive(path)
		if err != nil {
			log.Warn("could not move processed file", "file", filepath.Base(path), "error", err.Error())
			continue
		}
		log.Info("moved processed file", "from", filepath.Base(path), "to", dst)
	}

	log.Info("ingestion run complete",
		"event_files", rep.EventFiles,
		"snapshot_files", rep.SnapshotFiles,
		"failed_files", len(rep.FailedFiles),
		"events", rep.Events,
		"snapshots", rep.Snapshots,
		"skipped_rows", rep.SkippedRows,
		"duplicates_removed", rep.DuplicatesRemoved,
		"days_written", len(rep.DaysWritten),
	)
	return rep, nil
}

// scan lists the CSV files waiting in the data directory, sorted by name.
func (s *Service) scan() ([]string, error) {
	entries, err := os.ReadDir(s.opts.DataDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan data dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			paths = append(paths, filepath.Join(s.opts.DataDir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// archive moves a processed input into the backup directory under a
// timestamped name so the next run does not re-read it.
func (s *Service) archive(path string) (string, error) {
	if err := os.MkdirAll(s.opts.BackupDir, 0o755); err != nil {
		return "", err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	dst := filepath.Join(s.opts.BackupDir, fmt.Sprintf("%s_processed_%s%s", stem, s.now().Format("20060102_150405"), ext))
	if err := os.Rename(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}
