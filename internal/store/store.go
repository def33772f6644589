// Package store persists day records keyed by calendar date.
//
// The engine reduces whole days at a time, so every implementation works in
// full DayRecord units; nothing below this package needs per-bucket access.
package store

import (
	"context"
	"errors"
	"time"

	"inboxpulse/internal/metrics"
)

// ErrNotFound is returned when no record exists for a requested date.
var ErrNotFound = errors.New("store: day not found")

// Metadata describes the stored dataset as a whole.
type Metadata struct {
	LastUpdated        time.Time `json:"last_updated"`
	TotalDaysProcessed int       `json:"total_days_processed"`
	DataSources        []string  `json:"data_sources,omitempty"`
	EarliestDate       string    `json:"earliest_date,omitempty"`
	LatestDate         string    `json:"latest_date,omitempty"`
}

// Store is the persistence contract for day records.
//
// Dates are YYYY-MM-DD strings (metrics.DayKey). Range queries are inclusive
// on both ends; an empty bound means unbounded on that side. PutDays upserts
// whole records and refreshes the metadata block in the same write; sources
// are the input file names that contributed the records.
type Store interface {
	Day(ctx context.Context, date string) (metrics.DayRecord, error)
	Days(ctx context.Context, from, to string) ([]metrics.DayRecord, error)
	Dates(ctx context.Context) ([]string, error)
	PutDays(ctx context.Context, records []metrics.DayRecord, sources []string) error
	Meta(ctx context.Context) (Metadata, error)
	Close() error
}

// refreshMeta recomputes the metadata block after a write. dates must be the
// full sorted key set after the write.
func refreshMeta(m Metadata, now time.Time, dates, sources []string) Metadata {
	m.LastUpdated = now
	m.TotalDaysProcessed = len(dates)
	if len(dates) > 0 {
		m.EarliestDate = dates[0]
		m.LatestDate = dates[len(dates)-1]
	}
	for _, src := range sources {
		if src == "" {
			continue
		}
		seen := false
		for _, s := range m.DataSources {
			if s == src {
				seen = true
				break
			}
		}
		if !seen {
			m.DataSources = append(m.DataSources, src)
		}
	}
	return m
}

// inRange reports whether date falls inside the inclusive [from, to] window.
// ISO dates compare correctly as strings.
func inRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}
