package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"inboxpulse/internal/metrics"
	"inboxpulse/pkg/utils"
)

// PostgresStore keeps each day as one JSONB payload row. Days are always read
// and written whole, so the schema stays a flat key-value table:
//
//	day_records(date TEXT PRIMARY KEY, payload JSONB, updated_at TIMESTAMPTZ)
//	store_meta(id BOOLEAN PRIMARY KEY, payload JSONB)  -- single row
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects, verifies the connection, and creates the tables when
// they do not exist yet.
func OpenPostgres(ctx context.Context, dsn string, log *slog.Logger) (*PostgresStore, error) {
	db, err := utils.OpenPostgres(ctx, dsn, utils.PostgresPoolConfig{})
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	s := &PostgresStore{db: db, log: log, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate postgres store: %w", err)
	}
	s.log.Debug("postgres day store ready")
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	const days = `
CREATE TABLE IF NOT EXISTS day_records (
  date       TEXT PRIMARY KEY,
  payload    JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)
`
	const meta = `
CREATE TABLE IF NOT EXISTS store_meta (
  id      BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
  payload JSONB NOT NULL
)
`
	if _, err := s.db.ExecContext(ctx, days); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, meta); err != nil {
		return err
	}
	return nil
}

func (s *PostgresStore) Day(ctx context.Context, date string) (metrics.DayRecord, error) {
	const q = `
SELECT payload
FROM day_records
WHERE date = $1
`
	var raw []byte
	if err := s.db.QueryRowContext(ctx, q, date).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return metrics.DayRecord{}, ErrNotFound
		}
		return metrics.DayRecord{}, err
	}
	return decodeDay(raw)
}

func (s *PostgresStore) Days(ctx context.Context, from, to string) ([]metrics.DayRecord, error) {
	const q = `
SELECT payload
FROM day_records
WHERE ($1 = '' OR date >= $1)
  AND ($2 = '' OR date <= $2)
ORDER BY date
`
	rows, err := s.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []metrics.DayRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		rec, err := decodeDay(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Dates(ctx context.Context) ([]string, error) {
	const q = `
SELECT date
FROM day_records
ORDER BY date
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) PutDays(ctx context.Context, records []metrics.DayRecord, sources []string) error {
	if len(records) == 0 {
		return nil
	}
	now := s.now()
	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, r := range records {
			if err := upsertDay(ctx, tx, metrics.DayKey(r.Date), r, now); err != nil {
				return err
			}
		}

		meta, err := readMeta(ctx, tx)
		if err != nil {
			return err
		}
		dates, err := datesTx(ctx, tx)
		if err != nil {
			return err
		}
		return writeMeta(ctx, tx, refreshMeta(meta, now, dates, sources))
	})
}

func (s *PostgresStore) Meta(ctx context.Context) (Metadata, error) {
	const q = `
SELECT payload
FROM store_meta
WHERE id
`
	var raw []byte
	if err := s.db.QueryRowContext(ctx, q).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Metadata{}, nil
		}
		return Metadata{}, err
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, fmt.Errorf("decode store metadata: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func upsertDay(ctx context.Context, tx *sql.Tx, date string, rec metrics.DayRecord, now time.Time) error {
	const q = `
INSERT INTO day_records (date, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (date)
DO UPDATE SET payload = EXCLUDED.payload,
              updated_at = EXCLUDED.updated_at
`
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode day %s: %w", date, err)
	}
	_, err = tx.ExecContext(ctx, q, date, raw, now)
	return err
}

func readMeta(ctx context.Context, tx *sql.Tx) (Metadata, error) {
	const q = `
SELECT payload
FROM store_meta
WHERE id
`
	var raw []byte
	if err := tx.QueryRowContext(ctx, q).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Metadata{}, nil
		}
		return Metadata{}, err
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, fmt.Errorf("decode store metadata: %w", err)
	}
	return m, nil
}

func writeMeta(ctx context.Context, tx *sql.Tx, m Metadata) error {
	const q = `
INSERT INTO store_meta (id, payload)
VALUES (TRUE, $1)
ON CONFLICT (id)
DO UPDATE SET payload = EXCLUDED.payload
`
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode store metadata: %w", err)
	}
	_, err = tx.ExecContext(ctx, q, raw)
	return err
}

func datesTx(ctx context.Context, tx *sql.Tx) ([]string, error) {
	const q = `
SELECT date
FROM day_records
ORDER BY date
`
	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func decodeDay(raw []byte) (metrics.DayRecord, error) {
	var rec metrics.DayRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return metrics.DayRecord{}, fmt.Errorf("decode day record: %w", err)
	}
	return rec, nil
}
