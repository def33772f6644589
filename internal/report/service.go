// Package report turns stored day records into the daily and weekly
// dashboards. It owns window resolution (which date, which week) and
// rendering; all metric math stays in internal/metrics.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"inboxpulse/internal/metrics"
	"inboxpulse/internal/schedule"
	"inboxpulse/internal/store"
)

// ErrNoData is returned when no stored day qualifies for the requested
// dashboard or window.
var ErrNoData = errors.New("report: no data for the requested period")

// lookbackDays bounds the backwards scan for the most recent qualifying day.
const lookbackDays = 730

var isoWeekPattern = regexp.MustCompile(`^(\d{4})-W(\d{1,2})$`)

type Service struct {
	store   store.Store
	hours   schedule.BusinessHours
	targets Targets

	// clock is injectable for tests
	now func() time.Time
}

func NewService(st store.Store, hours schedule.BusinessHours, targets Targets) *Service {
	return &Service{store: st, hours: hours, targets: targets, now: time.Now}
}

// Daily renders the daily dashboard. An empty date means the latest complete
// day: the most recent date with both email and SLA data, falling back to the
// most recent date with any data at all.
func (s *Service) Daily(ctx context.Context, date string) ([]byte, error) {
	rec, err := s.resolveDay(ctx, date)
	if err != nil {
		return nil, err
	}
	view := buildDailyView(rec, s.hours, s.targets, s.now())
	return renderDaily(view)
}

// Weekly computes the weekly summary for a window spec: "2025-W31" for an
// ISO week, empty for the seven days ending yesterday.
func (s *Service) Weekly(ctx context.Context, week string) (metrics.WeeklySummary, []metrics.DayRecord, error) {
	win, err := s.resolveWindow(week)
	if err != nil {
		return metrics.WeeklySummary{}, nil, err
	}

	days, err := s.store.Days(ctx, metrics.DayKey(win.Start), metrics.DayKey(win.End))
	if err != nil {
		return metrics.WeeklySummary{}, nil, fmt.Errorf("load window days: %w", err)
	}

	// An empty last-7 window slides back to the most recent stretch that has
	// data, so a dashboard generated after a quiet week still shows something.
	if len(qualifying(days)) == 0 && week == "" {
		if slid, ok, err := s.slideBack(ctx, win); err != nil {
			return metrics.WeeklySummary{}, nil, err
		} else if ok {
			win = slid
			days, err = s.store.Days(ctx, metrics.DayKey(win.Start), metrics.DayKey(win.End))
			if err != nil {
				return metrics.WeeklySummary{}, nil, fmt.Errorf("load window days: %w", err)
			}
		}
	}

	sum := metrics.SummarizeWeek(win, days, s.hours)
	return sum, days, nil
}

// WeeklyHTML renders the weekly dashboard for the same window specs as Weekly.
func (s *Service) WeeklyHTML(ctx context.Context, week string) ([]byte, error) {
	sum, days, err := s.Weekly(ctx, week)
	if err != nil {
		return nil, err
	}
	view := buildWeeklyView(sum, s.hours, s.targets, s.now(), days)
	return renderWeekly(view)
}

// WriteDaily renders the daily dashboard into dir as daily.html.
func (s *Service) WriteDaily(ctx context.Context, dir, date string) (string, error) {
	html, err := s.Daily(ctx, date)
	if err != nil {
		return "", err
	}
	return writeFile(dir, "daily.html", html)
}

// WriteWeekly renders the weekly dashboard into dir as weekly.html.
func (s *Service) WriteWeekly(ctx context.Context, dir, week string) (string, error) {
	html, err := s.WeeklyHTML(ctx, week)
	if err != nil {
		return "", err
	}
	return writeFile(dir, "weekly.html", html)
}

// resolveDay picks the record to render. Explicit dates must exist; the
// empty date scans stored dates newest-first, preferring days that carry
// both data sides.
func (s *Service) resolveDay(ctx context.Context, date string) (metrics.DayRecord, error) {
	if date != "" {
		rec, err := s.store.Day(ctx, date)
		if errors.Is(err, store.ErrNotFound) {
			return metrics.DayRecord{}, fmt.Errorf("%w: %s", ErrNoData, date)
		}
		return rec, err
	}

	dates, err := s.store.Dates(ctx)
	if err != nil {
		return metrics.DayRecord{}, fmt.Errorf("list stored dates: %w", err)
	}
	cutoff := metrics.DayKey(s.now().AddDate(0, 0, -lookbackDays))

	var fallback *metrics.DayRecord
	for i := len(dates) - 1; i >= 0; i-- {
		if dates[i] < cutoff {
			break
		}
		rec, err := s.store.Day(ctx, dates[i])
		if err != nil {
			return metrics.DayRecord{}, err
		}
		sum := rec.Summary
		if sum.HasEmailData && sum.HasSLAData {
			return rec, nil
		}
		if fallback == nil && (sum.HasEmailData || sum.HasSLAData) {
			r := rec
			fallback = &r
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return metrics.DayRecord{}, ErrNoData
}

// resolveWindow maps a week spec to a concrete date range.
func (s *Service) resolveWindow(week string) (metrics.Window, error) {
	if week == "" {
		start, end := metrics.LastSevenDays(s.now())
		return metrics.Window{
			Start: start,
			End:   end,
			Label: "Last 7 Days",
		}, nil
	}

	m := isoWeekPattern.FindStringSubmatch(week)
	if m == nil {
		return metrics.Window{}, fmt.Errorf("invalid week %q, want e.g. 2025-W31", week)
	}
	year, _ := strconv.Atoi(m[1])
	num, _ := strconv.Atoi(m[2])
	if num < 1 || num > 53 {
		return metrics.Window{}, fmt.Errorf("invalid week number %d", num)
	}
	start, end := metrics.ISOWeekRange(year, num)
	return metrics.Window{
		Start: start,
		End:   end,
		Label: fmt.Sprintf("Week %d, %d", num, year),
	}, nil
}

// slideBack moves a window to end on the most recent stored date with data
// that precedes the window, keeping the window's length.
func (s *Service) slideBack(ctx context.Context, win metrics.Window) (metrics.Window, bool, error) {
	dates, err := s.store.Dates(ctx)
	if err != nil {
		return metrics.Window{}, false, fmt.Errorf("list stored dates: %w", err)
	}
	cutoff := metrics.DayKey(s.now().AddDate(0, 0, -lookbackDays))
	endKey := metrics.DayKey(win.End)

	for i := len(dates) - 1; i >= 0; i-- {
		if dates[i] >= endKey {
			continue
		}
		if dates[i] < cutoff {
			break
		}
		rec, err := s.store.Day(ctx, dates[i])
		if err != nil {
			return metrics.Window{}, false, err
		}
		if !rec.Summary.HasEmailData && !rec.Summary.HasSLAData {
			continue
		}
		end := rec.Date
		length := int(win.End.Sub(win.Start).Hours()/24) + 1
		return metrics.Window{
			Start: end.AddDate(0, 0, -(length - 1)),
			End:   end,
			Label: win.Label,
		}, true, nil
	}
	return metrics.Window{}, false, nil
}

func qualifying(days []metrics.DayRecord) []metrics.DayRecord {
	var out []metrics.DayRecord
	for _, d := range days {
		if d.Summary.HasEmailData || d.Summary.HasSLAData {
			out = append(out, d)
		}
	}
	return out
}

func writeFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}
