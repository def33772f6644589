package schedule

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// BusinessHours defines the hour range and weekday set during which
// response-time and SLA metrics are measured.
//
// Contract:
// - The hour range is half-open: a slot at StartHour counts, a slot at EndHour does not.
// - Weekday indices follow the data sources: 0=Monday .. 6=Sunday.
// - Pure calendar math. No clock reads, no timezone conversions.

type BusinessHours struct {
	StartHour int
	EndHour   int

	// days is indexed by Monday-based weekday.
	days [7]bool
}

var ErrInvalidHours = errors.New("schedule: invalid business hours")

// New builds a BusinessHours from an hour range and weekday indices (0=Monday).
func New(startHour, endHour int, days []int) (BusinessHours, error) {
	if startHour < 0 || startHour > 23 {
		return BusinessHours{}, fmt.Errorf("%w: start_hour %d out of range", ErrInvalidHours, startHour)
	}
	if endHour < 0 || endHour > 23 {
		return BusinessHours{}, fmt.Errorf("%w: end_hour %d out of range", ErrInvalidHours, endHour)
	}
	if endHour <= startHour {
		return BusinessHours{}, fmt.Errorf("%w: end_hour %d not after start_hour %d", ErrInvalidHours, endHour, startHour)
	}
	if len(days) == 0 {
		return BusinessHours{}, fmt.Errorf("%w: empty business-day set", ErrInvalidHours)
	}
	b := BusinessHours{StartHour: startHour, EndHour: endHour}
	for _, d := range days {
		if d < 0 || d > 6 {
			return BusinessHours{}, fmt.Errorf("%w: business day %d out of range", ErrInvalidHours, d)
		}
		b.days[d] = true
	}
	return b, nil
}

// Contains reports whether the given date and hour-of-day is a business slot.
func (b BusinessHours) Contains(date time.Time, hour int) bool {
	if hour < b.StartHour || hour >= b.EndHour {
		return false
	}
	return b.Workday(date.Weekday())
}

// Workday reports whether the weekday is in the business-day set.
func (b BusinessHours) Workday(d time.Weekday) bool {
	return b.days[mondayIndex(d)]
}

// MinutesBetween reports the business-minutes elapsed between from and to:
// only minutes inside [StartHour:00, EndHour:00) on business days count.
// A span crossing midnight or spanning several days accumulates each day's
// overlap separately. Returns 0 when to is not after from.
func (b BusinessHours) MinutesBetween(from, to time.Time) float64 {
	if !to.After(from) {
		return 0
	}

	total := 0.0
	cur := from
	for cur.Before(to) {
		dayEnd := nextMidnight(cur)
		segEnd := to
		if dayEnd.Before(segEnd) {
			segEnd = dayEnd
		}

		if b.Workday(cur.Weekday()) {
			winStart := time.Date(cur.Year(), cur.Month(), cur.Day(), b.StartHour, 0, 0, 0, cur.Location())
			winEnd := time.Date(cur.Year(), cur.Month(), cur.Day(), b.EndHour, 0, 0, 0, cur.Location())

			s := cur
			if s.Before(winStart) {
				s = winStart
			}
			e := segEnd
			if e.After(winEnd) {
				e = winEnd
			}
			if e.After(s) {
				total += e.Sub(s).Minutes()
			}
		}
		cur = dayEnd
	}
	return round2(total)
}

// mondayIndex converts time.Weekday (Sunday=0) to the 0=Monday convention.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func nextMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
