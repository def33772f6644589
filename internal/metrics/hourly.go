package metrics

import (
	"sort"
	"time"

	"inboxpulse/internal/classify"
)

// BuildDays folds classified emails and unread snapshots into per-day hourly
// buckets. Every date seen in either input gets all 24 slots materialized so
// downstream reducers never index out of range. Days come back sorted by date.
func BuildDays(emails []classify.Email, snapshots []UnreadSnapshot) []Day {
	byKey := make(map[string]*Day)
	get := func(t time.Time) *Day {
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		k := DayKey(date)
		d, ok := byKey[k]
		if !ok {
			d = &Day{Date: date}
			for h := range d.Buckets {
				d.Buckets[h].Hour = h
			}
			byKey[k] = d
		}
		return d
	}

	for _, em := range emails {
		d := get(em.Day())
		switch em.Status {
		case classify.StatusReplied:
			d.Replied++
		case classify.StatusCompleted:
			d.Completed++
		default:
			d.Pending++
		}

		b := &d.Buckets[em.Hour()]
		b.EmailsReceived++
		if em.Resolved() && em.ResponseMinutes != nil {
			b.EmailsReplied++
			b.ResponseSum += *em.ResponseMinutes
			b.ResponseCount++
			b.ResponseSamples = append(b.ResponseSamples, *em.ResponseMinutes)
		}
	}

	for _, s := range snapshots {
		if s.Hour < 0 || s.Hour > 23 {
			continue
		}
		b := &get(s.Date).Buckets[s.Hour]
		unread := s.TotalUnread
		met := s.SLAMet
		b.UnreadCount = &unread
		b.SLAMet = &met
	}

	out := make([]Day, 0, len(byKey))
	for _, d := range byKey {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
