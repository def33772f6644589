package metrics

import (
	"fmt"
	"sort"
	"time"

	"inboxpulse/internal/schedule"
)

// Window is a resolved report range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// DayRef points a weekly superlative at a specific date.
type DayRef struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// HourBlock is a fixed two-hour aggregation window across a report range.
type HourBlock struct {
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	Label     string `json:"label"`

	Emails                int      `json:"emails"`
	AvgUnread             *float64 `json:"avg_unread,omitempty"`
	SLAMet                *bool    `json:"sla_met,omitempty"`
	AvgResponseMinutes    *float64 `json:"avg_response_time,omitempty"`
	MedianResponseMinutes *float64 `json:"median_response_time,omitempty"`
}

// WeeklySummary reduces a window of day records to weekly KPIs.
type WeeklySummary struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Label       string    `json:"label"`

	DataDaysCount  int  `json:"data_days_count"`
	HasPartialWeek bool `json:"has_partial_week"`

	TotalEmails        int      `json:"total_emails"`
	AvgEmailsPerDay    *float64 `json:"avg_emails_per_day,omitempty"`
	AvgUnreadCount     *float64 `json:"avg_unread_count,omitempty"`
	AvgResponseMinutes *float64 `json:"avg_response_time_minutes,omitempty"`
	SLAComplianceRate  *float64 `json:"sla_compliance_rate,omitempty"`

	Distribution []CategoryShare `json:"response_distribution,omitempty"`
	Blocks       []HourBlock     `json:"hour_blocks,omitempty"`

	BestDay     *DayRef `json:"best_day,omitempty"`
	WorstDay    *DayRef `json:"worst_day,omitempty"`
	BusiestDay  *DayRef `json:"busiest_day,omitempty"`
	QuietestDay *DayRef `json:"quietest_day,omitempty"`
}

// SummarizeWeek reduces a window of day records into weekly KPIs. Days where
// both data flags are false are excluded even if the caller passed them.
//
// Weighting rules:
// - avg response time: weighted by each day's resolved-email count, falling
//   back to an unweighted mean of daily averages when no day has a count.
// - SLA compliance: weighted by each day's total emails, same fallback.
// - avg unread: plain mean of the daily means that exist.
func SummarizeWeek(win Window, records []DayRecord, hours schedule.BusinessHours) WeeklySummary {
	days := make([]DayRecord, 0, len(records))
	for _, r := range records {
		if r.Summary.HasEmailData || r.Summary.HasSLAData {
			days = append(days, r)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	w := WeeklySummary{
		WindowStart:    win.Start,
		WindowEnd:      win.End,
		Label:          win.Label,
		DataDaysCount:  len(days),
		HasPartialWeek: len(days) < 3,
	}

	for _, d := range days {
		w.TotalEmails += d.Summary.TotalEmails
	}
	if len(days) > 0 {
		v := round1(float64(w.TotalEmails) / float64(len(days)))
		w.AvgEmailsPerDay = &v
	}

	var unreadSum float64
	var unreadN int
	for _, d := range days {
		if d.Summary.AvgUnreadCount != nil {
			unreadSum += *d.Summary.AvgUnreadCount
			unreadN++
		}
	}
	if unreadN > 0 {
		v := round1(unreadSum / float64(unreadN))
		w.AvgUnreadCount = &v
	}

	w.AvgResponseMinutes = weeklyAvgResponse(days)
	w.SLAComplianceRate = weeklySLACompliance(days)
	w.Distribution = Distribution(weekDurations(days, hours))
	w.Blocks = HourBlocks(days, hours)
	w.BestDay, w.WorstDay, w.BusiestDay, w.QuietestDay = superlatives(days)
	return w
}

func weeklyAvgResponse(days []DayRecord) *float64 {
	var weightedSum float64
	var weight int
	var plain []float64
	for _, d := range days {
		s := d.Summary
		if s.AvgResponseMinutes == nil {
			continue
		}
		plain = append(plain, *s.AvgResponseMinutes)
		if n := s.ResolvedCount(); n > 0 {
			weightedSum += *s.AvgResponseMinutes * float64(n)
			weight += n
		}
	}
	if weight > 0 {
		v := round1(weightedSum / float64(weight))
		return &v
	}
	if len(plain) > 0 {
		v := round1(meanOf(plain))
		return &v
	}
	return nil
}

func weeklySLACompliance(days []DayRecord) *float64 {
	var weightedSum float64
	var weight int
	var plain []float64
	for _, d := range days {
		s := d.Summary
		if s.SLAComplianceRate == nil {
			continue
		}
		plain = append(plain, *s.SLAComplianceRate)
		if s.TotalEmails > 0 {
			weightedSum += *s.SLAComplianceRate * float64(s.TotalEmails)
			weight += s.TotalEmails
		}
	}
	if weight > 0 {
		v := round1(weightedSum / float64(weight))
		return &v
	}
	if len(plain) > 0 {
		v := round1(meanOf(plain))
		return &v
	}
	return nil
}

func weekDurations(days []DayRecord, hours schedule.BusinessHours) []float64 {
	var out []float64
	for _, d := range days {
		out = append(out, businessDurations(d.Day, hours)...)
	}
	return out
}

// HourBlocks partitions business hours into fixed two-hour blocks starting at
// the configured start hour, aggregating every passed day into each block.
// The last block clips to the end hour when the range is odd.
func HourBlocks(days []DayRecord, hours schedule.BusinessHours) []HourBlock {
	var out []HourBlock
	for start := hours.StartHour; start < hours.EndHour; start += 2 {
		end := start + 2
		if end > hours.EndHour {
			end = hours.EndHour
		}
		blk := HourBlock{StartHour: start, EndHour: end, Label: blockLabel(start, end)}

		var unreadSum float64
		var unreadN, slaKnown int
		allMet := true
		var durations []float64

		for _, d := range days {
			for h := start; h < end; h++ {
				if !hours.Contains(d.Date, h) {
					continue
				}
				b := d.Buckets[h]
				blk.Emails += b.EmailsReceived
				if b.UnreadCount != nil {
					unreadSum += float64(*b.UnreadCount)
					unreadN++
				}
				if b.SLAMet != nil {
					slaKnown++
					if !*b.SLAMet {
						allMet = false
					}
				}
				durations = append(durations, b.durations()...)
			}
		}

		if unreadN > 0 {
			v := round1(unreadSum / float64(unreadN))
			blk.AvgUnread = &v
		}
		if slaKnown > 0 {
			met := allMet
			blk.SLAMet = &met
		}
		if len(durations) > 0 {
			avg := round1(meanOf(durations))
			blk.AvgResponseMinutes = &avg

			sorted := append([]float64(nil), durations...)
			sort.Float64s(sorted)
			if p := percentileOf(sorted, 0.50); p != nil {
				med := round1(*p)
				blk.MedianResponseMinutes = &med
			}
		}
		out = append(out, blk)
	}
	return out
}

// superlatives picks the week's standout days. Days are sorted ascending, so
// strict comparisons leave ties on the earliest date. Busiest and quietest
// only consider days that actually carry email data.
func superlatives(days []DayRecord) (best, worst, busiest, quietest *DayRef) {
	for _, d := range days {
		s := d.Summary
		if s.SLAComplianceRate != nil && (best == nil || *s.SLAComplianceRate > best.Value) {
			best = &DayRef{Date: d.Date, Value: *s.SLAComplianceRate}
		}
		if s.AvgResponseMinutes != nil && (worst == nil || *s.AvgResponseMinutes > worst.Value) {
			worst = &DayRef{Date: d.Date, Value: *s.AvgResponseMinutes}
		}
		if s.HasEmailData {
			total := float64(s.TotalEmails)
			if busiest == nil || total > busiest.Value {
				busiest = &DayRef{Date: d.Date, Value: total}
			}
			if quietest == nil || total < quietest.Value {
				quietest = &DayRef{Date: d.Date, Value: total}
			}
		}
	}
	return best, worst, busiest, quietest
}

// ISOWeekRange returns the Monday and Sunday of the given ISO-8601 week.
func ISOWeekRange(year, week int) (start, end time.Time) {
	// January 4th is always inside ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	start = monday.AddDate(0, 0, (week-1)*7)
	return start, start.AddDate(0, 0, 6)
}

// LastSevenDays returns the seven-day range ending yesterday relative to today.
func LastSevenDays(today time.Time) (start, end time.Time) {
	end = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()).AddDate(0, 0, -1)
	return end.AddDate(0, 0, -6), end
}

// HourLabel formats an hour on the 12-hour clock ("7 AM", "12 PM").
func HourLabel(h int) string {
	switch {
	case h == 0:
		return "12 AM"
	case h < 12:
		return fmt.Sprintf("%d AM", h)
	case h == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", h-12)
	}
}

func blockLabel(start, end int) string {
	return HourLabel(start) + " - " + HourLabel(end)
}
