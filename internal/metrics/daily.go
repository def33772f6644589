package metrics

import (
	"math"
	"sort"

	"inboxpulse/internal/schedule"
)

// ResponseBand is one fixed response-time category in minutes. Bounds are
// half-open; the last band is open-ended.
type ResponseBand struct {
	Label string
	UpTo  float64
}

var responseBands = []ResponseBand{
	{Label: "Lightning Fast", UpTo: 30},
	{Label: "Fast", UpTo: 60},
	{Label: "Moderate", UpTo: 120},
	{Label: "Slow", UpTo: 180},
	{Label: "Very Slow", UpTo: 300},
	{Label: "Critical", UpTo: math.Inf(1)},
}

// ResponseBands exposes the fixed category ladder for renderers.
func ResponseBands() []ResponseBand {
	return responseBands
}

// SummarizeDay reduces one day's hourly buckets into its daily record.
//
// Response-time statistics (average, median, percentiles, distribution,
// quartiles) are computed over the durations found in business-hour buckets.
// Unread and SLA statistics are likewise gated to business hours. Totals and
// resolved counts cover the whole day. Pure function: identical input
// produces float-identical output.
func SummarizeDay(day Day, hours schedule.BusinessHours) DaySummary {
	s := DaySummary{
		Date:           day.Date,
		RepliedCount:   day.Replied,
		CompletedCount: day.Completed,
		PendingCount:   day.Pending,
	}

	for _, b := range day.Buckets {
		s.TotalEmails += b.EmailsReceived
		if b.SLAMet != nil {
			s.HasSLAData = true
		}
	}
	s.HasEmailData = s.TotalEmails > 0

	if s.TotalEmails > 0 {
		rate := round2(float64(day.Replied+day.Completed) / float64(s.TotalEmails) * 100)
		s.ReplyRatePercent = &rate
	}

	durations := businessDurations(day, hours)
	if len(durations) > 0 {
		avg := round2(meanOf(durations))
		s.AvgResponseMinutes = &avg

		sorted := append([]float64(nil), durations...)
		sort.Float64s(sorted)
		s.MedianResponseMinutes = percentileOf(sorted, 0.50)
		s.Percentiles = Percentiles{
			P25: percentileOf(sorted, 0.25),
			P50: percentileOf(sorted, 0.50),
			P75: percentileOf(sorted, 0.75),
			P90: percentileOf(sorted, 0.90),
			P95: percentileOf(sorted, 0.95),
		}
		s.Quartiles = quartileCounts(sorted, s.Percentiles)
	}
	s.Distribution = Distribution(durations)

	var unreadSum float64
	var unreadN, slaMet, slaKnown int
	for h, b := range day.Buckets {
		if !hours.Contains(day.Date, h) {
			continue
		}
		if b.UnreadCount != nil {
			unreadSum += float64(*b.UnreadCount)
			unreadN++
		}
		if b.SLAMet != nil {
			slaKnown++
			if *b.SLAMet {
				slaMet++
			}
		}
	}
	if unreadN > 0 {
		v := round2(unreadSum / float64(unreadN))
		s.AvgUnreadCount = &v
	}
	if slaKnown > 0 {
		v := round2(float64(slaMet) / float64(slaKnown) * 100)
		s.SLAComplianceRate = &v
	}

	return s
}

// Distribution buckets every duration into its response band and computes
// each band's share of the resolved total. Shares stay nil on empty input.
func Distribution(durations []float64) []CategoryShare {
	out := make([]CategoryShare, len(responseBands))
	for i, b := range responseBands {
		out[i].Label = b.Label
	}
	for _, v := range durations {
		out[bandIndex(v)].Count++
	}
	if n := len(durations); n > 0 {
		for i := range out {
			p := round1(float64(out[i].Count) / float64(n) * 100)
			out[i].Percent = &p
		}
	}
	return out
}

func bandIndex(v float64) int {
	for i, b := range responseBands {
		if v < b.UpTo {
			return i
		}
	}
	return len(responseBands) - 1
}

// businessDurations collects the day's response durations from business-hour
// buckets, preferring retained raw samples over bucket-mean expansion.
func businessDurations(day Day, hours schedule.BusinessHours) []float64 {
	var out []float64
	for h := range day.Buckets {
		if !hours.Contains(day.Date, h) {
			continue
		}
		out = append(out, day.Buckets[h].durations()...)
	}
	return out
}

func quartileCounts(sorted []float64, p Percentiles) *QuartileCounts {
	if len(sorted) == 0 || p.P25 == nil || p.P50 == nil || p.P75 == nil {
		return nil
	}
	var q QuartileCounts
	for _, v := range sorted {
		switch {
		case v <= *p.P25:
			q.Q1++
		case v <= *p.P50:
			q.Q2++
		case v <= *p.P75:
			q.Q3++
		default:
			q.Q4++
		}
	}
	return &q
}
