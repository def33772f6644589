package report

import (
	"fmt"
	"time"

	"inboxpulse/internal/metrics"
	"inboxpulse/internal/schedule"
)

// missing is the marker rendered for every metric whose inputs were absent.
const missing = "--"

// Targets are the KPI goals the dashboards grade against.
type Targets struct {
	ResponseTimeTargetMin  float64
	SLAComplianceTargetPct float64
	UnreadThreshold        int
}

// BandRow is one response-time band of the distribution chart. Width is the
// raw percentage used for the bar, zero when nothing resolved.
type BandRow struct {
	Label   string
	Count   int
	Percent string
	Width   float64
}

// PercentileRow is one rung of the response-time ladder.
type PercentileRow struct {
	Label string
	Value string
}

// QuartileRow is one quarter of the resolved-email population.
type QuartileRow struct {
	Label   string
	Count   int
	Percent string
}

// HourRow is one business-hour line of the daily table.
type HourRow struct {
	Label       string
	Received    int
	Replied     int
	AvgResponse string
	Unread      string
	SLA         string
}

// BlockRow is one two-hour aggregation block.
type BlockRow struct {
	Label          string
	Emails         int
	AvgUnread      string
	SLA            string
	AvgResponse    string
	MedianResponse string
}

// DailyView is the template context for the daily dashboard.
type DailyView struct {
	Date          string
	FormattedDate string
	GeneratedAt   string
	HoursLabel    string

	TotalEmails    int
	Replied        int
	Completed      int
	Pending        int
	ReplyRate      string
	AvgResponse    string
	MedianResponse string
	SLACompliance  string
	AvgUnread      string

	ResponseTargetLabel   string
	ComplianceTargetLabel string

	// AvgResponseClass and ComplianceClass are "ok", "warn", or empty when
	// the metric is missing; the templates use them as CSS classes.
	AvgResponseClass string
	ComplianceClass  string

	HasEmailData bool
	HasSLAData   bool

	Distribution []BandRow
	Percentiles  []PercentileRow
	Quartiles    []QuartileRow
	Hours        []HourRow
	Blocks       []BlockRow
}

// WeekDayRow is one day line of the weekly table.
type WeekDayRow struct {
	Date          string
	Emails        int
	ReplyRate     string
	AvgResponse   string
	SLACompliance string
	AvgUnread     string
}

// WeeklyView is the template context for the weekly dashboard.
type WeeklyView struct {
	Label       string
	RangeLabel  string
	GeneratedAt string
	HoursLabel  string

	DataDays    int
	PartialWeek bool

	TotalEmails   int
	AvgPerDay     string
	AvgUnread     string
	AvgResponse   string
	SLACompliance string

	AvgResponseClass string
	ComplianceClass  string

	BestDay     string
	WorstDay    string
	BusiestDay  string
	QuietestDay string

	Days         []WeekDayRow
	Blocks       []BlockRow
	Distribution []BandRow
}

func buildDailyView(rec metrics.DayRecord, hours schedule.BusinessHours, targets Targets, now time.Time) DailyView {
	sum := rec.Summary
	v := DailyView{
		Date:          metrics.DayKey(rec.Date),
		FormattedDate: rec.Date.Format("January 2, 2006"),
		GeneratedAt:   now.Format("Jan 2, 2006 3:04 PM"),
		HoursLabel:    hoursLabel(hours),

		TotalEmails:    sum.TotalEmails,
		Replied:        sum.RepliedCount,
		Completed:      sum.CompletedCount,
		Pending:        sum.PendingCount,
		ReplyRate:      fmtPercent(sum.ReplyRatePercent),
		AvgResponse:    fmtMinutes(sum.AvgResponseMinutes),
		MedianResponse: fmtMinutes(sum.MedianResponseMinutes),
		SLACompliance:  fmtPercent(sum.SLAComplianceRate),
		AvgUnread:      fmtFloat(sum.AvgUnreadCount),

		ResponseTargetLabel:   fmt.Sprintf("target %.0f min", targets.ResponseTimeTargetMin),
		ComplianceTargetLabel: fmt.Sprintf("target %.0f%%", targets.SLAComplianceTargetPct),

		HasEmailData: sum.HasEmailData,
		HasSLAData:   sum.HasSLAData,
	}

	if sum.AvgResponseMinutes != nil {
		v.AvgResponseClass = gradeClass(*sum.AvgResponseMinutes <= targets.ResponseTimeTargetMin)
	}
	if sum.SLAComplianceRate != nil {
		v.ComplianceClass = gradeClass(*sum.SLAComplianceRate >= targets.SLAComplianceTargetPct)
	}

	v.Distribution = bandRows(sum.Distribution)
	v.Percentiles = percentileRows(sum.Percentiles)
	v.Quartiles = quartileRows(sum.Quartiles)
	v.Hours = hourRows(rec, hours)
	v.Blocks = blockRows(metrics.HourBlocks([]metrics.DayRecord{rec}, hours))
	return v
}

func buildWeeklyView(w metrics.WeeklySummary, hours schedule.BusinessHours, targets Targets, now time.Time, days []metrics.DayRecord) WeeklyView {
	v := WeeklyView{
		Label:       w.Label,
		RangeLabel:  fmt.Sprintf("%s to %s", w.WindowStart.Format("Jan 2, 2006"), w.WindowEnd.Format("Jan 2, 2006")),
		GeneratedAt: now.Format("Jan 2, 2006 3:04 PM"),
		HoursLabel:  hoursLabel(hours),

		DataDays:    w.DataDaysCount,
		PartialWeek: w.HasPartialWeek,

		TotalEmails:   w.TotalEmails,
		AvgPerDay:     fmtFloat(w.AvgEmailsPerDay),
		AvgUnread:     fmtFloat(w.AvgUnreadCount),
		AvgResponse:   fmtMinutes(w.AvgResponseMinutes),
		SLACompliance: fmtPercent(w.SLAComplianceRate),

		BestDay:     fmtDayRef(w.BestDay, "%.1f%%"),
		WorstDay:    fmtDayRef(w.WorstDay, "%.1f min"),
		BusiestDay:  fmtDayRef(w.BusiestDay, "%.0f emails"),
		QuietestDay: fmtDayRef(w.QuietestDay, "%.0f emails"),

		Blocks:       blockRows(w.Blocks),
		Distribution: bandRows(w.Distribution),
	}

	if w.AvgResponseMinutes != nil {
		v.AvgResponseClass = gradeClass(*w.AvgResponseMinutes <= targets.ResponseTimeTargetMin)
	}
	if w.SLAComplianceRate != nil {
		v.ComplianceClass = gradeClass(*w.SLAComplianceRate >= targets.SLAComplianceTargetPct)
	}

	for _, d := range days {
		s := d.Summary
		if !s.HasEmailData && !s.HasSLAData {
			continue
		}
		v.Days = append(v.Days, WeekDayRow{
			Date:          d.Date.Format("Mon, Jan 2"),
			Emails:        s.TotalEmails,
			ReplyRate:     fmtPercent(s.ReplyRatePercent),
			AvgResponse:   fmtMinutes(s.AvgResponseMinutes),
			SLACompliance: fmtPercent(s.SLAComplianceRate),
			AvgUnread:     fmtFloat(s.AvgUnreadCount),
		})
	}
	return v
}

func bandRows(dist []metrics.CategoryShare) []BandRow {
	out := make([]BandRow, 0, len(dist))
	for _, d := range dist {
		row := BandRow{Label: d.Label, Count: d.Count, Percent: fmtPercent(d.Percent)}
		if d.Percent != nil {
			row.Width = *d.Percent
		}
		out = append(out, row)
	}
	return out
}

func percentileRows(p metrics.Percentiles) []PercentileRow {
	return []PercentileRow{
		{Label: "P25", Value: fmtMinutes(p.P25)},
		{Label: "P50", Value: fmtMinutes(p.P50)},
		{Label: "P75", Value: fmtMinutes(p.P75)},
		{Label: "P90", Value: fmtMinutes(p.P90)},
		{Label: "P95", Value: fmtMinutes(p.P95)},
	}
}

func quartileRows(q *metrics.QuartileCounts) []QuartileRow {
	if q == nil {
		return nil
	}
	total := q.Q1 + q.Q2 + q.Q3 + q.Q4
	if total == 0 {
		return nil
	}
	pct := func(n int) string {
		return fmt.Sprintf("%.0f%%", float64(n)/float64(total)*100)
	}
	return []QuartileRow{
		{Label: "Q1 (0-25%)", Count: q.Q1, Percent: pct(q.Q1)},
		{Label: "Q2 (25-50%)", Count: q.Q2, Percent: pct(q.Q2)},
		{Label: "Q3 (50-75%)", Count: q.Q3, Percent: pct(q.Q3)},
		{Label: "Q4 (75-100%)", Count: q.Q4, Percent: pct(q.Q4)},
	}
}

// hourRows lists the business window of the day. The window shape comes from
// config, so every row between start and end renders even when empty.
func hourRows(rec metrics.DayRecord, hours schedule.BusinessHours) []HourRow {
	var out []HourRow
	for h := hours.StartHour; h < hours.EndHour; h++ {
		b := rec.Buckets[h]
		out = append(out, HourRow{
			Label:       metrics.HourLabel(h),
			Received:    b.EmailsReceived,
			Replied:     b.EmailsReplied,
			AvgResponse: fmtMinutes(b.AvgResponseMinutes()),
			Unread:      fmtInt(b.UnreadCount),
			SLA:         fmtSLA(b.SLAMet),
		})
	}
	return out
}

func blockRows(blocks []metrics.HourBlock) []BlockRow {
	out := make([]BlockRow, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, BlockRow{
			Label:          b.Label,
			Emails:         b.Emails,
			AvgUnread:      fmtFloat(b.AvgUnread),
			SLA:            fmtSLA(b.SLAMet),
			AvgResponse:    fmtMinutes(b.AvgResponseMinutes),
			MedianResponse: fmtMinutes(b.MedianResponseMinutes),
		})
	}
	return out
}

func hoursLabel(hours schedule.BusinessHours) string {
	return metrics.HourLabel(hours.StartHour) + " - " + metrics.HourLabel(hours.EndHour)
}

func gradeClass(ok bool) string {
	if ok {
		return "ok"
	}
	return "warn"
}

func fmtMinutes(v *float64) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%.1f min", *v)
}

func fmtPercent(v *float64) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func fmtFloat(v *float64) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%.1f", *v)
}

func fmtInt(v *int) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%d", *v)
}

func fmtSLA(v *bool) string {
	if v == nil {
		return missing
	}
	if *v {
		return "Met"
	}
	return "Missed"
}

func fmtDayRef(ref *metrics.DayRef, valueFormat string) string {
	if ref == nil {
		return missing
	}
	return fmt.Sprintf("%s (%s)", ref.Date.Format("Mon, Jan 2"), fmt.Sprintf(valueFormat, ref.Value))
}
