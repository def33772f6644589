package metrics

import "time"

// UnreadSnapshot is one hourly unread-count observation from the SLA export.
// SLAMet is derived at parse time, either from the export's own marker or
// from the configured unread threshold.
type UnreadSnapshot struct {
	Date        time.Time `json:"date"`
	Hour        int       `json:"hour"`
	TotalUnread int       `json:"total_unread"`
	SLAMet      bool      `json:"sla_met"`
}

// HourlyBucket accumulates one hour of one day.
//
// Email-derived fields and SLA-derived fields populate independently; either
// side may be missing for any given hour. Day-level flags track which sides
// a day has at all.
type HourlyBucket struct {
	Hour           int     `json:"hour"`
	EmailsReceived int     `json:"emails_received"`
	EmailsReplied  int     `json:"emails_replied"`
	ResponseSum    float64 `json:"response_time_sum"`
	ResponseCount  int     `json:"response_time_count"`

	// ResponseSamples keeps the raw per-email durations so percentiles stay
	// exact across restarts. Records written by older tools may carry only
	// sum and count; reducers then expand the bucket mean per email.
	ResponseSamples []float64 `json:"response_samples,omitempty"`

	UnreadCount *int  `json:"unread_count,omitempty"`
	SLAMet      *bool `json:"sla_met,omitempty"`
}

// AvgResponseMinutes is the bucket's mean duration, nil when nothing resolved
// in this hour.
func (b HourlyBucket) AvgResponseMinutes() *float64 {
	if b.ResponseCount == 0 {
		return nil
	}
	v := round2(b.ResponseSum / float64(b.ResponseCount))
	return &v
}

// durations returns the bucket's raw samples, or the bucket mean repeated per
// resolved email when samples were not retained.
func (b HourlyBucket) durations() []float64 {
	if b.ResponseCount == 0 {
		return nil
	}
	if len(b.ResponseSamples) > 0 {
		return b.ResponseSamples
	}
	mean := b.ResponseSum / float64(b.ResponseCount)
	out := make([]float64, b.ResponseCount)
	for i := range out {
		out[i] = mean
	}
	return out
}

// Day is one calendar date's accumulated buckets before reduction. All 24
// hour slots are always materialized.
type Day struct {
	Date    time.Time        `json:"date"`
	Buckets [24]HourlyBucket `json:"hourly_data"`

	Replied   int `json:"replied_count"`
	Completed int `json:"completed_count"`
	Pending   int `json:"pending_count"`
}

// Percentiles is the response-time ladder in minutes.
type Percentiles struct {
	P25 *float64 `json:"p25,omitempty"`
	P50 *float64 `json:"p50,omitempty"`
	P75 *float64 `json:"p75,omitempty"`
	P90 *float64 `json:"p90,omitempty"`
	P95 *float64 `json:"p95,omitempty"`
}

// CategoryShare is one band of the response-time distribution. Percent is the
// band's share of resolved emails, nil when nothing resolved.
type CategoryShare struct {
	Label   string   `json:"label"`
	Count   int      `json:"count"`
	Percent *float64 `json:"percent,omitempty"`
}

// QuartileCounts partitions resolved emails at P25/P50/P75.
type QuartileCounts struct {
	Q1 int `json:"q1"`
	Q2 int `json:"q2"`
	Q3 int `json:"q3"`
	Q4 int `json:"q4"`
}

// DaySummary is one calendar date reduced to its consumer-facing metrics.
//
// Every rate and average is nil when its inputs are missing — never zero, so
// an empty day cannot render as perfect compliance or instant response.
type DaySummary struct {
	Date time.Time `json:"date"`

	TotalEmails    int `json:"total_emails"`
	RepliedCount   int `json:"replied_count"`
	CompletedCount int `json:"completed_count"`
	PendingCount   int `json:"pending_count"`

	ReplyRatePercent      *float64        `json:"reply_rate_percent,omitempty"`
	AvgResponseMinutes    *float64        `json:"avg_response_time_minutes,omitempty"`
	MedianResponseMinutes *float64        `json:"median_response_time_minutes,omitempty"`
	Percentiles           Percentiles     `json:"percentiles"`
	Distribution          []CategoryShare `json:"response_distribution,omitempty"`
	Quartiles             *QuartileCounts `json:"quartiles,omitempty"`

	AvgUnreadCount    *float64 `json:"avg_unread_count,omitempty"`
	SLAComplianceRate *float64 `json:"sla_compliance_rate,omitempty"`

	HasEmailData bool `json:"has_email_data"`
	HasSLAData   bool `json:"has_sla_data"`
}

// ResolvedCount is the number of emails matched to a Replied or Completed event.
func (s DaySummary) ResolvedCount() int {
	return s.RepliedCount + s.CompletedCount
}

// DayRecord is the unit of persistence: a day's buckets plus its summary.
type DayRecord struct {
	Day
	Summary DaySummary `json:"daily_summary"`
}

// DayKey formats a date the way the store and the reports key days.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
