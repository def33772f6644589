package metrics

import "inboxpulse/internal/schedule"

// MergeDayRecord folds a freshly computed day into the stored one for the
// same date.
//
// Rules:
// - The email side (counts, durations, samples) replaces the stored email
//   side only when the incoming day actually has email data. Re-ingesting an
//   SLA-only export never erases email history, and vice versa.
// - Snapshot fields replace per hour wherever the incoming bucket carries one.
// - The merged day is re-summarized from its merged buckets.
// - A stored daily response-time average survives when the merged day has no
//   duration data left; that is the externally-supplied fallback aggregate.
func MergeDayRecord(existing, incoming DayRecord, hours schedule.BusinessHours) DayRecord {
	merged := existing
	withEmail := incoming.Summary.HasEmailData

	if withEmail {
		merged.Replied = incoming.Replied
		merged.Completed = incoming.Completed
		merged.Pending = incoming.Pending
	}
	for h := 0; h < 24; h++ {
		in := incoming.Buckets[h]
		dst := &merged.Buckets[h]
		if withEmail {
			dst.EmailsReceived = in.EmailsReceived
			dst.EmailsReplied = in.EmailsReplied
			dst.ResponseSum = in.ResponseSum
			dst.ResponseCount = in.ResponseCount
			dst.ResponseSamples = in.ResponseSamples
		}
		if in.UnreadCount != nil {
			dst.UnreadCount = in.UnreadCount
		}
		if in.SLAMet != nil {
			dst.SLAMet = in.SLAMet
		}
	}

	prior := existing.Summary
	merged.Summary = SummarizeDay(merged.Day, hours)
	if merged.Summary.AvgResponseMinutes == nil && prior.AvgResponseMinutes != nil {
		merged.Summary.AvgResponseMinutes = prior.AvgResponseMinutes
	}
	return merged
}
