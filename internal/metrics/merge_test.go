package metrics

import (
	"reflect"
	"testing"
	"time"
)

func slaOnlyRecord(t *testing.T, date time.Time, hour, unread int, met bool) DayRecord {
	t.Helper()
	days := BuildDays(nil, []UnreadSnapshot{{Date: date, Hour: hour, TotalUnread: unread, SLAMet: met}})
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	return DayRecord{Day: days[0], Summary: SummarizeDay(days[0], weekHours(t))}
}

func TestMergeKeepsEmailSideOnSLAReingest(t *testing.T) {
	jan6 := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

	existing := emailDay(t, jan6, 30, 90)
	incoming := slaOnlyRecord(t, jan6, 10, 20, true)

	merged := MergeDayRecord(existing, incoming, weekHours(t))
	if !merged.Summary.HasEmailData || !merged.Summary.HasSLAData {
		t.Fatalf("merged day must carry both sides, got email=%v sla=%v",
			merged.Summary.HasEmailData, merged.Summary.HasSLAData)
	}
	if merged.Summary.TotalEmails != 2 {
		t.Fatalf("email history lost: expected 2 emails, got %d", merged.Summary.TotalEmails)
	}
	if merged.Summary.AvgResponseMinutes == nil || *merged.Summary.AvgResponseMinutes != 60 {
		t.Fatalf("expected avg 60 preserved, got %v", merged.Summary.AvgResponseMinutes)
	}
	if merged.Summary.SLAComplianceRate == nil || *merged.Summary.SLAComplianceRate != 100 {
		t.Fatalf("expected new sla side 100, got %v", merged.Summary.SLAComplianceRate)
	}
}

func TestMergeKeepsSLASideOnEmailReingest(t *testing.T) {
	jan6 := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

	existing := slaOnlyRecord(t, jan6, 10, 20, false)
	incoming := emailDay(t, jan6, 45)

	merged := MergeDayRecord(existing, incoming, weekHours(t))
	if merged.Summary.SLAComplianceRate == nil || *merged.Summary.SLAComplianceRate != 0 {
		t.Fatalf("sla history lost: expected 0, got %v", merged.Summary.SLAComplianceRate)
	}
	if merged.Summary.TotalEmails != 1 {
		t.Fatalf("expected incoming email side, got %d", merged.Summary.TotalEmails)
	}
}

func TestMergeReplacesEmailSideOnReingest(t *testing.T) {
	jan6 := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

	existing := emailDay(t, jan6, 30, 90)
	incoming := emailDay(t, jan6, 10)

	merged := MergeDayRecord(existing, incoming, weekHours(t))
	if merged.Summary.TotalEmails != 1 {
		t.Fatalf("re-ingested email side must replace, not add: got %d", merged.Summary.TotalEmails)
	}
	if *merged.Summary.AvgResponseMinutes != 10 {
		t.Fatalf("expected replacement avg 10, got %v", *merged.Summary.AvgResponseMinutes)
	}
}

func TestMergeFallsBackToStoredAverage(t *testing.T) {
	jan6 := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

	// A legacy record: it kept a daily average but no per-hour duration data.
	existing := DayRecord{}
	existing.Date = jan6
	existing.Summary = DaySummary{Date: jan6, AvgResponseMinutes: fptr(42), HasEmailData: false}

	incoming := slaOnlyRecord(t, jan6, 11, 5, true)

	merged := MergeDayRecord(existing, incoming, weekHours(t))
	if merged.Summary.AvgResponseMinutes == nil || *merged.Summary.AvgResponseMinutes != 42 {
		t.Fatalf("stored average must survive an SLA-only merge, got %v", merged.Summary.AvgResponseMinutes)
	}
}

func TestMergeIdempotent(t *testing.T) {
	jan6 := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

	existing := emailDay(t, jan6, 30)
	incoming := slaOnlyRecord(t, jan6, 9, 12, true)

	once := MergeDayRecord(existing, incoming, weekHours(t))
	twice := MergeDayRecord(once, incoming, weekHours(t))
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merging the same input twice must not drift:\n%+v\n%+v", once, twice)
	}
}
