package metrics

import (
	"reflect"
	"testing"
	"time"

	"inboxpulse/internal/classify"
	"inboxpulse/internal/schedule"
)

func weekHours(t *testing.T) schedule.BusinessHours {
	t.Helper()
	b, err := schedule.New(7, 21, []int{0, 1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return b
}

func share(t *testing.T, dist []CategoryShare, label string) CategoryShare {
	t.Helper()
	for _, c := range dist {
		if c.Label == label {
			return c
		}
	}
	t.Fatalf("band %q not found", label)
	return CategoryShare{}
}

func resolved(conv string, at time.Time, minutes float64) classify.Email {
	return classify.Email{ConversationID: conv, InboxAt: at, Status: classify.StatusReplied, ResponseMinutes: &minutes}
}

func TestSummarizeDayEndToEnd(t *testing.T) {
	day9 := time.Date(2025, time.January, 8, 9, 0, 0, 0, time.UTC)
	day14 := time.Date(2025, time.January, 8, 14, 0, 0, 0, time.UTC)

	emails := []classify.Email{
		resolved("c1", day9, 30),
		resolved("c2", day9.Add(15*time.Minute), 90),
		{ConversationID: "c3", InboxAt: day14, Status: classify.StatusPending},
	}
	days := BuildDays(emails, nil)
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}

	s := SummarizeDay(days[0], weekHours(t))
	if s.TotalEmails != 3 {
		t.Fatalf("expected total 3, got %d", s.TotalEmails)
	}
	if s.ReplyRatePercent == nil || *s.ReplyRatePercent != 66.67 {
		t.Fatalf("expected reply rate 66.67, got %v", s.ReplyRatePercent)
	}
	if s.AvgResponseMinutes == nil || *s.AvgResponseMinutes != 60 {
		t.Fatalf("expected avg 60, got %v", s.AvgResponseMinutes)
	}
	if s.MedianResponseMinutes == nil || *s.MedianResponseMinutes != 30 {
		t.Fatalf("expected median 30, got %v", s.MedianResponseMinutes)
	}

	fast := share(t, s.Distribution, "Fast")
	if fast.Count != 1 || fast.Percent == nil || *fast.Percent != 50 {
		t.Fatalf("Fast: expected 1 / 50%%, got %d / %v", fast.Count, fast.Percent)
	}
	moderate := share(t, s.Distribution, "Moderate")
	if moderate.Count != 1 || moderate.Percent == nil || *moderate.Percent != 50 {
		t.Fatalf("Moderate: expected 1 / 50%%, got %d / %v", moderate.Count, moderate.Percent)
	}
	if lightning := share(t, s.Distribution, "Lightning Fast"); lightning.Count != 0 {
		t.Fatalf("Lightning Fast: expected 0, got %d", lightning.Count)
	}

	if !s.HasEmailData || s.HasSLAData {
		t.Fatalf("expected email data only, got email=%v sla=%v", s.HasEmailData, s.HasSLAData)
	}
	if s.AvgUnreadCount != nil || s.SLAComplianceRate != nil {
		t.Fatalf("sla metrics must stay nil without snapshots")
	}
}

func TestSummarizeDayGatesToBusinessHours(t *testing.T) {
	early := time.Date(2025, time.January, 8, 5, 0, 0, 0, time.UTC)
	mid := time.Date(2025, time.January, 8, 9, 0, 0, 0, time.UTC)

	emails := []classify.Email{
		resolved("c1", early, 500),
		resolved("c2", mid, 10),
	}
	days := BuildDays(emails, nil)
	s := SummarizeDay(days[0], weekHours(t))

	if s.TotalEmails != 2 {
		t.Fatalf("totals cover the whole day: expected 2, got %d", s.TotalEmails)
	}
	if s.ReplyRatePercent == nil || *s.ReplyRatePercent != 100 {
		t.Fatalf("expected reply rate 100, got %v", s.ReplyRatePercent)
	}
	if s.AvgResponseMinutes == nil || *s.AvgResponseMinutes != 10 {
		t.Fatalf("the 05:00 duration must not reach the average: got %v", s.AvgResponseMinutes)
	}
	if lf := share(t, s.Distribution, "Lightning Fast"); lf.Count != 1 || *lf.Percent != 100 {
		t.Fatalf("expected distribution over business-hour durations only")
	}
}

func TestSummarizeDaySLAOnly(t *testing.T) {
	jan8 := time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC)
	snaps := []UnreadSnapshot{
		{Date: jan8, Hour: 9, TotalUnread: 25, SLAMet: true},
		{Date: jan8, Hour: 10, TotalUnread: 35, SLAMet: false},
		{Date: jan8, Hour: 5, TotalUnread: 99, SLAMet: true}, // outside business hours
	}
	days := BuildDays(nil, snaps)
	s := SummarizeDay(days[0], weekHours(t))

	if s.HasEmailData || !s.HasSLAData {
		t.Fatalf("expected sla data only, got email=%v sla=%v", s.HasEmailData, s.HasSLAData)
	}
	if s.TotalEmails != 0 || s.ReplyRatePercent != nil {
		t.Fatalf("email metrics must stay empty")
	}
	if s.SLAComplianceRate == nil || *s.SLAComplianceRate != 50 {
		t.Fatalf("expected compliance 50 over hours 9-10, got %v", s.SLAComplianceRate)
	}
	if s.AvgUnreadCount == nil || *s.AvgUnreadCount != 30 {
		t.Fatalf("expected avg unread 30, got %v", s.AvgUnreadCount)
	}
}

func TestSummarizeDayEmpty(t *testing.T) {
	s := SummarizeDay(Day{Date: time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC)}, weekHours(t))

	if s.TotalEmails != 0 || s.HasEmailData || s.HasSLAData {
		t.Fatalf("empty day must carry no data flags")
	}
	if s.ReplyRatePercent != nil || s.AvgResponseMinutes != nil || s.MedianResponseMinutes != nil ||
		s.AvgUnreadCount != nil || s.SLAComplianceRate != nil {
		t.Fatalf("every rate must be nil on an empty day, got %+v", s)
	}
	if len(s.Distribution) != 6 {
		t.Fatalf("distribution always lists all 6 bands, got %d", len(s.Distribution))
	}
	for _, c := range s.Distribution {
		if c.Count != 0 || c.Percent != nil {
			t.Fatalf("band %s must be empty with nil percent", c.Label)
		}
	}
	if s.Quartiles != nil {
		t.Fatalf("quartiles must be nil without durations")
	}
}

func TestSummarizeDayIdempotent(t *testing.T) {
	base := time.Date(2025, time.January, 8, 9, 0, 0, 0, time.UTC)
	emails := []classify.Email{
		resolved("c1", base, 12.34),
		resolved("c2", base.Add(time.Hour), 56.78),
	}
	snaps := []UnreadSnapshot{{Date: base, Hour: 11, TotalUnread: 7, SLAMet: true}}
	days := BuildDays(emails, snaps)

	a := SummarizeDay(days[0], weekHours(t))
	b := SummarizeDay(days[0], weekHours(t))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("summaries differ between runs:\n%+v\n%+v", a, b)
	}
}

func TestSummarizeDayExpandsBucketMeans(t *testing.T) {
	// A record reloaded from storage without raw samples: only sum and count.
	day := Day{Date: time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC)}
	for h := range day.Buckets {
		day.Buckets[h].Hour = h
	}
	day.Buckets[9].EmailsReceived = 2
	day.Buckets[9].EmailsReplied = 2
	day.Buckets[9].ResponseSum = 120
	day.Buckets[9].ResponseCount = 2
	day.Replied = 2

	s := SummarizeDay(day, weekHours(t))
	if s.AvgResponseMinutes == nil || *s.AvgResponseMinutes != 60 {
		t.Fatalf("expected avg 60 from expansion, got %v", s.AvgResponseMinutes)
	}
	if s.MedianResponseMinutes == nil || *s.MedianResponseMinutes != 60 {
		t.Fatalf("expected median 60 from expansion, got %v", s.MedianResponseMinutes)
	}
	if mod := share(t, s.Distribution, "Moderate"); mod.Count != 2 || *mod.Percent != 100 {
		t.Fatalf("expected both expanded durations in Moderate, got %d / %v", mod.Count, mod.Percent)
	}
}

func TestQuartileCounts(t *testing.T) {
	base := time.Date(2025, time.January, 8, 9, 0, 0, 0, time.UTC)
	var emails []classify.Email
	for i, m := range []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100} {
		emails = append(emails, resolved(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute), m))
	}
	days := BuildDays(emails, nil)
	s := SummarizeDay(days[0], weekHours(t))

	if s.Quartiles == nil {
		t.Fatalf("expected quartiles")
	}
	q := *s.Quartiles
	if q.Q1 != 3 || q.Q2 != 2 || q.Q3 != 3 || q.Q4 != 2 {
		t.Fatalf("expected 3/2/3/2, got %d/%d/%d/%d", q.Q1, q.Q2, q.Q3, q.Q4)
	}
}

func TestReplyRateStaysInRange(t *testing.T) {
	base := time.Date(2025, time.January, 8, 9, 0, 0, 0, time.UTC)
	for total := 1; total <= 4; total++ {
		for res := 0; res <= total; res++ {
			var emails []classify.Email
			for i := 0; i < total; i++ {
				em := classify.Email{ConversationID: string(rune('a' + i)), InboxAt: base, Status: classify.StatusPending}
				if i < res {
					m := 15.0
					em.Status = classify.StatusReplied
					em.ResponseMinutes = &m
				}
				emails = append(emails, em)
			}
			s := SummarizeDay(BuildDays(emails, nil)[0], weekHours(t))
			if s.ReplyRatePercent == nil {
				t.Fatalf("total=%d: rate must be set", total)
			}
			if *s.ReplyRatePercent < 0 || *s.ReplyRatePercent > 100 {
				t.Fatalf("total=%d res=%d: rate %v out of range", total, res, *s.ReplyRatePercent)
			}
		}
	}
}

func TestDistributionPercentagesSumTo100(t *testing.T) {
	base := time.Date(2025, time.January, 8, 9, 0, 0, 0, time.UTC)
	emails := []classify.Email{
		resolved("c1", base, 5),
		resolved("c2", base, 45),
		resolved("c3", base, 200),
	}
	s := SummarizeDay(BuildDays(emails, nil)[0], weekHours(t))

	sum := 0.0
	for _, c := range s.Distribution {
		if c.Percent != nil {
			sum += *c.Percent
		}
	}
	if sum < 99.9 || sum > 100.1 {
		t.Fatalf("expected percentages to sum to ~100, got %v", sum)
	}
}
