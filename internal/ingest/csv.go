package ingest

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"inboxpulse/internal/classify"
	"inboxpulse/internal/metrics"
)

// fileKind is how a CSV routes after header inspection. Routing is
// header-driven, never name-driven: daily exports arrive as DD-MM-YY.csv and
// snapshot exports under whatever name the mailbox tool picked.
type fileKind int

const (
	fileUnknown fileKind = iota
	fileEvents
	fileSnapshots
)

var headerSeparators = regexp.MustCompile(`[\s_-]+`)

// timestampLayouts covers the formats seen in mailbox exports. ISO layouts
// first; the day-first ones match the DD-MM-YY file convention.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Rows with a wrong field count are handled row by row, not fatally.
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// normalizeHeader maps each column to its index under a canonical name:
// trimmed, lowercased, runs of spaces/underscores/hyphens collapsed to one
// underscore. The first column may carry a UTF-8 BOM from Excel.
func normalizeHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		key := headerSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

// col returns the index of the first alias present in the header.
func col(idx map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := idx[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func detectKind(idx map[string]int) fileKind {
	if _, ok := col(idx, "conversation_id", "conversationid"); ok {
		return fileEvents
	}
	if _, ok := col(idx, "totalunread", "total_unread", "unread_count"); ok {
		return fileSnapshots
	}
	return fileUnknown
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %s", value)
}

// parseDate is parseTimestamp truncated to midnight, for snapshot Date
// columns that sometimes carry a time component.
func parseDate(value string) (time.Time, error) {
	t, err := parseTimestamp(value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
}

func parseEventKind(value string) (classify.EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "inbox":
		return classify.KindInbox, nil
	case "replied":
		return classify.KindReplied, nil
	case "completed":
		return classify.KindCompleted, nil
	}
	return "", fmt.Errorf("unknown event type %q", value)
}

// parseEvents turns an event export into lifecycle events. Malformed rows are
// skipped with a WARN and counted; a missing required column fails the file.
func parseEvents(records [][]string, idx map[string]int, file string, log *slog.Logger) ([]classify.Event, int, error) {
	convCol, _ := col(idx, "conversation_id", "conversationid")
	tsCol, ok := col(idx, "timestamp", "time_stamp")
	if !ok {
		return nil, 0, fmt.Errorf("%s: missing required column: TimeStamp", file)
	}
	kindCol, ok := col(idx, "eventtype", "event_type")
	if !ok {
		return nil, 0, fmt.Errorf("%s: missing required column: EventType", file)
	}
	msgCol, hasMsg := col(idx, "messageid", "message_id")
	subjCol, hasSubj := col(idx, "subject")

	var out []classify.Event
	skipped := 0
	for i, row := range records[1:] {
		line := i + 2
		get := func(pos int) string {
			if pos >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[pos])
		}

		conv := get(convCol)
		if conv == "" {
			log.Warn("skipping event row with empty conversation id", "file", file, "line", line)
			skipped++
			continue
		}
		ts, err := parseTimestamp(get(tsCol))
		if err != nil {
			log.Warn("skipping event row", "file", file, "line", line, "error", err.Error())
			skipped++
			continue
		}
		kind, err := parseEventKind(get(kindCol))
		if err != nil {
			log.Warn("skipping event row", "file", file, "line", line, "error", err.Error())
			skipped++
			continue
		}

		ev := classify.Event{
			ConversationID: conv,
			Kind:           kind,
			Timestamp:      ts,
		}
		if hasMsg {
			ev.MessageID = get(msgCol)
		}
		if hasSubj {
			ev.Subject = get(subjCol)
		}
		out = append(out, ev)
	}
	return out, skipped, nil
}

// parseSnapshots turns an unread-count export into hourly snapshots. When the
// export carries a Title column, the literal "SLA MET" marks compliance;
// otherwise compliance is derived from the unread threshold.
func parseSnapshots(records [][]string, idx map[string]int, threshold int, file string, log *slog.Logger) ([]metrics.UnreadSnapshot, int, error) {
	dateCol, ok := col(idx, "date")
	if !ok {
		return nil, 0, fmt.Errorf("%s: missing required column: Date", file)
	}
	hourCol, ok := col(idx, "hour_of_the_day", "hour")
	if !ok {
		return nil, 0, fmt.Errorf("%s: missing required column: Hour", file)
	}
	unreadCol, _ := col(idx, "totalunread", "total_unread", "unread_count")
	titleCol, hasTitle := col(idx, "title")

	var out []metrics.UnreadSnapshot
	skipped := 0
	for i, row := range records[1:] {
		line := i + 2
		get := func(pos int) string {
			if pos >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[pos])
		}

		date, err := parseDate(get(dateCol))
		if err != nil {
			log.Warn("skipping snapshot row", "file", file, "line", line, "error", err.Error())
			skipped++
			continue
		}
		hour, err := parseIntField(get(hourCol))
		if err != nil || hour < 0 || hour > 23 {
			log.Warn("skipping snapshot row with bad hour", "file", file, "line", line, "hour", get(hourCol))
			skipped++
			continue
		}
		unread, err := parseIntField(get(unreadCol))
		if err != nil {
			log.Warn("skipping snapshot row with bad unread count", "file", file, "line", line, "value", get(unreadCol))
			skipped++
			continue
		}

		slaMet := unread <= threshold
		if hasTitle {
			slaMet = get(titleCol) == "SLA MET"
		}

		out = append(out, metrics.UnreadSnapshot{
			Date:        date,
			Hour:        hour,
			TotalUnread: unread,
			SLAMet:      slaMet,
		})
	}
	return out, skipped, nil
}

// parseIntField accepts plain integers and the float renderings some export
// tools write ("12.0").
func parseIntField(value string) (int, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
