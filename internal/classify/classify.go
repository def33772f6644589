package classify

import (
	"sort"

	"inboxpulse/internal/schedule"
)

type eventKey struct {
	conv string
	kind EventKind
	msg  string
	ts   int64
}

// Dedup drops repeated ingestions of the same event. Identity is the tuple
// (conversation id, kind, message id, timestamp); the first occurrence wins.
func Dedup(events []Event) []Event {
	seen := make(map[eventKey]struct{}, len(events))
	out := make([]Event, 0, len(events))
	for _, e := range events {
		k := eventKey{conv: e.ConversationID, kind: e.Kind, msg: e.MessageID, ts: e.Timestamp.UnixNano()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Classify resolves every Inbox event against later lifecycle events in the
// same conversation and computes its business-minute response duration.
//
// Matching rule: the earliest Replied event strictly after the inbox
// timestamp wins. Only when no reply exists at all does the earliest
// later Completed event count — a reply outranks an earlier silent close.
// Inbox events with no qualifying later event come out Pending.
//
// Output order is deterministic: ascending inbox time, then conversation id.
func Classify(events []Event, hours schedule.BusinessHours) []Email {
	if len(events) == 0 {
		return nil
	}

	groups := make(map[string][]Event, len(events))
	for _, e := range events {
		groups[e.ConversationID] = append(groups[e.ConversationID], e)
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Email, 0, len(events))
	for _, id := range ids {
		group := groups[id]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
		for _, e := range group {
			if e.Kind != KindInbox {
				continue
			}
			out = append(out, resolve(e, group, hours))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].InboxAt.Equal(out[j].InboxAt) {
			return out[i].InboxAt.Before(out[j].InboxAt)
		}
		return out[i].ConversationID < out[j].ConversationID
	})
	return out
}

// resolve finds the qualifying later event for one inbox email. The group
// must already be sorted by timestamp ascending.
func resolve(inbox Event, group []Event, hours schedule.BusinessHours) Email {
	em := Email{
		ConversationID: inbox.ConversationID,
		InboxAt:        inbox.Timestamp,
		Status:         StatusPending,
	}

	var reply, complete *Event
	for i := range group {
		ev := &group[i]
		if !ev.Timestamp.After(inbox.Timestamp) {
			continue
		}
		switch ev.Kind {
		case KindReplied:
			reply = ev
		case KindCompleted:
			if complete == nil {
				complete = ev
			}
		}
		// The group is sorted, so the first reply seen is the earliest
		// and nothing later can outrank it.
		if reply != nil {
			break
		}
	}

	match := reply
	status := StatusReplied
	if match == nil {
		match = complete
		status = StatusCompleted
	}
	if match == nil {
		return em
	}

	em.Status = status
	minutes := hours.MinutesBetween(inbox.Timestamp, match.Timestamp)
	em.ResponseMinutes = &minutes
	return em
}
