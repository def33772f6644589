package classify

import "time"

// EventKind is the lifecycle stage recorded by the mailbox export.
type EventKind string

const (
	KindInbox     EventKind = "Inbox"
	KindReplied   EventKind = "Replied"
	KindCompleted EventKind = "Completed"
)

// Event is one lifecycle record for a conversation.
//
// ConversationID is shared by every event of the same thread and is the
// matching key; MessageID exists only for deduplication. Timestamps are
// naive local time, exactly as the mailbox export writes them.

type Event struct {
	ConversationID string    `json:"conversation_id"`
	Kind           EventKind `json:"event_type"`
	Timestamp      time.Time `json:"timestamp"`
	MessageID      string    `json:"message_id"`
	Subject        string    `json:"subject,omitempty"`
}

// Status is the resolved lifecycle state of one inbound email.
type Status string

const (
	StatusReplied   Status = "Replied"
	StatusCompleted Status = "Completed"
	StatusPending   Status = "Pending"
)

// Email is the classification result for one Inbox event.
type Email struct {
	ConversationID string    `json:"conversation_id"`
	InboxAt        time.Time `json:"inbox_at"`
	Status         Status    `json:"status"`

	// ResponseMinutes is the business-minute duration between the inbox
	// timestamp and the matched event. Nil while the email is pending.
	ResponseMinutes *float64 `json:"response_minutes,omitempty"`
}

// Resolved reports whether the email was matched to a Replied or Completed event.
func (e Email) Resolved() bool {
	return e.Status == StatusReplied || e.Status == StatusCompleted
}

// Hour is the 0-23 bucket derived from the inbox timestamp.
func (e Email) Hour() int {
	return e.InboxAt.Hour()
}

// Day is the email's calendar date at midnight.
func (e Email) Day() time.Time {
	t := e.InboxAt
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
