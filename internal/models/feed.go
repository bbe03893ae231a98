package models

// FeedEventType enumerates row-level change notifications.
type FeedEventType string

const (
	FeedEventInsert FeedEventType = "INSERT"
	FeedEventUpdate FeedEventType = "UPDATE"
	FeedEventDelete FeedEventType = "DELETE"
)

// FeedEvent is one change-feed notification for the agent_sessions table,
// scoped server-side to a single institution. New carries the full row for
// inserts and updates; Old carries only the identifier for deletes.
type FeedEvent struct {
	EventType FeedEventType `json:"event_type"`
	New       *SessionRow   `json:"new,omitempty"`
	Old       *FeedRowRef   `json:"old,omitempty"`
}

// FeedRowRef identifies a deleted row.
type FeedRowRef struct {
	ID string `json:"id"`
}
