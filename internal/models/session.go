package models

import "time"

// AgentKind enumerates the closed set of agent task types a session can represent.
type AgentKind string

const (
	AgentKindDocumentReview AgentKind = "document_review"
	AgentKindRanking        AgentKind = "ranking"
	AgentKindAssistant      AgentKind = "assistant"
	AgentKindAnalytics      AgentKind = "analytics"
	AgentKindNotifier       AgentKind = "notifier"
)

// IsValid reports whether the kind belongs to the closed enumeration.
func (k AgentKind) IsValid() bool {
	switch k {
	case AgentKindDocumentReview, AgentKindRanking, AgentKindAssistant, AgentKindAnalytics, AgentKindNotifier:
		return true
	}
	return false
}

// SessionStatus captures the persisted, session-level lifecycle.
type SessionStatus string

const (
	SessionStatusQueued    SessionStatus = "queued"
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
)

// IsValid reports whether the status is a known lifecycle state.
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusQueued, SessionStatusRunning, SessionStatusCompleted, SessionStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the session can no longer transition.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed
}

// ConversationStatus is the UI-only vocabulary used by the chat-oriented
// surface. It is deliberately a separate type from SessionStatus; the two
// must never be compared directly.
type ConversationStatus string

const (
	ConversationIdle      ConversationStatus = "idle"
	ConversationActive    ConversationStatus = "active"
	ConversationCompleted ConversationStatus = "completed"
)

// ConversationStatusFor maps the persisted lifecycle onto the conversational
// vocabulary. The mapping is one-way: queued and running sessions both read
// as an active conversation.
func ConversationStatusFor(s SessionStatus) ConversationStatus {
	switch s {
	case SessionStatusQueued, SessionStatusRunning:
		return ConversationActive
	case SessionStatusCompleted, SessionStatusFailed:
		return ConversationCompleted
	default:
		return ConversationIdle
	}
}

// AgentSession is the durable unit of agent work.
type AgentSession struct {
	ID             string        `db:"id" json:"id"`
	AgentKind      AgentKind     `db:"agent_type" json:"agentKind"`
	InstitutionID  string        `db:"institution_id" json:"institutionId"`
	CourseID       *string       `db:"course_id" json:"courseId,omitempty"`
	Status         SessionStatus `db:"status" json:"status"`
	ProcessedItems int           `db:"processed_items" json:"processedItems"`
	TotalItems     int           `db:"total_items" json:"totalItems"`
	Instructions   string        `db:"instructions" json:"instructions,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
}

// SessionRow is the snake_case wire shape used by the HTTP API and the
// change feed. All external field-name mapping happens through this type.
type SessionRow struct {
	ID             string  `json:"id"`
	AgentType      string  `json:"agent_type"`
	InstitutionID  string  `json:"institution_id"`
	CourseID       *string `json:"course_id,omitempty"`
	Status         string  `json:"status"`
	ProcessedItems int     `json:"processed_items"`
	TotalItems     int     `json:"total_items"`
	Instructions   string  `json:"instructions,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// Session converts the wire row into the internal shape. Unparseable
// timestamps fall back to the zero time rather than failing the whole
// notification.
func (r SessionRow) Session() AgentSession {
	createdAt, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	return AgentSession{
		ID:             r.ID,
		AgentKind:      AgentKind(r.AgentType),
		InstitutionID:  r.InstitutionID,
		CourseID:       r.CourseID,
		Status:         SessionStatus(r.Status),
		ProcessedItems: r.ProcessedItems,
		TotalItems:     r.TotalItems,
		Instructions:   r.Instructions,
		CreatedAt:      createdAt,
	}
}

// Row converts the internal shape into the snake_case wire form.
func (s AgentSession) Row() SessionRow {
	return SessionRow{
		ID:             s.ID,
		AgentType:      string(s.AgentKind),
		InstitutionID:  s.InstitutionID,
		CourseID:       s.CourseID,
		Status:         string(s.Status),
		ProcessedItems: s.ProcessedItems,
		TotalItems:     s.TotalItems,
		Instructions:   s.Instructions,
		CreatedAt:      s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
