package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MessageRole identifies the author of a conversational message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// IsValid reports whether the role is part of the closed set.
func (r MessageRole) IsValid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return true
	}
	return false
}

// ProgressUpdate is an inline progress marker attached to a message.
type ProgressUpdate struct {
	Processed   int    `json:"processed"`
	Total       int    `json:"total"`
	CurrentItem string `json:"currentItem,omitempty"`
}

// ResultCard is a typed result summary rendered by the dashboard.
type ResultCard struct {
	Kind    string            `json:"kind"`
	Title   string            `json:"title"`
	Fields  map[string]string `json:"fields,omitempty"`
	Payload json.RawMessage   `json:"payload,omitempty"`
}

// ChartDescriptor describes an optional chart rendered alongside a message.
type ChartDescriptor struct {
	Type   string          `json:"type"`
	Labels []string        `json:"labels,omitempty"`
	Series json.RawMessage `json:"series,omitempty"`
}

// Message belongs to exactly one session. Insertion order is display order.
type Message struct {
	ID        string           `db:"id" json:"id"`
	SessionID string           `db:"session_id" json:"sessionId"`
	Role      MessageRole      `db:"role" json:"role"`
	Content   string           `db:"content" json:"content"`
	Timestamp time.Time        `db:"created_at" json:"timestamp"`
	Progress  *ProgressUpdate  `db:"progress" json:"progressUpdate,omitempty"`
	Result    *ResultCard      `db:"result_card" json:"resultCard,omitempty"`
	Chart     *ChartDescriptor `db:"chart" json:"chart,omitempty"`
}

// Value marshals the progress marker for JSONB persistence.
func (p ProgressUpdate) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal progress update: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the progress marker.
func (p *ProgressUpdate) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// Value marshals the result card for JSONB persistence.
func (r ResultCard) Value() (driver.Value, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal result card: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the result card.
func (r *ResultCard) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// Value marshals the chart descriptor for JSONB persistence.
func (c ChartDescriptor) Value() (driver.Value, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal chart descriptor: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the chart descriptor.
func (c *ChartDescriptor) Scan(value interface{}) error {
	return scanJSON(value, c)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for JSON column", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
