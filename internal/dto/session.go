package dto

import "github.com/campushub/admissions-agent-api/internal/models"

// CreateSessionRequest captures POST /institutions/{id}/agent-sessions.
type CreateSessionRequest struct {
	AgentType    string `json:"agent_type" binding:"required"`
	CourseID     string `json:"course_id"`
	Instructions string `json:"instructions"`
}

// SwitchRequest captures a conversation-switch attempt from the dashboard.
type SwitchRequest struct {
	AgentType    string `json:"agent_type" binding:"required"`
	CourseID     string `json:"course_id"`
	Instructions string `json:"instructions"`
	Confirm      bool   `json:"confirm"`
}

// ProgressRequest captures a task runner progress push.
type ProgressRequest struct {
	Processed int `json:"processed" binding:"min=0"`
	Total     int `json:"total" binding:"min=0"`
}

// StatusRequest captures a task runner status push.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SessionResponse is the snake_case wire form of one session.
type SessionResponse = models.SessionRow

// SessionFromModel converts the internal shape for the API.
func SessionFromModel(session models.AgentSession) SessionResponse {
	return session.Row()
}

// SessionsFromModels converts a slice for list endpoints.
func SessionsFromModels(sessions []models.AgentSession) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Row())
	}
	return out
}
