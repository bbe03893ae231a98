package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/admissions-agent-api/internal/models"
)

// SessionRepository persists agent sessions and their messages.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session row with generated defaults.
func (r *SessionRepository) Create(ctx context.Context, session *models.AgentSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Status == "" {
		session.Status = models.SessionStatusQueued
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO agent_sessions (id, agent_type, institution_id, course_id, status, processed_items, total_items, instructions, created_at)
VALUES (:id, :agent_type, :institution_id, :course_id, :status, :processed_items, :total_items, :instructions, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create agent session: %w", err)
	}
	return nil
}

// GetByID returns one session row.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.AgentSession, error) {
	const query = `SELECT id, agent_type, institution_id, course_id, status, processed_items, total_items, instructions, created_at
FROM agent_sessions WHERE id = $1`
	var session models.AgentSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, fmt.Errorf("get agent session: %w", err)
	}
	return &session, nil
}

// ListByInstitution returns the tenant's sessions newest-first.
func (r *SessionRepository) ListByInstitution(ctx context.Context, institutionID string) ([]models.AgentSession, error) {
	const query = `SELECT id, agent_type, institution_id, course_id, status, processed_items, total_items, instructions, created_at
FROM agent_sessions WHERE institution_id = $1 ORDER BY created_at DESC`
	var sessions []models.AgentSession
	if err := r.db.SelectContext(ctx, &sessions, query, institutionID); err != nil {
		return nil, fmt.Errorf("list agent sessions: %w", err)
	}
	return sessions, nil
}

// UpdateSessionParams defines the mutable session fields.
type UpdateSessionParams struct {
	Status         *models.SessionStatus
	ProcessedItems *int
	TotalItems     *int
}

// Update persists the provided changes for a session row.
func (r *SessionRepository) Update(ctx context.Context, id string, params UpdateSessionParams) error {
	set := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	argPos := 1

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.ProcessedItems != nil {
		set = append(set, fmt.Sprintf("processed_items = $%d", argPos))
		args = append(args, *params.ProcessedItems)
		argPos++
	}
	if params.TotalItems != nil {
		set = append(set, fmt.Sprintf("total_items = $%d", argPos))
		args = append(args, *params.TotalItems)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE agent_sessions SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update agent session: %w", err)
	}
	return nil
}

// Delete removes a session row. Messages go with it via FK cascade.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM agent_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete agent session: %w", err)
	}
	return nil
}

// AppendMessage inserts a message at the end of the session's history.
// Insertion order is display order.
func (r *SessionRepository) AppendMessage(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	const query = `INSERT INTO agent_messages (id, session_id, role, content, created_at, progress, result_card, chart)
VALUES (:id, :session_id, :role, :content, :created_at, :progress, :result_card, :chart)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("append agent message: %w", err)
	}
	return nil
}

// ListMessages returns the session's messages in insertion order.
func (r *SessionRepository) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	const query = `SELECT id, session_id, role, content, created_at, progress, result_card, chart
FROM agent_messages WHERE session_id = $1 ORDER BY created_at ASC, id ASC`
	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, sessionID); err != nil {
		return nil, fmt.Errorf("list agent messages: %w", err)
	}
	return messages, nil
}
