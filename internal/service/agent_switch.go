package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campushub/admissions-agent-api/internal/models"
	appErrors "github.com/campushub/admissions-agent-api/pkg/errors"
)

// SwitchDecision is the outcome of requesting a new agent conversation.
// Either Session is set (a fresh conversation was started) or
// NeedsConfirmation is true and nothing was created.
type SwitchDecision struct {
	NeedsConfirmation bool                 `json:"needsConfirmation"`
	ActiveKind        models.AgentKind     `json:"activeKind,omitempty"`
	Session           *models.AgentSession `json:"session,omitempty"`
}

// AgentSwitcher governs whether starting a new agent conversation on top of
// an existing one requires user confirmation. Agent conversations are
// mutually exclusive per UI surface; switching kinds mid-task would silently
// abandon in-flight work, so confirmation is forced exactly when data could
// be lost and never otherwise.
type AgentSwitcher struct {
	sessions *SessionOrchestrator
	logger   *zap.Logger
}

// NewAgentSwitcher constructs the state machine over the orchestrator.
func NewAgentSwitcher(sessions *SessionOrchestrator, logger *zap.Logger) *AgentSwitcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentSwitcher{sessions: sessions, logger: logger}
}

// Request asks for a new conversation of the given kind.
//
// With no active session, an idle one, or a completed one, the new session is
// created immediately. The same holds for requesting the kind that is already
// active (a fresh conversation of the same agent). Only a different kind on
// top of an actively running conversation returns a confirmation requirement
// carrying the currently active kind; no session is created until the caller
// confirms.
func (s *AgentSwitcher) Request(ctx context.Context, institutionID string, kind models.AgentKind, instructions string) (SwitchDecision, error) {
	if !kind.IsValid() {
		return SwitchDecision{}, appErrors.Clone(appErrors.ErrInvalidArgument, "unknown agent kind")
	}

	if active, ok := s.sessions.ActiveConversation(); ok {
		if models.ConversationStatusFor(active.Status) == models.ConversationActive && active.AgentKind != kind {
			return SwitchDecision{NeedsConfirmation: true, ActiveKind: active.AgentKind}, nil
		}
	}

	return s.start(ctx, institutionID, kind, instructions)
}

// ConfirmSwitch completes a previously requested switch: the active session,
// when still running, is marked completed, then the new conversation is
// created and becomes active.
func (s *AgentSwitcher) ConfirmSwitch(ctx context.Context, institutionID string, kind models.AgentKind, instructions string) (SwitchDecision, error) {
	if !kind.IsValid() {
		return SwitchDecision{}, appErrors.Clone(appErrors.ErrInvalidArgument, "unknown agent kind")
	}

	if active, ok := s.sessions.ActiveConversation(); ok {
		if models.ConversationStatusFor(active.Status) == models.ConversationActive {
			s.sessions.UpdateStatus(active.ID, models.SessionStatusCompleted)
			s.logger.Info("active conversation closed by switch",
				zap.String("session_id", active.ID),
				zap.String("from", string(active.AgentKind)),
				zap.String("to", string(kind)))
		}
	}

	return s.start(ctx, institutionID, kind, instructions)
}

func (s *AgentSwitcher) start(ctx context.Context, institutionID string, kind models.AgentKind, instructions string) (SwitchDecision, error) {
	session := s.sessions.Create(ctx, institutionID, kind, instructions)
	if session == nil {
		msg := s.sessions.Cache().LastError()
		if msg == "" {
			msg = "session was not created"
		}
		return SwitchDecision{}, appErrors.Clone(appErrors.ErrInternal, msg)
	}
	return SwitchDecision{Session: session}, nil
}
