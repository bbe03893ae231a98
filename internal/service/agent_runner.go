package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/campushub/admissions-agent-api/internal/models"
	appErrors "github.com/campushub/admissions-agent-api/pkg/errors"
	"github.com/campushub/admissions-agent-api/pkg/jobs"
)

// AgentExecutor performs the actual work for one agent kind. Document,
// email and notification senders live behind this boundary; the runner only
// cares about success or failure.
type AgentExecutor interface {
	Execute(ctx context.Context, session models.AgentSession) error
}

// AgentRunner drains the task queue and drives each session through its
// lifecycle. All state changes go through the session service so the change
// feed carries every transition.
type AgentRunner struct {
	sessions  *SessionService
	executors map[models.AgentKind]AgentExecutor
	logger    *zap.Logger
}

// NewAgentRunner constructs the runner with the given per-kind executors.
func NewAgentRunner(sessions *SessionService, executors map[models.AgentKind]AgentExecutor, logger *zap.Logger) *AgentRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if executors == nil {
		executors = map[models.AgentKind]AgentExecutor{}
	}
	return &AgentRunner{sessions: sessions, executors: executors, logger: logger}
}

// Handle is the jobs.Handler consuming one queued session.
func (r *AgentRunner) Handle(ctx context.Context, job jobs.Job) error {
	session, err := r.sessions.Get(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", job.ID, err)
	}
	if session.Status.Terminal() {
		r.logger.Debug("skipping terminal session", zap.String("session_id", session.ID))
		return nil
	}

	if err := r.sessions.SetStatus(ctx, session.ID, models.SessionStatusRunning); err != nil {
		return err
	}

	executor, ok := r.executors[session.AgentKind]
	if !ok {
		r.failed(ctx, session.ID, fmt.Sprintf("no executor registered for agent kind %q", session.AgentKind))
		return nil
	}

	if err := executor.Execute(ctx, *session); err != nil {
		r.failed(ctx, session.ID, err.Error())
		return nil
	}
	return r.sessions.SetStatus(ctx, session.ID, models.SessionStatusCompleted)
}

func (r *AgentRunner) failed(ctx context.Context, sessionID, reason string) {
	r.logger.Warn("agent task failed", zap.String("session_id", sessionID), zap.String("reason", reason))
	_ = r.sessions.AppendMessage(ctx, &models.Message{
		SessionID: sessionID,
		Role:      models.MessageRoleSystem,
		Content:   reason,
	})
	_ = r.sessions.SetStatus(ctx, sessionID, models.SessionStatusFailed)
}

type applicantSource interface {
	ListByCourse(ctx context.Context, institutionID, courseID string) ([]models.Applicant, error)
	CourseIntakeLimit(ctx context.Context, courseID string) (int, error)
}

// RankingExecutor runs the ranking agent: it loads the course's applicants,
// classifies them against the intake limit and threads the result back into
// the session's message history through the same mutation path every other
// update takes.
type RankingExecutor struct {
	applicants    applicantSource
	sessions      *SessionService
	defaultIntake int
	logger        *zap.Logger
}

// NewRankingExecutor constructs the executor. defaultIntake applies when the
// course carries no explicit limit.
func NewRankingExecutor(applicants applicantSource, sessions *SessionService, defaultIntake int, logger *zap.Logger) *RankingExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultIntake <= 0 {
		defaultIntake = 100
	}
	return &RankingExecutor{applicants: applicants, sessions: sessions, defaultIntake: defaultIntake, logger: logger}
}

// Execute implements AgentExecutor.
func (e *RankingExecutor) Execute(ctx context.Context, session models.AgentSession) error {
	if session.CourseID == nil || *session.CourseID == "" {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "ranking sessions must be course-scoped")
	}
	courseID := *session.CourseID

	applicants, err := e.applicants.ListByCourse(ctx, session.InstitutionID, courseID)
	if err != nil {
		return err
	}
	if err := e.sessions.SetProgress(ctx, session.ID, 0, len(applicants)); err != nil {
		return err
	}

	intake, err := e.applicants.CourseIntakeLimit(ctx, courseID)
	if err != nil || intake <= 0 {
		intake = e.defaultIntake
	}

	result, err := ClassifyApplicants(RankingInput{Applicants: applicants, IntakeLimit: intake})
	if err != nil {
		return err
	}

	if err := e.sessions.SetProgress(ctx, session.ID, len(applicants), len(applicants)); err != nil {
		return err
	}
	return e.sessions.AppendMessage(ctx, resultMessage(session.ID, courseID, result))
}

func resultMessage(sessionID, courseID string, result *models.RankingResult) *models.Message {
	payload, _ := json.Marshal(result)
	series, _ := json.Marshal([]int{
		len(result.AutoAccept), len(result.Conditional), len(result.Waitlist), len(result.Rejected),
	})
	return &models.Message{
		SessionID: sessionID,
		Role:      models.MessageRoleAssistant,
		Content: fmt.Sprintf("Ranked %d applicants for course %s: %d auto-accept, %d conditional, %d waitlisted, %d rejected (cutoff APS %.1f).",
			result.Size(), courseID,
			len(result.AutoAccept), len(result.Conditional), len(result.Waitlist), len(result.Rejected),
			result.CutoffAPS),
		Progress: &models.ProgressUpdate{Processed: result.Size(), Total: result.Size()},
		Result: &models.ResultCard{
			Kind:  "ranking",
			Title: "Applicant ranking",
			Fields: map[string]string{
				"autoAccept":  fmt.Sprintf("%d", len(result.AutoAccept)),
				"conditional": fmt.Sprintf("%d", len(result.Conditional)),
				"waitlist":    fmt.Sprintf("%d", len(result.Waitlist)),
				"rejected":    fmt.Sprintf("%d", len(result.Rejected)),
				"cutoffAps":   fmt.Sprintf("%.1f", result.CutoffAPS),
			},
			Payload: payload,
		},
		Chart: &models.ChartDescriptor{
			Type:   "bar",
			Labels: []string{"auto-accept", "conditional", "waitlist", "rejected"},
			Series: series,
		},
	}
}
