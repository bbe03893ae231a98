package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campushub/admissions-agent-api/internal/dto"
	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/internal/repository"
	appErrors "github.com/campushub/admissions-agent-api/pkg/errors"
	"github.com/campushub/admissions-agent-api/pkg/jobs"
)

type sessionStore interface {
	Create(ctx context.Context, session *models.AgentSession) error
	GetByID(ctx context.Context, id string) (*models.AgentSession, error)
	ListByInstitution(ctx context.Context, institutionID string) ([]models.AgentSession, error)
	Update(ctx context.Context, id string, params repository.UpdateSessionParams) error
	Delete(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, sessionID string) ([]models.Message, error)
}

type feedPublisher interface {
	Insert(ctx context.Context, session models.AgentSession)
	Update(ctx context.Context, session models.AgentSession)
	Delete(ctx context.Context, institutionID, sessionID string)
}

type taskDispatcher interface {
	Enqueue(job jobs.Job) error
}

// SessionService owns the authoritative side of the session lifecycle:
// validation, persistence, change-feed publication and task dispatch. Every
// mutation flows through here so the feed always reflects the store.
type SessionService struct {
	repo    sessionStore
	pub     feedPublisher
	queue   taskDispatcher
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSessionService constructs the service.
func NewSessionService(repo sessionStore, pub feedPublisher, queue taskDispatcher, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, pub: pub, queue: queue, cache: cache, metrics: metrics, logger: logger}
}

// Create validates, persists and enqueues a new session, publishing the
// INSERT notification once the row is durable.
func (s *SessionService) Create(ctx context.Context, institutionID string, req dto.CreateSessionRequest) (*models.AgentSession, error) {
	kind := models.AgentKind(req.AgentType)
	if !kind.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown agent_type")
	}

	session := &models.AgentSession{
		AgentKind:     kind,
		InstitutionID: institutionID,
		Status:        models.SessionStatusQueued,
		Instructions:  req.Instructions,
	}
	if req.CourseID != "" {
		courseID := req.CourseID
		session.CourseID = &courseID
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create agent session")
	}
	s.pub.Insert(ctx, *session)
	s.invalidateList(ctx, institutionID)
	if s.metrics != nil {
		s.metrics.RecordSessionTransition(string(models.SessionStatusQueued))
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(jobs.Job{ID: session.ID, Type: string(kind)}); err != nil {
			// The row exists; mark it failed through the normal mutation
			// path so the feed carries the outcome.
			_ = s.SetStatus(ctx, session.ID, models.SessionStatusFailed)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue agent task")
		}
	}
	return session, nil
}

// List returns the tenant's sessions newest-first, served from cache when
// warm. The second return reports whether the cache answered.
func (s *SessionService) List(ctx context.Context, institutionID string) ([]models.AgentSession, bool, error) {
	cacheKey := s.listCacheKey(institutionID)
	if s.cache != nil {
		var cached []models.AgentSession
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	sessions, err := s.repo.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list agent sessions")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, sessions, 0)
	}
	return sessions, false, nil
}

// Get returns one session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.AgentSession, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agent session")
	}
	return session, nil
}

// SetStatus persists a lifecycle transition and publishes the UPDATE.
func (s *SessionService) SetStatus(ctx context.Context, id string, status models.SessionStatus) error {
	if !status.IsValid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}
	if err := s.repo.Update(ctx, id, repository.UpdateSessionParams{Status: &status}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session status")
	}
	s.publishRow(ctx, id)
	if s.metrics != nil {
		s.metrics.RecordSessionTransition(string(status))
	}
	return nil
}

// SetProgress persists progress counters and publishes the UPDATE.
func (s *SessionService) SetProgress(ctx context.Context, id string, processed, total int) error {
	if processed < 0 || total < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "progress counters must be non-negative")
	}
	if total > 0 && processed > total {
		return appErrors.Clone(appErrors.ErrValidation, "processed cannot exceed total")
	}
	params := repository.UpdateSessionParams{ProcessedItems: &processed, TotalItems: &total}
	if err := s.repo.Update(ctx, id, params); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session progress")
	}
	s.publishRow(ctx, id)
	return nil
}

// Delete removes a session and publishes the DELETE. Deletion is only ever
// triggered externally; agent code never calls this on its own sessions.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete agent session")
	}
	s.pub.Delete(ctx, session.InstitutionID, id)
	s.invalidateList(ctx, session.InstitutionID)
	return nil
}

// AppendMessage adds a message to the session's history.
func (s *SessionService) AppendMessage(ctx context.Context, message *models.Message) error {
	if !message.Role.IsValid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown message role")
	}
	if err := s.repo.AppendMessage(ctx, message); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append message")
	}
	return nil
}

// Messages returns the session history in display order.
func (s *SessionService) Messages(ctx context.Context, sessionID string) ([]models.Message, error) {
	messages, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, nil
}

func (s *SessionService) publishRow(ctx context.Context, id string) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("feed publish skipped, row reload failed",
			zap.String("session_id", id), zap.Error(err))
		return
	}
	s.pub.Update(ctx, *session)
	s.invalidateList(ctx, session.InstitutionID)
}

func (s *SessionService) invalidateList(ctx context.Context, institutionID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, s.listCacheKey(institutionID))
}

func (s *SessionService) listCacheKey(institutionID string) string {
	return fmt.Sprintf("sessions:list:%s", institutionID)
}
