package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/admissions-agent-api/internal/dto"
	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/internal/repository"
	appErrors "github.com/campushub/admissions-agent-api/pkg/errors"
	"github.com/campushub/admissions-agent-api/pkg/jobs"
)

type mockSessionStore struct {
	sessions  map[string]*models.AgentSession
	messages  map[string][]models.Message
	createErr error
	updateErr error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{
		sessions: make(map[string]*models.AgentSession),
		messages: make(map[string][]models.Message),
	}
}

func (m *mockSessionStore) Create(ctx context.Context, session *models.AgentSession) error {
	if m.createErr != nil {
		return m.createErr
	}
	if session.ID == "" {
		session.ID = "sess-1"
	}
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *mockSessionStore) GetByID(ctx context.Context, id string) (*models.AgentSession, error) {
	if s, ok := m.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionStore) ListByInstitution(ctx context.Context, institutionID string) ([]models.AgentSession, error) {
	var out []models.AgentSession
	for _, s := range m.sessions {
		if s.InstitutionID == institutionID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSessionStore) Update(ctx context.Context, id string, params repository.UpdateSessionParams) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	s, ok := m.sessions[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		s.Status = *params.Status
	}
	if params.ProcessedItems != nil {
		s.ProcessedItems = *params.ProcessedItems
	}
	if params.TotalItems != nil {
		s.TotalItems = *params.TotalItems
	}
	return nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionStore) AppendMessage(ctx context.Context, message *models.Message) error {
	m.messages[message.SessionID] = append(m.messages[message.SessionID], *message)
	return nil
}

func (m *mockSessionStore) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	return m.messages[sessionID], nil
}

type mockFeedPublisher struct {
	inserts []models.AgentSession
	updates []models.AgentSession
	deletes []string
}

func (m *mockFeedPublisher) Insert(ctx context.Context, session models.AgentSession) {
	m.inserts = append(m.inserts, session)
}

func (m *mockFeedPublisher) Update(ctx context.Context, session models.AgentSession) {
	m.updates = append(m.updates, session)
}

func (m *mockFeedPublisher) Delete(ctx context.Context, institutionID, sessionID string) {
	m.deletes = append(m.deletes, sessionID)
}

type mockDispatcher struct {
	jobs       []jobs.Job
	enqueueErr error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func TestSessionCreatePersistsPublishesAndEnqueues(t *testing.T) {
	store := newMockSessionStore()
	pub := &mockFeedPublisher{}
	queue := &mockDispatcher{}
	svc := NewSessionService(store, pub, queue, nil, nil, nil)

	session, err := svc.Create(context.Background(), "inst-1", dto.CreateSessionRequest{
		AgentType: string(models.AgentKindRanking),
		CourseID:  "course-7",
	})
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusQueued, session.Status)
	require.NotNil(t, session.CourseID)
	assert.Equal(t, "course-7", *session.CourseID)

	require.Len(t, pub.inserts, 1, "INSERT must be published after the row is durable")
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, session.ID, queue.jobs[0].ID)
}

func TestSessionCreateRejectsUnknownKind(t *testing.T) {
	svc := NewSessionService(newMockSessionStore(), &mockFeedPublisher{}, &mockDispatcher{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), "inst-1", dto.CreateSessionRequest{AgentType: "mind_reader"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSessionCreateEnqueueFailureMarksFailed(t *testing.T) {
	store := newMockSessionStore()
	queue := &mockDispatcher{enqueueErr: errors.New("queue full")}
	svc := NewSessionService(store, &mockFeedPublisher{}, queue, nil, nil, nil)

	_, err := svc.Create(context.Background(), "inst-1", dto.CreateSessionRequest{AgentType: string(models.AgentKindAssistant)})
	require.Error(t, err)

	stored, getErr := store.GetByID(context.Background(), "sess-1")
	require.NoError(t, getErr)
	assert.Equal(t, models.SessionStatusFailed, stored.Status, "undeliverable work must not stay queued forever")
}

func TestSessionSetStatusPublishesUpdatedRow(t *testing.T) {
	store := newMockSessionStore()
	pub := &mockFeedPublisher{}
	svc := NewSessionService(store, pub, &mockDispatcher{}, nil, nil, nil)

	session, err := svc.Create(context.Background(), "inst-1", dto.CreateSessionRequest{AgentType: string(models.AgentKindRanking)})
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(context.Background(), session.ID, models.SessionStatusRunning))

	require.Len(t, pub.updates, 1)
	assert.Equal(t, models.SessionStatusRunning, pub.updates[0].Status, "the feed must carry the fresh row")

	err = svc.SetStatus(context.Background(), session.ID, models.SessionStatus("paused"))
	require.Error(t, err)
}

func TestSessionSetProgressValidation(t *testing.T) {
	store := newMockSessionStore()
	svc := NewSessionService(store, &mockFeedPublisher{}, &mockDispatcher{}, nil, nil, nil)
	session, err := svc.Create(context.Background(), "inst-1", dto.CreateSessionRequest{AgentType: string(models.AgentKindRanking)})
	require.NoError(t, err)

	require.Error(t, svc.SetProgress(context.Background(), session.ID, -1, 10))
	require.Error(t, svc.SetProgress(context.Background(), session.ID, 11, 10))
	require.NoError(t, svc.SetProgress(context.Background(), session.ID, 4, 10))

	stored, _ := store.GetByID(context.Background(), session.ID)
	assert.Equal(t, 4, stored.ProcessedItems)
	assert.Equal(t, 10, stored.TotalItems)
}

func TestSessionGetNotFound(t *testing.T) {
	svc := NewSessionService(newMockSessionStore(), &mockFeedPublisher{}, &mockDispatcher{}, nil, nil, nil)
	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionDeletePublishesDelete(t *testing.T) {
	store := newMockSessionStore()
	pub := &mockFeedPublisher{}
	svc := NewSessionService(store, pub, &mockDispatcher{}, nil, nil, nil)
	session, err := svc.Create(context.Background(), "inst-1", dto.CreateSessionRequest{AgentType: string(models.AgentKindRanking)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), session.ID))
	require.Len(t, pub.deletes, 1)
	assert.Equal(t, session.ID, pub.deletes[0])

	err = svc.Delete(context.Background(), session.ID)
	require.Error(t, err, "second delete must report not found")
}

func TestSessionMessagesRoundTrip(t *testing.T) {
	store := newMockSessionStore()
	svc := NewSessionService(store, &mockFeedPublisher{}, &mockDispatcher{}, nil, nil, nil)
	session, err := svc.Create(context.Background(), "inst-1", dto.CreateSessionRequest{AgentType: string(models.AgentKindAssistant)})
	require.NoError(t, err)

	require.Error(t, svc.AppendMessage(context.Background(), &models.Message{SessionID: session.ID, Role: "narrator"}))
	require.NoError(t, svc.AppendMessage(context.Background(), &models.Message{
		SessionID: session.ID,
		Role:      models.MessageRoleAssistant,
		Content:   "working on it",
	}))

	messages, err := svc.Messages(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "working on it", messages[0].Content)
}
