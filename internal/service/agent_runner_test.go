package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/admissions-agent-api/internal/dto"
	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/pkg/jobs"
)

type fakeApplicantSource struct {
	applicants []models.Applicant
	intake     int
	intakeErr  error
}

func (f *fakeApplicantSource) ListByCourse(ctx context.Context, institutionID, courseID string) ([]models.Applicant, error) {
	return append([]models.Applicant(nil), f.applicants...), nil
}

func (f *fakeApplicantSource) CourseIntakeLimit(ctx context.Context, courseID string) (int, error) {
	if f.intakeErr != nil {
		return 0, f.intakeErr
	}
	return f.intake, nil
}

type stubExecutor struct {
	err    error
	called int
}

func (s *stubExecutor) Execute(ctx context.Context, session models.AgentSession) error {
	s.called++
	return s.err
}

func newRunnerFixture(t *testing.T, executors map[models.AgentKind]AgentExecutor) (*AgentRunner, *SessionService, *models.AgentSession) {
	t.Helper()
	store := newMockSessionStore()
	svc := NewSessionService(store, &mockFeedPublisher{}, &mockDispatcher{}, nil, nil, nil)
	runner := NewAgentRunner(svc, executors, nil)

	session, err := svc.Create(context.Background(), "inst-1", dto.CreateSessionRequest{
		AgentType: string(models.AgentKindRanking),
		CourseID:  "course-1",
	})
	require.NoError(t, err)
	return runner, svc, session
}

func TestRunnerCompletesSession(t *testing.T) {
	exec := &stubExecutor{}
	runner, svc, session := newRunnerFixture(t, map[models.AgentKind]AgentExecutor{
		models.AgentKindRanking: exec,
	})

	require.NoError(t, runner.Handle(context.Background(), jobs.Job{ID: session.ID}))

	stored, err := svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, stored.Status)
	assert.Equal(t, 1, exec.called)
}

func TestRunnerExecutorFailureMarksFailed(t *testing.T) {
	exec := &stubExecutor{err: errors.New("model unavailable")}
	runner, svc, session := newRunnerFixture(t, map[models.AgentKind]AgentExecutor{
		models.AgentKindRanking: exec,
	})

	require.NoError(t, runner.Handle(context.Background(), jobs.Job{ID: session.ID}),
		"a failed execution is terminal, not retryable")

	stored, err := svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFailed, stored.Status)

	messages, err := svc.Messages(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.MessageRoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "model unavailable")
}

func TestRunnerMissingExecutorFailsSession(t *testing.T) {
	runner, svc, session := newRunnerFixture(t, nil)

	require.NoError(t, runner.Handle(context.Background(), jobs.Job{ID: session.ID}))

	stored, err := svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFailed, stored.Status)
}

func TestRunnerSkipsTerminalSession(t *testing.T) {
	exec := &stubExecutor{}
	runner, svc, session := newRunnerFixture(t, map[models.AgentKind]AgentExecutor{
		models.AgentKindRanking: exec,
	})
	require.NoError(t, svc.SetStatus(context.Background(), session.ID, models.SessionStatusCompleted))

	require.NoError(t, runner.Handle(context.Background(), jobs.Job{ID: session.ID}))
	assert.Zero(t, exec.called, "terminal sessions must not re-run")
}

func TestRankingExecutorProducesResultMessage(t *testing.T) {
	store := newMockSessionStore()
	svc := NewSessionService(store, &mockFeedPublisher{}, &mockDispatcher{}, nil, nil, nil)
	source := &fakeApplicantSource{
		applicants: []models.Applicant{
			{ID: "1", Name: "A", APSScore: 90},
			{ID: "2", Name: "B", APSScore: 80},
			{ID: "3", Name: "C", APSScore: 70},
		},
		intake: 2,
	}
	exec := NewRankingExecutor(source, svc, 100, nil)

	session, err := svc.Create(context.Background(), "inst-1", dto.CreateSessionRequest{
		AgentType: string(models.AgentKindRanking),
		CourseID:  "course-1",
	})
	require.NoError(t, err)

	require.NoError(t, exec.Execute(context.Background(), *session))

	stored, err := svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.ProcessedItems)
	assert.Equal(t, 3, stored.TotalItems)

	messages, err := svc.Messages(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	msg := messages[0]
	assert.Equal(t, models.MessageRoleAssistant, msg.Role)
	require.NotNil(t, msg.Result)
	assert.Equal(t, "ranking", msg.Result.Kind)
	assert.Equal(t, "2", msg.Result.Fields["autoAccept"])
	assert.Equal(t, "1", msg.Result.Fields["rejected"])
	require.NotNil(t, msg.Chart)
	assert.Equal(t, "bar", msg.Chart.Type)
}

func TestRankingExecutorRequiresCourse(t *testing.T) {
	store := newMockSessionStore()
	svc := NewSessionService(store, &mockFeedPublisher{}, &mockDispatcher{}, nil, nil, nil)
	exec := NewRankingExecutor(&fakeApplicantSource{}, svc, 100, nil)

	session, err := svc.Create(context.Background(), "inst-1", dto.CreateSessionRequest{
		AgentType: string(models.AgentKindRanking),
	})
	require.NoError(t, err)

	require.Error(t, exec.Execute(context.Background(), *session))
}

func TestRankingExecutorFallsBackToDefaultIntake(t *testing.T) {
	store := newMockSessionStore()
	svc := NewSessionService(store, &mockFeedPublisher{}, &mockDispatcher{}, nil, nil, nil)
	source := &fakeApplicantSource{
		applicants: []models.Applicant{{ID: "1", Name: "A", APSScore: 42}},
		intakeErr:  errors.New("no course row"),
	}
	exec := NewRankingExecutor(source, svc, 5, nil)

	session, err := svc.Create(context.Background(), "inst-1", dto.CreateSessionRequest{
		AgentType: string(models.AgentKindRanking),
		CourseID:  "course-x",
	})
	require.NoError(t, err)

	require.NoError(t, exec.Execute(context.Background(), *session))
}
