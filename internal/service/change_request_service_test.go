package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jinjin-academy/schedule-api/internal/dto"
	"github.com/jinjin-academy/schedule-api/internal/models"
	appErrors "github.com/jinjin-academy/schedule-api/pkg/errors"
	"github.com/jinjin-academy/schedule-api/pkg/notifier"
)

type changeRequestRepoStub struct {
	requests map[string]*models.ChangeRequest
	seq      int
}

func newChangeRequestRepoStub() *changeRequestRepoStub {
	return &changeRequestRepoStub{requests: make(map[string]*models.ChangeRequest)}
}

func (s *changeRequestRepoStub) Create(ctx context.Context, request *models.ChangeRequest) error {
	if request.ID == "" {
		s.seq++
		request.ID = "req-" + string(rune('0'+s.seq))
	}
	if request.Status == "" {
		request.Status = models.ChangeRequestPending
	}
	copied := *request
	s.requests[request.ID] = &copied
	return nil
}

func (s *changeRequestRepoStub) GetByID(ctx context.Context, id string) (*models.ChangeRequest, error) {
	if request, ok := s.requests[id]; ok {
		copied := *request
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *changeRequestRepoStub) List(ctx context.Context, status models.ChangeRequestStatus) ([]models.ChangeRequest, error) {
	result := make([]models.ChangeRequest, 0, len(s.requests))
	for _, request := range s.requests {
		if status != "" && request.Status != status {
			continue
		}
		result = append(result, *request)
	}
	return result, nil
}

func (s *changeRequestRepoStub) UpdateDecision(ctx context.Context, id string, status models.ChangeRequestStatus, decidedBy string, decidedAt time.Time) error {
	request, ok := s.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	request.Status = status
	request.DecidedBy = &decidedBy
	request.DecidedAt = &decidedAt
	return nil
}

func (s *changeRequestRepoStub) UpdateAcknowledgement(ctx context.Context, id, acknowledgedBy string, acknowledgedAt time.Time) error {
	request, ok := s.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	request.AcknowledgedBy = &acknowledgedBy
	request.AcknowledgedAt = &acknowledgedAt
	return nil
}

type notifierSpy struct {
	sent []notifier.DecisionNotification
	err  error
}

func (n *notifierSpy) SendDecisionNotification(_ context.Context, msg notifier.DecisionNotification) error {
	n.sent = append(n.sent, msg)
	return n.err
}

func teacherClaims(userID, name string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Username: name, DisplayName: name, Role: models.RoleTeacher}
}

func managerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "mgr-1", Username: "manager", DisplayName: "실장", Role: models.RoleManager}
}

func newChangeRequestFixture() (*ChangeRequestService, *changeRequestRepoStub, *notifierSpy) {
	repo := newChangeRequestRepoStub()
	templates := newTemplateRepoStub(&models.Template{ID: "tpl-1", Name: "주간 시간표"})
	spy := &notifierSpy{}
	return NewChangeRequestService(repo, templates, spy, nil, nil), repo, spy
}

func TestChangeRequestCreatePending(t *testing.T) {
	svc, _, _ := newChangeRequestFixture()

	day := 2
	request, err := svc.Create(context.Background(), dto.CreateChangeRequest{
		TemplateID: "tpl-1",
		DayOfWeek:  &day,
		TimeLabel:  "2:00",
		Payload:    json.RawMessage(`{"reason":"보강"}`),
	}, teacherClaims("user-1", "김선생"))
	require.NoError(t, err)
	require.Equal(t, models.ChangeRequestPending, request.Status)
	require.Equal(t, "김선생", request.RequestedBy)
	require.NotNil(t, request.RequestedByUserID)
	require.Equal(t, "user-1", *request.RequestedByUserID)
	require.Nil(t, request.DecidedAt)
}

func TestChangeRequestCreateValidation(t *testing.T) {
	svc, _, _ := newChangeRequestFixture()
	actor := teacherClaims("user-1", "김선생")
	day := 2

	cases := []dto.CreateChangeRequest{
		{DayOfWeek: &day, TimeLabel: "2:00"},
		{TemplateID: "tpl-1", TimeLabel: "2:00"},
		{TemplateID: "tpl-1", DayOfWeek: &day},
		{TemplateID: "tpl-1", DayOfWeek: &day, TimeLabel: "2:00", Payload: json.RawMessage(`{broken`)},
		{TemplateID: "missing", DayOfWeek: &day, TimeLabel: "2:00"},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), req, actor)
		appErr, ok := err.(*appErrors.Error)
		require.True(t, ok)
		require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}

	bad := 7
	_, err := svc.Create(context.Background(), dto.CreateChangeRequest{TemplateID: "tpl-1", DayOfWeek: &bad, TimeLabel: "2:00"}, actor)
	require.Error(t, err)
}

func TestChangeRequestDecideRequiresManager(t *testing.T) {
	svc, repo, _ := newChangeRequestFixture()
	repo.requests["req-1"] = &models.ChangeRequest{ID: "req-1", TemplateID: "tpl-1", Status: models.ChangeRequestPending}

	_, err := svc.Decide(context.Background(), "req-1", dto.DecideChangeRequest{Status: models.ChangeRequestApproved}, teacherClaims("user-1", "김선생"))
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestChangeRequestDecideAndNotify(t *testing.T) {
	svc, repo, spy := newChangeRequestFixture()
	repo.requests["req-1"] = &models.ChangeRequest{
		ID:          "req-1",
		TemplateID:  "tpl-1",
		DayOfWeek:   1,
		TimeLabel:   "2:00",
		RequestedBy: "김선생",
		Status:      models.ChangeRequestPending,
	}

	request, err := svc.Decide(context.Background(), "req-1", dto.DecideChangeRequest{Status: models.ChangeRequestApproved}, managerClaims())
	require.NoError(t, err)
	require.Equal(t, models.ChangeRequestApproved, request.Status)
	require.NotNil(t, request.DecidedAt)
	require.Equal(t, "실장", *request.DecidedBy)

	require.Len(t, spy.sent, 1)
	require.Equal(t, "주간 시간표", spy.sent[0].TemplateName)
	require.Equal(t, "화요일", spy.sent[0].DayLabel)
	require.Equal(t, "approved", spy.sent[0].Status)
}

func TestChangeRequestRedecisionOverwrites(t *testing.T) {
	svc, repo, _ := newChangeRequestFixture()
	repo.requests["req-1"] = &models.ChangeRequest{ID: "req-1", TemplateID: "tpl-1", Status: models.ChangeRequestPending}

	_, err := svc.Decide(context.Background(), "req-1", dto.DecideChangeRequest{Status: models.ChangeRequestApproved}, managerClaims())
	require.NoError(t, err)

	// A second decision is allowed and replaces the first verdict.
	request, err := svc.Decide(context.Background(), "req-1", dto.DecideChangeRequest{Status: models.ChangeRequestRejected}, managerClaims())
	require.NoError(t, err)
	require.Equal(t, models.ChangeRequestRejected, request.Status)

	stored, err := repo.GetByID(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, models.ChangeRequestRejected, stored.Status)
}

func TestChangeRequestDecideRejectsPendingStatus(t *testing.T) {
	svc, repo, _ := newChangeRequestFixture()
	repo.requests["req-1"] = &models.ChangeRequest{ID: "req-1", TemplateID: "tpl-1", Status: models.ChangeRequestPending}

	_, err := svc.Decide(context.Background(), "req-1", dto.DecideChangeRequest{Status: models.ChangeRequestPending}, managerClaims())
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestChangeRequestNotificationFailureIsSwallowed(t *testing.T) {
	svc, repo, spy := newChangeRequestFixture()
	spy.err = context.DeadlineExceeded
	repo.requests["req-1"] = &models.ChangeRequest{ID: "req-1", TemplateID: "tpl-1", Status: models.ChangeRequestPending}

	request, err := svc.Decide(context.Background(), "req-1", dto.DecideChangeRequest{Status: models.ChangeRequestRejected}, managerClaims())
	require.NoError(t, err)
	require.Equal(t, models.ChangeRequestRejected, request.Status)
}

func TestChangeRequestAcknowledgeOwnership(t *testing.T) {
	svc, repo, _ := newChangeRequestFixture()
	owner := "user-1"
	repo.requests["req-1"] = &models.ChangeRequest{
		ID:                "req-1",
		TemplateID:        "tpl-1",
		RequestedBy:       "김선생",
		RequestedByUserID: &owner,
		Status:            models.ChangeRequestApproved,
	}

	_, err := svc.Acknowledge(context.Background(), "req-1", teacherClaims("user-2", "박선생"))
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	request, err := svc.Acknowledge(context.Background(), "req-1", teacherClaims("user-1", "김선생"))
	require.NoError(t, err)
	require.NotNil(t, request.AcknowledgedAt)
	require.Equal(t, "김선생", *request.AcknowledgedBy)
}

func TestChangeRequestAcknowledgeNameFallback(t *testing.T) {
	svc, repo, _ := newChangeRequestFixture()
	repo.requests["req-1"] = &models.ChangeRequest{
		ID:          "req-1",
		TemplateID:  "tpl-1",
		RequestedBy: "  김선생 ",
		Status:      models.ChangeRequestApproved,
	}

	// Requests stored before the user-id link fall back to name matching.
	request, err := svc.Acknowledge(context.Background(), "req-1", teacherClaims("user-9", "김선생"))
	require.NoError(t, err)
	require.NotNil(t, request.AcknowledgedBy)

	_, err = svc.Acknowledge(context.Background(), "req-1", teacherClaims("user-9", "이선생"))
	require.Error(t, err)
}

func TestChangeRequestManagerAcknowledgesAny(t *testing.T) {
	svc, repo, _ := newChangeRequestFixture()
	owner := "user-1"
	repo.requests["req-1"] = &models.ChangeRequest{
		ID:                "req-1",
		TemplateID:        "tpl-1",
		RequestedBy:       "김선생",
		RequestedByUserID: &owner,
		Status:            models.ChangeRequestRejected,
	}

	request, err := svc.Acknowledge(context.Background(), "req-1", managerClaims())
	require.NoError(t, err)
	require.Equal(t, "실장", *request.AcknowledgedBy)
}

func TestChangeRequestListFiltersByStatus(t *testing.T) {
	svc, repo, _ := newChangeRequestFixture()
	repo.requests["req-1"] = &models.ChangeRequest{ID: "req-1", Status: models.ChangeRequestPending}
	repo.requests["req-2"] = &models.ChangeRequest{ID: "req-2", Status: models.ChangeRequestApproved}

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	pending, err := svc.List(context.Background(), "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "req-1", pending[0].ID)
}
