package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jinjin-academy/schedule-api/internal/middleware"
	"github.com/jinjin-academy/schedule-api/internal/models"
	"github.com/jinjin-academy/schedule-api/internal/service"
)

type changeRequestStoreMock struct {
	requests map[string]*models.ChangeRequest
}

func newChangeRequestStoreMock(requests ...*models.ChangeRequest) *changeRequestStoreMock {
	mock := &changeRequestStoreMock{requests: make(map[string]*models.ChangeRequest)}
	for _, request := range requests {
		mock.requests[request.ID] = request
	}
	return mock
}

func (m *changeRequestStoreMock) Create(ctx context.Context, request *models.ChangeRequest) error {
	if request.ID == "" {
		request.ID = "req-new"
	}
	copied := *request
	m.requests[request.ID] = &copied
	return nil
}

func (m *changeRequestStoreMock) GetByID(ctx context.Context, id string) (*models.ChangeRequest, error) {
	if request, ok := m.requests[id]; ok {
		copied := *request
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *changeRequestStoreMock) List(ctx context.Context, status models.ChangeRequestStatus) ([]models.ChangeRequest, error) {
	result := make([]models.ChangeRequest, 0, len(m.requests))
	for _, request := range m.requests {
		if status != "" && request.Status != status {
			continue
		}
		result = append(result, *request)
	}
	return result, nil
}

func (m *changeRequestStoreMock) UpdateDecision(ctx context.Context, id string, status models.ChangeRequestStatus, decidedBy string, decidedAt time.Time) error {
	request, ok := m.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	request.Status = status
	request.DecidedBy = &decidedBy
	request.DecidedAt = &decidedAt
	return nil
}

func (m *changeRequestStoreMock) UpdateAcknowledgement(ctx context.Context, id, acknowledgedBy string, acknowledgedAt time.Time) error {
	request, ok := m.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	request.AcknowledgedBy = &acknowledgedBy
	request.AcknowledgedAt = &acknowledgedAt
	return nil
}

type templateFinderMock struct{}

func (templateFinderMock) GetByID(ctx context.Context, id string) (*models.Template, error) {
	if id == "tpl-1" {
		return &models.Template{ID: "tpl-1", Name: "주간 시간표"}, nil
	}
	return nil, sql.ErrNoRows
}

func newChangeRequestHandlerFixture(store *changeRequestStoreMock) *ChangeRequestHandler {
	svc := service.NewChangeRequestService(store, templateFinderMock{}, nil, nil, nil)
	return NewChangeRequestHandler(svc)
}

func testContext(t *testing.T, method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestChangeRequestHandlerCreate(t *testing.T) {
	store := newChangeRequestStoreMock()
	handler := newChangeRequestHandlerFixture(store)

	payload, _ := json.Marshal(map[string]interface{}{
		"templateId": "tpl-1",
		"dayOfWeek":  2,
		"timeLabel":  "2:00",
		"payload":    map[string]string{"reason": "보강"},
	})
	c, w := testContext(t, http.MethodPost, "/change-requests", payload,
		&models.JWTClaims{UserID: "user-1", Username: "kim", DisplayName: "김선생", Role: models.RoleTeacher})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.requests, 1)
}

func TestChangeRequestHandlerCreateInvalidBody(t *testing.T) {
	handler := newChangeRequestHandlerFixture(newChangeRequestStoreMock())

	c, w := testContext(t, http.MethodPost, "/change-requests", []byte(`{"templateId":`),
		&models.JWTClaims{UserID: "user-1", Role: models.RoleTeacher})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangeRequestHandlerDecideForbiddenForTeacher(t *testing.T) {
	store := newChangeRequestStoreMock(&models.ChangeRequest{ID: "req-1", TemplateID: "tpl-1", Status: models.ChangeRequestPending})
	handler := newChangeRequestHandlerFixture(store)

	payload, _ := json.Marshal(map[string]string{"status": "approved"})
	c, w := testContext(t, http.MethodPut, "/change-requests/req-1/decision", payload,
		&models.JWTClaims{UserID: "user-1", Role: models.RoleTeacher})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Decide(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestChangeRequestHandlerDecideApproves(t *testing.T) {
	store := newChangeRequestStoreMock(&models.ChangeRequest{ID: "req-1", TemplateID: "tpl-1", DayOfWeek: 1, TimeLabel: "2:00", Status: models.ChangeRequestPending})
	handler := newChangeRequestHandlerFixture(store)

	payload, _ := json.Marshal(map[string]string{"status": "approved"})
	c, w := testContext(t, http.MethodPut, "/change-requests/req-1/decision", payload,
		&models.JWTClaims{UserID: "mgr-1", DisplayName: "실장", Role: models.RoleManager})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Decide(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.ChangeRequestApproved, store.requests["req-1"].Status)
}

func TestChangeRequestHandlerAcknowledge(t *testing.T) {
	owner := "user-1"
	store := newChangeRequestStoreMock(&models.ChangeRequest{
		ID: "req-1", TemplateID: "tpl-1", RequestedBy: "김선생", RequestedByUserID: &owner,
		Status: models.ChangeRequestApproved,
	})
	handler := newChangeRequestHandlerFixture(store)

	c, w := testContext(t, http.MethodPut, "/change-requests/req-1/acknowledge", nil,
		&models.JWTClaims{UserID: "user-1", DisplayName: "김선생", Role: models.RoleTeacher})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Acknowledge(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.requests["req-1"].AcknowledgedAt)
}

func TestChangeRequestHandlerListFilters(t *testing.T) {
	store := newChangeRequestStoreMock(
		&models.ChangeRequest{ID: "req-1", Status: models.ChangeRequestPending},
		&models.ChangeRequest{ID: "req-2", Status: models.ChangeRequestApproved},
	)
	handler := newChangeRequestHandlerFixture(store)

	c, w := testContext(t, http.MethodGet, "/change-requests?status=pending", nil,
		&models.JWTClaims{UserID: "user-1", Role: models.RoleTeacher})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.ChangeRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.Equal(t, "req-1", envelope.Data[0].ID)
}
