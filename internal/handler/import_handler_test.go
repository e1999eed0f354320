package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jinjin-academy/schedule-api/internal/dto"
	"github.com/jinjin-academy/schedule-api/internal/middleware"
	"github.com/jinjin-academy/schedule-api/internal/models"
	"github.com/jinjin-academy/schedule-api/internal/service"
)

type templateStoreMock struct{}

func (templateStoreMock) List(ctx context.Context) ([]models.Template, error) { return nil, nil }

func (templateStoreMock) GetByID(ctx context.Context, id string) (*models.Template, error) {
	if id == "tpl-1" {
		return &models.Template{ID: "tpl-1", Name: "주간 시간표"}, nil
	}
	return nil, sql.ErrNoRows
}

func (templateStoreMock) Create(ctx context.Context, template *models.Template) error { return nil }
func (templateStoreMock) Update(ctx context.Context, template *models.Template) error { return nil }
func (templateStoreMock) Delete(ctx context.Context, id string) error                 { return nil }

type entryStoreMock struct {
	saved       []models.ScheduleEntry
	lastReplace bool
}

func (m *entryStoreMock) ListByTemplate(ctx context.Context, templateID string) ([]models.ScheduleEntry, error) {
	return m.saved, nil
}

func (m *entryStoreMock) SaveBatch(ctx context.Context, templateID string, entries []models.ScheduleEntry, replace bool) error {
	m.saved = entries
	m.lastReplace = replace
	return nil
}

func multipartCSVRequest(t *testing.T, target, mode, csv string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "schedule.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	if mode != "" {
		require.NoError(t, writer.WriteField("mode", mode))
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, target, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newImportHandlerFixture() (*ImportHandler, *entryStoreMock) {
	entries := &entryStoreMock{}
	svc := service.NewCSVImportService(templateStoreMock{}, entries, nil, nil, nil)
	return NewImportHandler(svc), entries
}

func TestImportHandlerHappyPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, entries := newImportHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartCSVRequest(t, "/templates/tpl-1/import", "append", "시간,담당,월\n2:00,김T,학생A\n")
	c.Params = gin.Params{{Key: "id", Value: "tpl-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "mgr-1", Role: models.RoleManager})

	handler.Import(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, entries.saved, 1)
	require.False(t, entries.lastReplace)

	var envelope struct {
		Data dto.ImportSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 1, envelope.Data.ImportedCount)
}

func TestImportHandlerDefaultsToReplace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, entries := newImportHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartCSVRequest(t, "/templates/tpl-1/import", "", "시간,담당,월\n2:00,김T,학생A\n")
	c.Params = gin.Params{{Key: "id", Value: "tpl-1"}}

	handler.Import(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, entries.lastReplace)
}

func TestImportHandlerMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newImportHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/templates/tpl-1/import", nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "tpl-1"}}

	handler.Import(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandlerInvalidCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newImportHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartCSVRequest(t, "/templates/tpl-1/import", "replace", "시간,담당,비고\n2:00,김T,메모\n")
	c.Params = gin.Params{{Key: "id", Value: "tpl-1"}}

	handler.Import(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandlerUnknownTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newImportHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartCSVRequest(t, "/templates/ghost/import", "replace", "시간,담당,월\n2:00,김T,학생A\n")
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.Import(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
