package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jinjin-academy/schedule-api/internal/dto"
	"github.com/jinjin-academy/schedule-api/internal/models"
	appErrors "github.com/jinjin-academy/schedule-api/pkg/errors"
	"github.com/jinjin-academy/schedule-api/pkg/notifier"
)

type changeRequestStore interface {
	Create(ctx context.Context, request *models.ChangeRequest) error
	GetByID(ctx context.Context, id string) (*models.ChangeRequest, error)
	List(ctx context.Context, status models.ChangeRequestStatus) ([]models.ChangeRequest, error)
	UpdateDecision(ctx context.Context, id string, status models.ChangeRequestStatus, decidedBy string, decidedAt time.Time) error
	UpdateAcknowledgement(ctx context.Context, id, acknowledgedBy string, acknowledgedAt time.Time) error
}

type templateFinder interface {
	GetByID(ctx context.Context, id string) (*models.Template, error)
}

// ChangeRequestService governs the request lifecycle: created pending by a
// teacher, decided (approved/rejected) by a manager, optionally acknowledged
// by the original requester. Decisions may be revised; the latest one wins.
type ChangeRequestService struct {
	repo      changeRequestStore
	templates templateFinder
	notifier  notifier.Notifier
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewChangeRequestService constructs the service. metrics may be nil.
func NewChangeRequestService(repo changeRequestStore, templates templateFinder, n notifier.Notifier, metrics *MetricsService, logger *zap.Logger) *ChangeRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeRequestService{repo: repo, templates: templates, notifier: n, metrics: metrics, logger: logger}
}

// Create stores a new pending request. Duplicate submissions for the same
// cell are allowed: managers resolve overlaps during review.
func (s *ChangeRequestService) Create(ctx context.Context, req dto.CreateChangeRequest, actor *models.JWTClaims) (*models.ChangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if strings.TrimSpace(req.TemplateID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "templateId is required")
	}
	if req.DayOfWeek == nil || *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dayOfWeek must be a number between 0 and 6")
	}
	if strings.TrimSpace(req.TimeLabel) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timeLabel is required")
	}
	if len(req.Payload) > 0 && !json.Valid(req.Payload) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payload must be valid JSON")
	}
	// The template must exist at creation time; the link is not enforced
	// afterwards, so requests survive template deletion as orphans.
	if _, err := s.templates.GetByID(ctx, req.TemplateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "templateId does not reference an existing template")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify template")
	}

	requestedBy := strings.TrimSpace(actor.DisplayName)
	if requestedBy == "" {
		requestedBy = actor.Username
	}
	userID := actor.UserID
	request := &models.ChangeRequest{
		TemplateID:        req.TemplateID,
		DayOfWeek:         *req.DayOfWeek,
		TimeLabel:         req.TimeLabel,
		RequestedBy:       requestedBy,
		RequestedByUserID: &userID,
		Payload:           append(json.RawMessage(nil), req.Payload...),
		Status:            models.ChangeRequestPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create change request")
	}
	return request, nil
}

// List returns requests newest first, optionally filtered by exact status.
func (s *ChangeRequestService) List(ctx context.Context, status string) ([]models.ChangeRequest, error) {
	requests, err := s.repo.List(ctx, models.ChangeRequestStatus(strings.TrimSpace(status)))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list change requests")
	}
	return requests, nil
}

// Decide records the manager verdict and dispatches a best-effort
// notification. Re-deciding an already-decided request is permitted and
// overwrites decidedAt/decidedBy.
func (s *ChangeRequestService) Decide(ctx context.Context, id string, req dto.DecideChangeRequest, actor *models.JWTClaims) (*models.ChangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleManager && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.ErrForbidden
	}
	if !models.DecisionStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be 'approved' or 'rejected'")
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "change request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load change request")
	}

	decidedBy := strings.TrimSpace(actor.DisplayName)
	if decidedBy == "" {
		decidedBy = actor.Username
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateDecision(ctx, id, req.Status, decidedBy, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "change request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to record decision")
	}
	request.Status = req.Status
	request.DecidedAt = &now
	request.DecidedBy = &decidedBy

	s.metrics.RecordDecision(string(req.Status))
	s.dispatchDecisionNotification(ctx, request)
	return request, nil
}

// Acknowledge marks a decided request as seen. Teachers may only acknowledge
// their own requests; managers and the superadmin may acknowledge any.
func (s *ChangeRequestService) Acknowledge(ctx context.Context, id string, actor *models.JWTClaims) (*models.ChangeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "change request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load change request")
	}

	if actor.Role == models.RoleTeacher && !ownsRequest(request, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the original requester may acknowledge this request")
	}

	acknowledgedBy := strings.TrimSpace(actor.DisplayName)
	if acknowledgedBy == "" {
		acknowledgedBy = actor.Username
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateAcknowledgement(ctx, id, acknowledgedBy, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "change request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to record acknowledgement")
	}
	request.AcknowledgedBy = &acknowledgedBy
	request.AcknowledgedAt = &now
	return request, nil
}

// ownsRequest prefers the explicit user-id link; requests created before the
// linkage fall back to trimmed case-insensitive name matching against the
// actor's display name or username.
func ownsRequest(request *models.ChangeRequest, actor *models.JWTClaims) bool {
	if request.RequestedByUserID != nil && *request.RequestedByUserID != "" {
		return *request.RequestedByUserID == actor.UserID
	}
	requested := strings.ToLower(strings.TrimSpace(request.RequestedBy))
	if requested == "" {
		return false
	}
	if requested == strings.ToLower(strings.TrimSpace(actor.DisplayName)) {
		return true
	}
	return requested == strings.ToLower(strings.TrimSpace(actor.Username))
}

// dispatchDecisionNotification is fire-and-forget relative to the committed
// decision: delivery failures are logged, never surfaced.
func (s *ChangeRequestService) dispatchDecisionNotification(ctx context.Context, request *models.ChangeRequest) {
	if s.notifier == nil {
		return
	}
	templateName := request.TemplateID
	if template, err := s.templates.GetByID(ctx, request.TemplateID); err == nil {
		templateName = template.Name
	}
	decidedBy := ""
	if request.DecidedBy != nil {
		decidedBy = *request.DecidedBy
	}
	n := notifier.DecisionNotification{
		TemplateName: templateName,
		DayLabel:     models.DayLabel(request.DayOfWeek),
		TimeLabel:    request.TimeLabel,
		Status:       string(request.Status),
		RequestedBy:  request.RequestedBy,
		DecidedBy:    decidedBy,
	}
	if err := s.notifier.SendDecisionNotification(ctx, n); err != nil {
		s.logger.Warn("failed to send decision notification",
			zap.String("request_id", request.ID),
			zap.Error(err),
		)
	}
}
