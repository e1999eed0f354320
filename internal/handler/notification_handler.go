package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinjin-academy/schedule-api/internal/models"
	appErrors "github.com/jinjin-academy/schedule-api/pkg/errors"
	"github.com/jinjin-academy/schedule-api/pkg/notifier"
	"github.com/jinjin-academy/schedule-api/pkg/response"
)

// NotificationHandler exposes a delivery test endpoint for operators.
type NotificationHandler struct {
	notifier notifier.Notifier
}

// NewNotificationHandler constructs handler.
func NewNotificationHandler(n notifier.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: n}
}

// Test godoc
// @Summary Send a test decision notification
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/test [post]
func (h *NotificationHandler) Test(c *gin.Context) {
	claims := claimsFromContext(c)
	requestedBy := "테스트 사용자"
	if claims != nil && claims.DisplayName != "" {
		requestedBy = claims.DisplayName
	}
	n := notifier.DecisionNotification{
		TemplateName: "테스트 시간표",
		DayLabel:     models.DayLabel(0),
		TimeLabel:    "2:00",
		Status:       string(models.ChangeRequestApproved),
		RequestedBy:  requestedBy,
		DecidedBy:    requestedBy,
	}
	if err := h.notifier.SendDecisionNotification(c.Request.Context(), n); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusBadGateway, "test notification failed"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sent": true}, nil)
}
