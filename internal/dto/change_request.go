package dto

import (
	"encoding/json"

	"github.com/jinjin-academy/schedule-api/internal/models"
)

// CreateChangeRequest submits a new pending request for a schedule cell.
// Payload is an opaque structured blob stored verbatim.
type CreateChangeRequest struct {
	TemplateID string          `json:"templateId" validate:"required"`
	DayOfWeek  *int            `json:"dayOfWeek" validate:"required,min=0,max=6"`
	TimeLabel  string          `json:"timeLabel" validate:"required"`
	Payload    json.RawMessage `json:"payload"`
}

// DecideChangeRequest records a manager decision.
type DecideChangeRequest struct {
	Status models.ChangeRequestStatus `json:"status" validate:"required"`
}
