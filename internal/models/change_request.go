package models

import (
	"encoding/json"
	"time"
)

// ChangeRequestStatus captures workflow states for change requests.
type ChangeRequestStatus string

const (
	ChangeRequestPending  ChangeRequestStatus = "pending"
	ChangeRequestApproved ChangeRequestStatus = "approved"
	ChangeRequestRejected ChangeRequestStatus = "rejected"
)

// DecisionStatus reports whether the status is a valid decision outcome.
// Pending is not a decision: a decided request never transitions back.
func DecisionStatus(status ChangeRequestStatus) bool {
	return status == ChangeRequestApproved || status == ChangeRequestRejected
}

// ChangeRequest is a teacher-submitted proposal to alter a schedule cell,
// awaiting a manager decision. RequestedBy keeps the display string while
// RequestedByUserID links the submitting account; requests created before the
// identity linkage exist with a NULL user id and fall back to name matching.
type ChangeRequest struct {
	ID                string              `db:"id" json:"id"`
	TemplateID        string              `db:"template_id" json:"templateId"`
	DayOfWeek         int                 `db:"day_of_week" json:"dayOfWeek"`
	TimeLabel         string              `db:"time_label" json:"timeLabel"`
	RequestedBy       string              `db:"requested_by" json:"requestedBy"`
	RequestedByUserID *string             `db:"requested_by_user_id" json:"requestedByUserId,omitempty"`
	Payload           json.RawMessage     `db:"payload" json:"payload"`
	Status            ChangeRequestStatus `db:"status" json:"status"`
	CreatedAt         time.Time           `db:"created_at" json:"createdAt"`
	DecidedAt         *time.Time          `db:"decided_at" json:"decidedAt,omitempty"`
	DecidedBy         *string             `db:"decided_by" json:"decidedBy,omitempty"`
	AcknowledgedBy    *string             `db:"acknowledged_by" json:"acknowledgedBy,omitempty"`
	AcknowledgedAt    *time.Time          `db:"acknowledged_at" json:"acknowledgedAt,omitempty"`
}
