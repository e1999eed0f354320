package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jinjin-academy/schedule-api/internal/models"
)

// ChangeRequestRepository persists the change-request workflow data.
type ChangeRequestRepository struct {
	db *sqlx.DB
}

// NewChangeRequestRepository constructs the repository.
func NewChangeRequestRepository(db *sqlx.DB) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db}
}

const changeRequestColumns = `id, template_id, day_of_week, time_label, requested_by, requested_by_user_id,
       payload, status, created_at, decided_at, decided_by, acknowledged_by, acknowledged_at`

// Create inserts a new pending change request.
func (r *ChangeRequestRepository) Create(ctx context.Context, request *models.ChangeRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.ChangeRequestPending
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	if len(request.Payload) == 0 {
		request.Payload = []byte("{}")
	}
	const query = `INSERT INTO change_requests
	(id, template_id, day_of_week, time_label, requested_by, requested_by_user_id, payload, status, created_at)
	VALUES (:id, :template_id, :day_of_week, :time_label, :requested_by, :requested_by_user_id, :payload, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create change request: %w", err)
	}
	return nil
}

// GetByID fetches a change request by identifier.
func (r *ChangeRequestRepository) GetByID(ctx context.Context, id string) (*models.ChangeRequest, error) {
	query := `SELECT ` + changeRequestColumns + ` FROM change_requests WHERE id = $1`
	var request models.ChangeRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns change requests newest-created first, optionally filtered by
// exact status. No pagination: the result set stays small at academy scale.
func (r *ChangeRequestRepository) List(ctx context.Context, status models.ChangeRequestStatus) ([]models.ChangeRequest, error) {
	query := `SELECT ` + changeRequestColumns + ` FROM change_requests`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	var requests []models.ChangeRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	return requests, nil
}

// UpdateDecision records the decision outcome. There is deliberately no
// status guard: re-deciding an already-decided request overwrites
// decided_at/decided_by, matching the documented workflow behaviour.
func (r *ChangeRequestRepository) UpdateDecision(ctx context.Context, id string, status models.ChangeRequestStatus, decidedBy string, decidedAt time.Time) error {
	const query = `UPDATE change_requests
	SET status = $1, decided_at = $2, decided_by = $3
	WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, decidedAt, decidedBy, id)
	if err != nil {
		return fmt.Errorf("update change request decision: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check decision update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateAcknowledgement marks the request as seen by its requester.
// Re-acknowledging overwrites the timestamp without error.
func (r *ChangeRequestRepository) UpdateAcknowledgement(ctx context.Context, id, acknowledgedBy string, acknowledgedAt time.Time) error {
	const query = `UPDATE change_requests
	SET acknowledged_by = $1, acknowledged_at = $2
	WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, acknowledgedBy, acknowledgedAt, id)
	if err != nil {
		return fmt.Errorf("update change request acknowledgement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check acknowledgement update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
