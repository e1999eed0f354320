package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jinjin-academy/schedule-api/internal/models"
)

// EntryRepository persists schedule entries owned by templates.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository constructs the repository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// ListByTemplate returns a template's entries ordered by day, raw time label
// and teacher. Final display ordering by parsed clock time happens in the
// service layer.
func (r *EntryRepository) ListByTemplate(ctx context.Context, templateID string) ([]models.ScheduleEntry, error) {
	const query = `SELECT id, template_id, day_of_week, time_label, teacher_name, student_names, notes, color, created_at, updated_at
	FROM schedule_entries
	WHERE template_id = $1
	ORDER BY day_of_week, time_label, teacher_name`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, templateID); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// SaveBatch writes a set of entries for a template in one transaction.
// With replace=true the existing entry set is deleted first, giving the
// full-replacement save semantics; any insert error (including uniqueness
// violations on append) rolls back the whole batch.
func (r *EntryRepository) SaveBatch(ctx context.Context, templateID string, entries []models.ScheduleEntry, replace bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin entry batch: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE template_id = $1`, templateID); err != nil {
			return fmt.Errorf("clear schedule entries: %w", err)
		}
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO schedule_entries
	(id, template_id, day_of_week, time_label, teacher_name, student_names, notes, color, created_at, updated_at)
	VALUES (:id, :template_id, :day_of_week, :time_label, :teacher_name, :student_names, :notes, :color, :created_at, :updated_at)`

	for i := range entries {
		entry := &entries[i]
		entry.TemplateID = templateID
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, entry); err != nil {
			return fmt.Errorf("insert schedule entry: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE templates SET updated_at = $1 WHERE id = $2`, now, templateID); err != nil {
		return fmt.Errorf("touch template: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entry batch: %w", err)
	}
	return nil
}
