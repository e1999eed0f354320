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

// TemplateRepository persists weekly schedule templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs the repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// List returns all templates with their entry counts, newest first.
func (r *TemplateRepository) List(ctx context.Context) ([]models.Template, error) {
	const query = `SELECT t.id, t.name, t.description, t.is_active, t.created_at, t.updated_at,
       COUNT(e.id) AS entry_count
	FROM templates t
	LEFT JOIN schedule_entries e ON e.template_id = t.id
	GROUP BY t.id
	ORDER BY t.created_at DESC`
	var templates []models.Template
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// GetByID fetches a template by identifier.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.Template, error) {
	const query = `SELECT id, name, description, is_active, created_at, updated_at
	FROM templates WHERE id = $1`
	var template models.Template
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		return nil, err
	}
	return &template, nil
}

// Create inserts a new template row.
func (r *TemplateRepository) Create(ctx context.Context, template *models.Template) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	if template.UpdatedAt.IsZero() {
		template.UpdatedAt = now
	}
	const query = `INSERT INTO templates (id, name, description, is_active, created_at, updated_at)
	VALUES (:id, :name, :description, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// Update persists template metadata changes.
func (r *TemplateRepository) Update(ctx context.Context, template *models.Template) error {
	template.UpdatedAt = time.Now().UTC()
	const query = `UPDATE templates
	SET name = :name, description = :description, is_active = :is_active, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, template)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check template update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a template; entries cascade at the storage level.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check template delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
