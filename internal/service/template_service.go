package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jinjin-academy/schedule-api/internal/dto"
	"github.com/jinjin-academy/schedule-api/internal/models"
	appErrors "github.com/jinjin-academy/schedule-api/pkg/errors"
)

type templateStore interface {
	List(ctx context.Context) ([]models.Template, error)
	GetByID(ctx context.Context, id string) (*models.Template, error)
	Create(ctx context.Context, template *models.Template) error
	Update(ctx context.Context, template *models.Template) error
	Delete(ctx context.Context, id string) error
}

type entryStore interface {
	ListByTemplate(ctx context.Context, templateID string) ([]models.ScheduleEntry, error)
	SaveBatch(ctx context.Context, templateID string, entries []models.ScheduleEntry, replace bool) error
}

// TemplateService manages weekly schedule templates and their entry sets.
type TemplateService struct {
	templates templateStore
	entries   entryStore
	cache     *EntryCache
	logger    *zap.Logger
}

// NewTemplateService constructs the service.
func NewTemplateService(templates templateStore, entries entryStore, cache *EntryCache, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{templates: templates, entries: entries, cache: cache, logger: logger}
}

// List returns all templates with entry counts, newest first.
func (s *TemplateService) List(ctx context.Context) ([]models.Template, error) {
	templates, err := s.templates.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// Get returns one template.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.Template, error) {
	template, err := s.templates.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return template, nil
}

// Create makes a new template.
func (s *TemplateService) Create(ctx context.Context, req dto.CreateTemplateRequest) (*models.Template, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "template name is required")
	}
	template := &models.Template{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if err := s.templates.Create(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create template")
	}
	return template, nil
}

// Update patches template metadata; absent fields keep their values.
func (s *TemplateService) Update(ctx context.Context, id string, req dto.UpdateTemplateRequest) (*models.Template, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "template name cannot be empty")
		}
		template.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}
	if err := s.templates.Update(ctx, template); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update template")
	}
	return template, nil
}

// Delete removes a template and its entries. Change requests referencing the
// template are left in place as orphans.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if err := s.templates.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete template")
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// ListEntries returns a template's entries in display order: day of week,
// then parsed clock time (unparsable labels last), then teacher.
func (s *TemplateService) ListEntries(ctx context.Context, templateID string) ([]models.ScheduleEntry, error) {
	if _, err := s.Get(ctx, templateID); err != nil {
		return nil, err
	}
	if cached, ok := s.cache.GetEntries(ctx, templateID); ok {
		return cached, nil
	}
	entries, err := s.entries.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entries")
	}
	sortEntries(entries)
	s.cache.SetEntries(ctx, templateID, entries)
	return entries, nil
}

// ReplaceEntries fully replaces a template's entry set in one transaction.
// Concurrent saves use last-writer-wins semantics.
func (s *TemplateService) ReplaceEntries(ctx context.Context, templateID string, req dto.SaveEntriesRequest) ([]models.ScheduleEntry, error) {
	if _, err := s.Get(ctx, templateID); err != nil {
		return nil, err
	}
	entries := make([]models.ScheduleEntry, 0, len(req.Entries))
	for _, input := range req.Entries {
		if input.DayOfWeek == nil || *input.DayOfWeek < 0 || *input.DayOfWeek > 6 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "each entry needs a numeric dayOfWeek between 0 and 6")
		}
		if strings.TrimSpace(input.TimeLabel) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "each entry needs a non-empty timeLabel")
		}
		entries = append(entries, models.ScheduleEntry{
			DayOfWeek:    *input.DayOfWeek,
			TimeLabel:    input.TimeLabel,
			TeacherName:  input.TeacherName,
			StudentNames: input.StudentNames,
			Notes:        input.Notes,
			Color:        input.Color,
		})
	}
	if err := s.entries.SaveBatch(ctx, templateID, entries, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to save entries")
	}
	s.cache.Invalidate(ctx, templateID)
	sortEntries(entries)
	return entries, nil
}

func sortEntries(entries []models.ScheduleEntry) {
	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].DayOfWeek != entries[b].DayOfWeek {
			return entries[a].DayOfWeek < entries[b].DayOfWeek
		}
		am, bm := models.TimeLabelMinutes(entries[a].TimeLabel), models.TimeLabelMinutes(entries[b].TimeLabel)
		if am != bm {
			return am < bm
		}
		return entries[a].TeacherName < entries[b].TeacherName
	})
}
