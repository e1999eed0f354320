package service

import (
	"context"
	"database/sql"

	"github.com/jinjin-academy/schedule-api/internal/models"
)

type templateRepoStub struct {
	templates map[string]*models.Template
	listErr   error
}

func newTemplateRepoStub(templates ...*models.Template) *templateRepoStub {
	stub := &templateRepoStub{templates: make(map[string]*models.Template)}
	for _, template := range templates {
		stub.templates[template.ID] = template
	}
	return stub
}

func (s *templateRepoStub) List(ctx context.Context) ([]models.Template, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	result := make([]models.Template, 0, len(s.templates))
	for _, template := range s.templates {
		result = append(result, *template)
	}
	return result, nil
}

func (s *templateRepoStub) GetByID(ctx context.Context, id string) (*models.Template, error) {
	if template, ok := s.templates[id]; ok {
		copied := *template
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *templateRepoStub) Create(ctx context.Context, template *models.Template) error {
	if template.ID == "" {
		template.ID = "tpl-created"
	}
	s.templates[template.ID] = template
	return nil
}

func (s *templateRepoStub) Update(ctx context.Context, template *models.Template) error {
	if _, ok := s.templates[template.ID]; !ok {
		return sql.ErrNoRows
	}
	s.templates[template.ID] = template
	return nil
}

func (s *templateRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.templates[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.templates, id)
	return nil
}

type entryRepoStub struct {
	entries     map[string][]models.ScheduleEntry
	lastReplace bool
	saveErr     error
}

func newEntryRepoStub() *entryRepoStub {
	return &entryRepoStub{entries: make(map[string][]models.ScheduleEntry)}
}

func (s *entryRepoStub) ListByTemplate(ctx context.Context, templateID string) ([]models.ScheduleEntry, error) {
	return append([]models.ScheduleEntry(nil), s.entries[templateID]...), nil
}

func (s *entryRepoStub) SaveBatch(ctx context.Context, templateID string, entries []models.ScheduleEntry, replace bool) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.lastReplace = replace
	if replace {
		s.entries[templateID] = append([]models.ScheduleEntry(nil), entries...)
	} else {
		s.entries[templateID] = append(s.entries[templateID], entries...)
	}
	return nil
}
