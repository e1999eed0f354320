package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jinjin-academy/schedule-api/internal/models"
	appErrors "github.com/jinjin-academy/schedule-api/pkg/errors"
	"github.com/jinjin-academy/schedule-api/pkg/export"
)

// ExportFormat selects the rendered document type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

const (
	exportTimeHeader    = "시간"
	exportTeacherHeader = "담당"
)

// ExportResult carries a rendered document and its HTTP metadata.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders a template's entries as a weekly grid document.
type ExportService struct {
	templates templateStore
	entries   entryStore
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(templates templateStore, entries entryStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		templates: templates,
		entries:   entries,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// Export renders the weekly grid for a template in the requested format.
func (s *ExportService) Export(ctx context.Context, templateID string, format ExportFormat) (*ExportResult, error) {
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	template, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}

	entries, err := s.entries.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries")
	}

	dataset := buildWeeklyGrid(entries)

	var body []byte
	switch format {
	case FormatCSV:
		body, err = s.csv.Render(dataset)
	case FormatPDF:
		body, err = s.pdf.Render(dataset, template.Name)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	result := &ExportResult{Body: body}
	switch format {
	case FormatCSV:
		result.Filename = fmt.Sprintf("%s.csv", template.Name)
		result.ContentType = "text/csv; charset=utf-8"
	case FormatPDF:
		result.Filename = fmt.Sprintf("%s.pdf", template.Name)
		result.ContentType = "application/pdf"
	}
	return result, nil
}

// buildWeeklyGrid pivots entries into one row per (time, teacher) pair with a
// column per weekday, mirroring the layout the import parser accepts.
func buildWeeklyGrid(entries []models.ScheduleEntry) export.Dataset {
	headers := make([]string, 0, 2+len(models.DayTokens))
	headers = append(headers, exportTimeHeader, exportTeacherHeader)
	headers = append(headers, models.DayTokens[:]...)

	type slotKey struct {
		time    string
		teacher string
	}
	rows := make(map[slotKey]map[string]string)
	keys := make([]slotKey, 0)

	for _, entry := range entries {
		if entry.DayOfWeek < 0 || entry.DayOfWeek > 6 {
			continue
		}
		key := slotKey{time: entry.TimeLabel, teacher: entry.TeacherName}
		row, ok := rows[key]
		if !ok {
			row = map[string]string{
				exportTimeHeader:    entry.TimeLabel,
				exportTeacherHeader: entry.TeacherName,
			}
			rows[key] = row
			keys = append(keys, key)
		}
		row[models.DayTokens[entry.DayOfWeek]] = renderCell(entry)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		am, bm := models.TimeLabelMinutes(a.time), models.TimeLabelMinutes(b.time)
		if am != bm {
			return am < bm
		}
		if a.time != b.time {
			return a.time < b.time
		}
		return a.teacher < b.teacher
	})

	dataset := export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(keys))}
	for _, key := range keys {
		dataset.Rows = append(dataset.Rows, rows[key])
	}
	return dataset
}

// renderCell joins a note line and student lines the same way multi-line
// import cells are split apart.
func renderCell(entry models.ScheduleEntry) string {
	if entry.Notes == "" {
		return entry.StudentNames
	}
	if entry.StudentNames == "" {
		return entry.Notes
	}
	return strings.Join([]string{entry.Notes, entry.StudentNames}, "\n")
}
