package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jinjin-academy/schedule-api/internal/dto"
	"github.com/jinjin-academy/schedule-api/internal/models"
	appErrors "github.com/jinjin-academy/schedule-api/pkg/errors"
)

// defaultEntryColor is applied to every imported cell; managers recolor
// cells individually afterwards.
const defaultEntryColor = "#fff3bf"

var (
	timeHeaderTokens    = []string{"시간", "time"}
	teacherHeaderTokens = []string{"담당", "선생", "teacher"}
)

// CSVImportService converts uploaded spreadsheet exports into normalized
// schedule entries and persists them atomically.
type CSVImportService struct {
	templates templateStore
	entries   entryStore
	cache     *EntryCache
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewCSVImportService constructs the service. metrics may be nil.
func NewCSVImportService(templates templateStore, entries entryStore, cache *EntryCache, metrics *MetricsService, logger *zap.Logger) *CSVImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImportService{templates: templates, entries: entries, cache: cache, metrics: metrics, logger: logger}
}

// Import parses raw CSV bytes and writes the resulting entries for the
// template in one transaction. Replace mode clears the existing entry set
// first; append mode inserts alongside it and lets the uniqueness constraint
// abort the transaction on collisions.
func (s *CSVImportService) Import(ctx context.Context, templateID string, raw []byte, mode dto.ImportMode) (*dto.ImportSummary, error) {
	if !dto.ValidImportMode(mode) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mode must be 'replace' or 'append'")
	}
	if _, err := s.templates.GetByID(ctx, templateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}

	result, err := parseScheduleCSV(raw)
	if err != nil {
		s.metrics.RecordImport(string(mode), false)
		return nil, err
	}

	if err := s.entries.SaveBatch(ctx, templateID, result.entries, mode == dto.ImportModeReplace); err != nil {
		s.metrics.RecordImport(string(mode), false)
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store imported entries")
	}
	s.metrics.RecordImport(string(mode), true)
	s.cache.Invalidate(ctx, templateID)

	s.logger.Info("csv import completed",
		zap.String("template_id", templateID),
		zap.String("mode", string(mode)),
		zap.Int("imported", len(result.entries)),
		zap.Int("warnings", len(result.warnings)),
	)

	return &dto.ImportSummary{
		ImportedCount: len(result.entries),
		TeacherCount:  result.teacherCount(),
		TimeSlotCount: result.timeSlotCount(),
		Warnings:      result.warnings,
	}, nil
}

type csvParseResult struct {
	entries  []models.ScheduleEntry
	warnings []string
}

func (r *csvParseResult) teacherCount() int {
	seen := make(map[string]struct{})
	for _, entry := range r.entries {
		if entry.TeacherName != "" {
			seen[entry.TeacherName] = struct{}{}
		}
	}
	return len(seen)
}

func (r *csvParseResult) timeSlotCount() int {
	seen := make(map[string]struct{})
	for _, entry := range r.entries {
		seen[entry.TimeLabel] = struct{}{}
	}
	return len(seen)
}

type dayColumn struct {
	index int
	day   int
}

// parseScheduleCSV implements the reconciliation contract: header-driven
// column discovery, merged-cell carry-forward for time and teacher values,
// and the first-line-is-notes convention for multi-line day cells.
func parseScheduleCSV(raw []byte) (*csvParseResult, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid CSV content")
	}
	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "CSV file is empty")
	}

	header := make([]string, len(records[0]))
	for i, cell := range records[0] {
		header[i] = normalizeHeaderCell(cell)
	}

	timeCol := findColumn(header, timeHeaderTokens, 0)
	teacherCol := findColumn(header, teacherHeaderTokens, 1)
	dayCols := findDayColumns(header, timeCol, teacherCol)
	if len(dayCols) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no day-of-week columns found in CSV header")
	}

	result := &csvParseResult{warnings: []string{}}
	currentTime := ""
	currentTeacher := ""
	hasTime := false

	for i, record := range records[1:] {
		rowNum := i + 2 // header counts as row 1
		row := padRow(record, len(header))

		if timeCell := strings.TrimSpace(row[timeCol]); timeCell != "" {
			currentTime = timeCell
			hasTime = true
		}
		if !hasTime {
			result.warnings = append(result.warnings, fmt.Sprintf("row %d skipped: no time label established yet", rowNum))
			continue
		}

		if teacherCell := strings.TrimSpace(row[teacherCol]); teacherCell != "" {
			currentTeacher = teacherCell
		}

		rowEntries := 0
		for _, col := range dayCols {
			cell := strings.TrimSpace(row[col.index])
			if cell == "" {
				continue
			}
			notes, students := splitDayCell(cell)
			result.entries = append(result.entries, models.ScheduleEntry{
				DayOfWeek:    col.day,
				TimeLabel:    currentTime,
				TeacherName:  currentTeacher,
				StudentNames: students,
				Notes:        notes,
				Color:        defaultEntryColor,
			})
			rowEntries++
		}

		// Rows with every day cell empty carry nothing to import.
		if rowEntries > 0 && currentTeacher == "" {
			result.warnings = append(result.warnings, fmt.Sprintf("row %d has no teacher value; imported with empty teacher name", rowNum))
		}
	}

	if len(result.entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "CSV produced no schedule entries")
	}
	return result, nil
}

// normalizeHeaderCell collapses internal whitespace and newlines so merged
// headers exported by spreadsheets still match their tokens.
func normalizeHeaderCell(cell string) string {
	return strings.Join(strings.Fields(cell), " ")
}

func findColumn(header []string, tokens []string, fallback int) int {
	for i, cell := range header {
		lowered := strings.ToLower(cell)
		for _, token := range tokens {
			if strings.Contains(lowered, token) {
				return i
			}
		}
	}
	return fallback
}

// findDayColumns maps header cells containing one of the seven fixed
// Monday-first day tokens to their day index. The time and teacher columns
// are excluded; other unmatched headers are ignored.
func findDayColumns(header []string, timeCol, teacherCol int) []dayColumn {
	cols := make([]dayColumn, 0, 7)
	for i, cell := range header {
		if i == timeCol || i == teacherCol {
			continue
		}
		for day, token := range models.DayTokens {
			if strings.Contains(cell, token) {
				cols = append(cols, dayColumn{index: i, day: day})
				break
			}
		}
	}
	sort.Slice(cols, func(a, b int) bool { return cols[a].index < cols[b].index })
	return cols
}

func padRow(record []string, width int) []string {
	if len(record) >= width {
		return record
	}
	padded := make([]string, width)
	copy(padded, record)
	return padded
}

// splitDayCell applies the documented convention: a single-line cell is all
// student names; a multi-line cell treats its first line as notes and the
// remaining lines (newline-joined) as student names.
func splitDayCell(cell string) (notes, students string) {
	cell = strings.ReplaceAll(cell, "\r\n", "\n")
	lines := strings.Split(cell, "\n")
	trimmed := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed = append(trimmed, strings.TrimSpace(line))
	}
	if len(trimmed) == 1 {
		return "", trimmed[0]
	}
	return trimmed[0], strings.Join(trimmed[1:], "\n")
}
