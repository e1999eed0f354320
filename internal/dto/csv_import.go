package dto

// ImportMode selects how imported entries are persisted.
type ImportMode string

const (
	// ImportModeReplace deletes the template's existing entries before insert.
	ImportModeReplace ImportMode = "replace"
	// ImportModeAppend inserts alongside existing entries; uniqueness
	// collisions abort the whole import.
	ImportModeAppend ImportMode = "append"
)

// ValidImportMode reports whether mode is a recognised persistence mode.
func ValidImportMode(mode ImportMode) bool {
	return mode == ImportModeReplace || mode == ImportModeAppend
}

// ImportSummary reports the outcome of a CSV import. Warnings are advisory
// row-level notes collected during parsing, never fatal.
type ImportSummary struct {
	ImportedCount int      `json:"importedCount"`
	TeacherCount  int      `json:"teacherCount"`
	TimeSlotCount int      `json:"timeSlotCount"`
	Warnings      []string `json:"warnings"`
}
