package dto

// CreateTemplateRequest creates a new weekly schedule container.
type CreateTemplateRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// UpdateTemplateRequest patches template metadata; nil fields keep the
// current value.
type UpdateTemplateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// EntryInput is one schedule cell in a full-replace save.
type EntryInput struct {
	DayOfWeek    *int   `json:"dayOfWeek" validate:"required,min=0,max=6"`
	TimeLabel    string `json:"timeLabel" validate:"required"`
	TeacherName  string `json:"teacherName"`
	StudentNames string `json:"studentNames"`
	Notes        string `json:"notes"`
	Color        string `json:"color"`
}

// SaveEntriesRequest fully replaces a template's entry set.
type SaveEntriesRequest struct {
	Entries []EntryInput `json:"entries" validate:"required,dive"`
}
