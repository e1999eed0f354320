package models

import (
	"strconv"
	"strings"
	"time"
)

// ScheduleEntry is one (day, time, teacher) assignment within a template.
// (template_id, day_of_week, time_label, teacher_name) is unique.
type ScheduleEntry struct {
	ID           string    `db:"id" json:"id"`
	TemplateID   string    `db:"template_id" json:"templateId"`
	DayOfWeek    int       `db:"day_of_week" json:"dayOfWeek"`
	TimeLabel    string    `db:"time_label" json:"timeLabel"`
	TeacherName  string    `db:"teacher_name" json:"teacherName"`
	StudentNames string    `db:"student_names" json:"studentNames"`
	Notes        string    `db:"notes" json:"notes"`
	Color        string    `db:"color" json:"color"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Days run Monday-first, matching the 0..6 day_of_week encoding.
var (
	DayTokens = [7]string{"월", "화", "수", "목", "금", "토", "일"}
	DayLabels = [7]string{"월요일", "화요일", "수요일", "목요일", "금요일", "토요일", "일요일"}
)

// DayLabel returns the full Korean weekday name, or the raw index when out of
// range (orphaned requests may carry stale values).
func DayLabel(dayOfWeek int) string {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return strconv.Itoa(dayOfWeek)
	}
	return DayLabels[dayOfWeek]
}

// unparsableMinutes sorts free-form labels after every parsable clock time.
const unparsableMinutes = 1 << 30

// TimeLabelMinutes converts labels like "2:00" or "14:30" to minutes since
// midnight for display ordering. Unparsable labels sort last.
func TimeLabelMinutes(label string) int {
	parts := strings.SplitN(strings.TrimSpace(label), ":", 2)
	if len(parts) != 2 {
		return unparsableMinutes
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return unparsableMinutes
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return unparsableMinutes
	}
	return hours*60 + minutes
}
