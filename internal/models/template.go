package models

import "time"

// Template is a named weekly schedule container owning zero or more entries.
type Template struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
	EntryCount  int       `db:"entry_count" json:"entryCount,omitempty"`
}
