package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleTeacher    UserRole = "teacher"
	RoleManager    UserRole = "manager"
	RoleSuperAdmin UserRole = "superadmin"
)

// ValidRole reports whether the role is one of the known roles.
func ValidRole(role UserRole) bool {
	switch role {
	case RoleTeacher, RoleManager, RoleSuperAdmin:
		return true
	}
	return false
}

// User represents an account stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	Role         UserRole  `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
