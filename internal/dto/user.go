package dto

import "github.com/jinjin-academy/schedule-api/internal/models"

// CreateUserRequest registers a new account (superadmin only).
type CreateUserRequest struct {
	Username    string          `json:"username" validate:"required"`
	Password    string          `json:"password" validate:"required,min=4"`
	DisplayName string          `json:"displayName"`
	Role        models.UserRole `json:"role" validate:"required"`
}

// ResetPasswordRequest replaces an account's password.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=4"`
}

// UpdateUserStatusRequest toggles activation and/or changes role. At least
// one field must be present.
type UpdateUserStatusRequest struct {
	IsActive *bool            `json:"isActive"`
	Role     *models.UserRole `json:"role"`
}
