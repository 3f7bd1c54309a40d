package dto

import "github.com/eduplatform/gateway/internal/models"

// LoginRequest carries credentials straight through to the backend token
// endpoint; the gateway never stores or hashes them.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the gateway session token and the resolved user.
type LoginResponse struct {
	Token     string              `json:"token"`
	ExpiresIn int64               `json:"expires_in"`
	User      *models.UserProfile `json:"user"`
}

// RegisterRequest creates a backend account. Role defaults to student.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" validate:"omitempty,oneof=student lecturer admin"`
}

// UpdateProfileRequest is a partial profile update. Empty fields are left
// untouched; password is forwarded but never stored.
type UpdateProfileRequest struct {
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Password  string `json:"password" validate:"omitempty,min=6"`
}
