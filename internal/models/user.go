package models

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// SessionUser is the authenticated identity extracted from a bearer token.
type SessionUser struct {
	Subject string   `json:"subject"`
	Role    UserRole `json:"role"`
}

// LoginRequest is the development-only session request body.
type LoginRequest struct {
	Subject string   `json:"subject" validate:"required"`
	Role    UserRole `json:"role" validate:"required,oneof=student admin"`
}

// LoginResponse carries the signed session token.
type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expires_in"`
	Role      UserRole `json:"role"`
}
