package dto

import (
	"time"

	"github.com/assetdesk/problem-report-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse returns the issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserResponse is the wire form of a user. Password hashes never leave the
// service.
type UserResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       domain.UserRole `json:"role"`
	Department string          `json:"department"`
	CreatedAt  time.Time       `json:"createdAt"`
}
