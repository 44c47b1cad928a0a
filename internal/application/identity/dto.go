package identity

import (
	"io"
	"time"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/identity"
	"github.com/google/uuid"
)

// UserResponse represents the signed-in user on pages
type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	DisplayName    string    `json:"display_name"`
	DefaultAddress string    `json:"default_address"`
	Avatar         string    `json:"avatar"`
	IsAdmin        bool      `json:"is_admin"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegisterResult is returned after a successful registration
type RegisterResult struct {
	User        UserResponse
	ConfirmLink string
}

// ConfirmationResult is returned by SendConfirmation. Link is empty when
// the address was already confirmed.
type ConfirmationResult struct {
	AlreadyConfirmed bool
	Link             string
}

// ProfileInput carries the profile form. Avatar is nil when no file was sent.
type ProfileInput struct {
	FullName       string
	DefaultAddress string
	Avatar         io.Reader
}

// ToUserResponse converts a domain User
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		DisplayName:    u.DisplayName(),
		DefaultAddress: u.DefaultAddress,
		Avatar:         u.Avatar,
		IsAdmin:        u.IsAdmin,
		EmailConfirmed: u.EmailConfirmed,
		CreatedAt:      u.CreatedAt,
	}
}
