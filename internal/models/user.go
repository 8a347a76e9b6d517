package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the system-wide role carried in a user's token claims.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique).
	// Used for login and notification email delivery.
	Email string

	// DisplayName is the name shown to other group members and used in notices.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Role is the system-wide role. System admins receive contribution and
	// withdrawal-request notices for every group.
	Role UserRole

	// IsActive is false for disabled accounts, which cannot log in.
	IsActive bool

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last change to the account.
	UpdatedAt int64
}

// NewUser builds an active user with the default role and fresh timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsSystemAdmin reports whether the user holds the system admin role.
func (u *User) IsSystemAdmin() bool {
	return u.Role == RoleAdmin
}
