package types

import "strings"

// User represents a member account as returned by the backend.
// Status and role are only changed through the dedicated moderation
// endpoints, never by a generic update.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"user_id"`

	// FirstName is the user's given name.
	FirstName string `json:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"last_name"`

	// Email is the user's email address. It is also the login name.
	Email string `json:"email"`

	// PhoneNumber is an optional contact number.
	PhoneNumber string `json:"phone_number,omitempty"`

	// Status is the moderation state of the account.
	Status UserStatus `json:"status"`

	// IsActive mirrors Status == allowed on older backend versions.
	IsActive bool `json:"is_active"`

	// RoleID indicates the authorization level (see Role* constants).
	RoleID int `json:"role_id"`

	// Level is the study level code (e.g. "ci", "cc", "ct", "cs").
	Level string `json:"level,omitempty"`

	// Specialty is the user's field of study.
	Specialty string `json:"specialty,omitempty"`

	// Gender is free-form and may be empty.
	Gender string `json:"gender,omitempty"`

	// RejectionReason is set when an administrator denied the account.
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// Role identifiers used by the backend.
const (
	RoleMember    = 1
	RoleAdmin     = 2
	RolePresident = 3
)

// UserStatus is the moderation state of a user account.
type UserStatus string

// Supported user statuses.
const (
	UserPending UserStatus = "pending"
	UserAllowed UserStatus = "allowed"
	UserDenied  UserStatus = "denied"
)

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the user may use the administration dashboard.
func (u User) IsAdmin() bool {
	return u.RoleID == RoleAdmin || u.RoleID == RolePresident
}
