package types

import "time"

// Registration is a user's sign-up for an event. It is read-only from
// the client's point of view.
type Registration struct {
	// ID is the unique identifier of the registration.
	ID int `json:"id"`

	// User is the registered user, embedded by the backend.
	User *User `json:"user,omitempty"`

	// UserIDRaw is the flat user id some backend versions send instead
	// of (or in addition to) the nested user.
	UserIDRaw int `json:"user_id,omitempty"`

	// EventID identifies the event.
	EventID int `json:"event_id"`

	// RegisteredAt is when the user signed up.
	RegisteredAt time.Time `json:"registered_at"`

	// Status is the registration state.
	Status RegistrationStatus `json:"status"`
}

// UserID returns the id of the registered user, preferring the nested
// user object.
func (r Registration) UserID() int {
	if r.User != nil && r.User.ID != 0 {
		return r.User.ID
	}
	return r.UserIDRaw
}

// RegistrationStatus is the state of a registration.
type RegistrationStatus string

// Supported registration statuses.
const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationPresent    RegistrationStatus = "present"
	RegistrationAbsent     RegistrationStatus = "absent"
	RegistrationCancelled  RegistrationStatus = "cancelled"
)

// Attendee is a row of the present or absent list of an event.
type Attendee struct {
	UserID     int              `json:"user_id"`
	FirstName  string           `json:"first_name"`
	LastName   string           `json:"last_name"`
	Email      string           `json:"email"`
	Specialty  string           `json:"specialty,omitempty"`
	Level      string           `json:"level,omitempty"`
	UserStatus UserStatus       `json:"user_status,omitempty"`
	Status     AttendanceStatus `json:"status,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// FullName joins first and last name.
func (a Attendee) FullName() string {
	return User{FirstName: a.FirstName, LastName: a.LastName}.FullName()
}

// AttendanceRecord is one presence mark for one user at one event.
type AttendanceRecord struct {
	EventID   int              `json:"event_id"`
	UserID    int              `json:"user_id"`
	Status    AttendanceStatus `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
}

// AttendanceStatus is present or absent.
type AttendanceStatus string

// Supported attendance statuses.
const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)
