// Package domain contains the core business entities for the Motion Video
// backend. These are pure Go structs with no external dependencies,
// representing users, their login streaks, and the video catalog.
package domain

import (
	"strings"
	"time"
)

// User represents a registered user in the system.
// Users own videos and accumulate a login streak across calendar days.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Name is the display name shown in the app.
	Name string `json:"name"`

	// Email is the unique, normalized (trimmed, lowercased) email address.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// Profile fields collected during onboarding. All optional.
	FirstName string     `json:"firstName,omitempty"`
	Surname   string     `json:"surname,omitempty"`
	Gender    string     `json:"gender,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Height    float64    `json:"height,omitempty"`
	Weight    float64    `json:"weight,omitempty"`

	// Medical history fields from the About You screen.
	HeartSurgery            bool   `json:"heartSurgery"`
	WithinSixMonths         bool   `json:"withinSixMonths"`
	HeartSurgeryComment     string `json:"heartSurgeryComment,omitempty"`
	Fractures               bool   `json:"fractures"`
	WithinSixMonthsFracture bool   `json:"withinSixMonthsFracture"`
	FracturesComment        string `json:"fracturesComment,omitempty"`

	// StreakCount is the number of consecutive calendar days with a login.
	StreakCount int `json:"streakCount"`

	// LastLoginDate is the midnight-truncated date of the most recent login.
	LastLoginDate *time.Time `json:"lastLoginDate,omitempty"`

	// LoginDates holds the distinct calendar days the user logged in,
	// as YYYY-MM-DD strings. At most one entry per day.
	LoginDates []string `json:"loginDates,omitempty"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser creates a new User with default values.
func NewUser(name, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail trims surrounding whitespace and lowercases an email
// address. All lookups and uniqueness checks operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
