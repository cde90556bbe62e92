// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// User represents a registered user in the system.
// It contains authentication credentials and metadata for user management.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey" json:"id"`

	// Name is the user's display name.
	Name string `gorm:"size:255;not null" json:"name"`

	// Email is the user's email address used for authentication.
	// It must be unique across all users and is stored lowercased so
	// lookups are case-insensitive.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`

	// Password is the bcrypt hash of the user's password.
	// This should never store plaintext passwords and is never serialized.
	Password string `gorm:"size:255;not null" json:"-"`

	// EmailVerifiedAt is the time the user verified their email address.
	// nil means the address is still unverified.
	EmailVerifiedAt *time.Time `json:"email_verified_at"`

	// RememberToken is an opaque token rotated whenever the password
	// changes. It is never serialized.
	RememberToken string `gorm:"size:100" json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// HasVerifiedEmail returns true if the user has completed email verification.
func (u *User) HasVerifiedEmail() bool {
	return u.EmailVerifiedAt != nil
}
