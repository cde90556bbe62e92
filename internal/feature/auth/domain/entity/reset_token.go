package entity

import "time"

// PasswordResetToken is the persisted form of a password reset request.
// Only the bcrypt hash of the token is stored; the plaintext value lives in
// the reset email and is never persisted. There is at most one row per
// email address: issuing a new token replaces the previous one.
type PasswordResetToken struct {
	// Email identifies the account the reset was requested for.
	// It is the primary key, which enforces the one-token-per-email rule.
	Email string `gorm:"primaryKey;size:255"`

	// Token is the bcrypt hash of the plaintext reset token.
	Token string `gorm:"size:255;not null"`

	// CreatedAt is when the token was issued. Tokens older than the
	// configured expiry window are invalid and get deleted lazily.
	CreatedAt time.Time
}

// TableName keeps the table name aligned with the conventional
// password_reset_tokens layout.
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// IsExpired reports whether the token is older than ttl at the given time.
func (t *PasswordResetToken) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(t.CreatedAt) > ttl
}
