// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when attempting to create a user with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when the email/password combination does not match.
	// The message is intentionally generic so it cannot be used for user enumeration.
	ErrInvalidCredentials = errors.New("the provided credentials are incorrect")

	// ErrSessionNotFound is returned when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrResetTokenInvalid is returned when no reset token exists for the email
	// or the provided token does not match the stored hash.
	ErrResetTokenInvalid = errors.New("invalid reset token")

	// ErrResetTokenExpired is returned when the reset token is older than the
	// configured expiry window. The stored row is deleted on detection.
	ErrResetTokenExpired = errors.New("reset token has expired")

	// ErrAlreadyVerified is returned when requesting a verification email for
	// a user whose address is already verified.
	ErrAlreadyVerified = errors.New("email already verified")

	// ErrInvalidSignature is returned when a verification link fails signature
	// or expiry checks, or its parameters do not match the signed claims.
	ErrInvalidSignature = errors.New("invalid or expired signature")
)
