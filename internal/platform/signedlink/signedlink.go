// Package signedlink issues and verifies signed, time-limited email
// verification links. The URL parameters are signed with HMAC so the server
// can prove it issued them and that they have not been tampered with.
package signedlink

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiration is how long a verification link stays valid.
const DefaultExpiration = 60 * time.Minute

// Codec signs and verifies email verification link parameters.
type Codec struct {
	secret     []byte
	appURL     string
	expiration time.Duration
}

// NewCodec creates a new link codec with the provided secret, application
// base URL and expiration duration. A zero expiration falls back to
// DefaultExpiration.
func NewCodec(secret, appURL string, expiration time.Duration) *Codec {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &Codec{
		secret:     []byte(secret),
		appURL:     appURL,
		expiration: expiration,
	}
}

// SignedURL creates a signed verification URL for the given user.
// emailHash is the sha1 hex digest of the user's email address; it is part
// of both the path and the signed claims so the link breaks if the address
// changes before verification.
func (c *Codec) SignedURL(userID uint, emailHash string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", userID),
		"hash": emailHash,
		"exp":  now.Add(c.expiration).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign verification link: %w", err)
	}

	return fmt.Sprintf("%s/api/email/verify/%d/%s?signature=%s", c.appURL, userID, emailHash, signed), nil
}

// Verify checks the signature and expiry and returns the signed user ID and
// email hash.
func (c *Codec) Verify(signature string) (uint, string, error) {
	token, err := jwt.Parse(signature, func(t *jwt.Token) (interface{}, error) {
		// Check signing algorithm (only HMAC allowed)
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", fmt.Errorf("invalid signature: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("invalid signature claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, "", fmt.Errorf("invalid signature subject")
	}
	var userID uint
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil {
		return 0, "", fmt.Errorf("invalid signature subject: %w", err)
	}

	hash, ok := claims["hash"].(string)
	if !ok || hash == "" {
		return 0, "", fmt.Errorf("invalid signature hash")
	}

	return userID, hash, nil
}
