// Package auth implements credential hashing and bearer-token issuance.
package auth

import (
	"github.com/astrotechlabs/astrotech-api/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt truncates input beyond 72 bytes, so oversized passwords are
// rejected up front instead of being silently cut.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// HashPassword validates the password length and returns a bcrypt digest.
// The digest embeds algorithm parameters and salt, so verification needs
// no extra state.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", common.ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return "", common.ErrPasswordTooLong
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword reports whether password matches the stored digest.
// A mismatch is simply false; verification never fails with an error.
func CheckPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
