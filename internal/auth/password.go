package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/nihalm/duetrack/pkg/apperr"
)

var (
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
	ErrWeakPassword       = apperr.Validation("password must be at least 8 characters")
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against its stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
