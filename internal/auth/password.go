package auth

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// emailPattern is the standard address check applied at registration.
// Stored emails are matched exactly as written, no normalization.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// ValidatePassword applies the minimum-length rule shared by registration
// and password reset.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// ValidateEmail checks the address against the standard pattern.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmailFormat
	}
	return nil
}

// HashPassword returns the bcrypt hash of a password. Plaintext never
// reaches the repo layer.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password against a stored hash.
// A stored federated-account marker is not a bcrypt hash and never matches.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
