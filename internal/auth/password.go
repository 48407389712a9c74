package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Storefront account passwords: at least 8 characters, and no more bytes
// than bcrypt reads.
const (
	minPasswordLength = 8
	maxPasswordBytes  = 72
)

var (
	ErrPasswordTooShort = errors.New("account password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("account password must be at most 72 bytes")
)

// ValidatePassword applies the account password rules without hashing
func ValidatePassword(password string) error {
	switch {
	case len([]rune(password)) < minPasswordLength:
		return ErrPasswordTooShort
	case len(password) > maxPasswordBytes:
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword validates and hashes a password for a new account
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored account hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
