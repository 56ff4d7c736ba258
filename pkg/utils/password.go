package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password hashing parameters. bcrypt silently truncates past 72
// bytes, so overlong passwords are rejected instead.
const (
	passwordHashCost  = 12
	maxPasswordLength = 72
)

// HashPassword derives a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordLength {
		return "", errors.New("password exceeds 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword reports whether the plain text password matches the
// stored hash.
func ComparePassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
