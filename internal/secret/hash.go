// Package secret wraps bcrypt for the two credentials the system stores:
// user passwords and 6-digit account PINs. Plaintext never leaves this
// package's callers; comparisons go through bcrypt's constant-time check.
package secret

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("HashPassword: %w", err)
	}
	return string(hash), nil
}

func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("HashPIN: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether plain hashes to hash. Any bcrypt failure,
// including a malformed stored hash, reads as a mismatch.
func Matches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
