package auth

import (
	"encoding/hex"
	"errors"
	"unicode"

	"golang.org/x/crypto/sha3"
)

// ErrWeakPassword indicates the supplied password fails the composite
// strength policy enforced at signup.
var ErrWeakPassword = errors.New("password does not meet strength requirements")

// HashPassword derives the stored credential digest for a plaintext
// password. The transform is deterministic: verifying a login attempt
// hashes the attempt and compares digests, never plaintext.
func HashPassword(plaintext string) string {
	sum := sha3.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword reports whether the plaintext attempt matches the
// stored digest.
func VerifyPassword(digest, plaintext string) bool {
	return digest != "" && digest == HashPassword(plaintext)
}

// ValidatePassword enforces the signup strength policy: minimum eight
// characters with at least one uppercase letter, one lowercase letter,
// one digit and one symbol.
func ValidatePassword(plaintext string) error {
	if len(plaintext) < 8 {
		return ErrWeakPassword
	}

	var upper, lower, digit, symbol bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	if !upper || !lower || !digit || !symbol {
		return ErrWeakPassword
	}
	return nil
}
