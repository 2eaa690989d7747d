// Package cryptox holds the password hashing and strength policy used by the
// session service.
package cryptox

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/aidemoi/aidemoi/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 12

	MinPasswordLength = 8
	MaxPasswordLength = 128

	// SpecialChars is the set a password must draw at least one character from.
	SpecialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

// StrengthResult reports the first failed rule in Reason.
type StrengthResult struct {
	Valid  bool
	Reason string
}

// ErrPasswordTooLong is returned by Hash for input over bcrypt's 72-byte limit.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a bcrypt hasher. A cost outside bcrypt's accepted
// range falls back to DefaultBcryptCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash salts and hashes plaintext. bcrypt draws a fresh salt on every call.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrHashing, err)
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash. A mismatch is (false, nil);
// only a malformed hash yields an error.
func (h *PasswordHasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", common.ErrHashing, err)
	}
}

// ValidateStrength checks the rules in a fixed order and stops at the first
// failure.
func (h *PasswordHasher) ValidateStrength(plaintext string) StrengthResult {
	return ValidateStrength(plaintext)
}

func ValidateStrength(p string) StrengthResult {
	n := len([]rune(p))
	switch {
	case n == 0:
		return fail("Password is required")
	case n < MinPasswordLength:
		return fail(fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	case n > MaxPasswordLength:
		return fail(fmt.Sprintf("Password must be at most %d characters long", MaxPasswordLength))
	case !strings.ContainsFunc(p, unicode.IsUpper):
		return fail("Password must contain at least one uppercase letter")
	case !strings.ContainsFunc(p, unicode.IsLower):
		return fail("Password must contain at least one lowercase letter")
	case !strings.ContainsFunc(p, unicode.IsDigit):
		return fail("Password must contain at least one number")
	case !strings.ContainsAny(p, SpecialChars):
		return fail("Password must contain at least one special character")
	}
	return StrengthResult{Valid: true}
}

func fail(reason string) StrengthResult {
	return StrengthResult{Valid: false, Reason: reason}
}
