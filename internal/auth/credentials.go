// Package auth decides how account passwords are stored and compared.
//
// The plain checker stores passwords as given and compares them (exact string
// equality). Any deployment holding real credentials must use bcrypt.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"securebank/internal/util"
)

// Supported modes for PASSWORD_HASHING.
const (
	ModePlain  = "plain"
	ModeBcrypt = "bcrypt"
)

// CredentialChecker prepares passwords for storage and verifies login attempts.
type CredentialChecker interface {
	// Hash returns the value to persist for password.
	Hash(password string) (string, error)
	// Verify reports whether password matches the stored value.
	Verify(stored, password string) bool
}

// NewCredentialChecker returns the checker for mode.
func NewCredentialChecker(mode string) (CredentialChecker, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModePlain:
		return PlainChecker{}, nil
	case ModeBcrypt:
		return BcryptChecker{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password hashing mode %q", mode)
	}
}

// PlainChecker stores passwords verbatim and compares them exactly.
type PlainChecker struct{}

func (PlainChecker) Hash(password string) (string, error) { return password, nil }

func (PlainChecker) Verify(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// BcryptChecker stores bcrypt hashes. Passwords longer than 72 bytes are
// rejected with util.ErrPasswordTooLong.
type BcryptChecker struct {
	Cost int
}

func (c BcryptChecker) Hash(password string) (string, error) {
	cost := c.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("failed to hash password: %w", util.ErrPasswordTooLong)
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

func (BcryptChecker) Verify(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}
