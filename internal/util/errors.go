// internal/util/errors.go
package util

import "errors"

// Business-rule errors surfaced by the facade.
var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrRecipientNotFound  = errors.New("recipient account not found")
	ErrSelfTransfer       = errors.New("cannot transfer to your own account")
	ErrNotLoggedIn        = errors.New("no user is logged in")
	ErrPasswordTooLong    = errors.New("password is too long")
)

// Common application-specific errors.
var (
	ErrNotFound               = errors.New("resource not found")
	ErrInvalidInput           = errors.New("invalid input provided")
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountNumberExhausted = errors.New("could not allocate a unique account number")
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
