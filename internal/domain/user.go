// internal/domain/user.go
package domain

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

const welcomeBonusUnits = 1000

// WelcomeBonus returns the opening balance credited to every new account.
func WelcomeBonus() decimal.Decimal {
	return decimal.NewFromInt(welcomeBonusUnits)
}

const (
	accountNumberPrefix = "ACC"
	accountNumberMin    = 100000000
	accountNumberSpan   = 900000000
)

// Profile holds the user-supplied fields needed to open an account.
type Profile struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// User represents a registered account together with its ledger.
type User struct {
	ID            string          `json:"id"`            // UUID, assigned at creation
	Username      string          `json:"username"`      // Unique username, case-sensitive
	Password      string          `json:"password"`      // Stored credential (plain or hashed, see internal/auth)
	FullName      string          `json:"fullName"`      // Display name
	Email         string          `json:"email"`         // Contact email
	AccountNumber string          `json:"accountNumber"` // "ACC" + 9 digits
	Balance       decimal.Decimal `json:"balance"`       // Current balance
	Transactions  []Transaction   `json:"transactions"`  // Newest first
	CreatedAt     time.Time       `json:"createdAt"`     // Timestamp of creation
}

// NewUser creates a new User with the welcome bonus already credited.
// The password is stored as given; callers hash it beforehand if required.
func NewUser(profile Profile, accountNumber string) *User {
	now := time.Now().UTC()
	bonus := WelcomeBonus()
	seed := NewTransaction(TransactionTypeCredit, bonus, "Welcome bonus", Annotations{})
	return &User{
		ID:            uuid.NewString(),
		Username:      profile.Username,
		Password:      profile.Password,
		FullName:      profile.FullName,
		Email:         profile.Email,
		AccountNumber: accountNumber,
		Balance:       bonus,
		Transactions:  []Transaction{*seed},
		CreatedAt:     now,
	}
}

// NewAccountNumber returns a random account number in the form ACCnnnnnnnnn.
// Uniqueness is the caller's responsibility.
func NewAccountNumber() string {
	return fmt.Sprintf("%s%d", accountNumberPrefix, accountNumberMin+rand.IntN(accountNumberSpan))
}

// Clone returns a deep copy so callers never share the transaction slice
// with the store.
func (u User) Clone() User {
	cp := u
	cp.Transactions = make([]Transaction, len(u.Transactions))
	copy(cp.Transactions, u.Transactions)
	return cp
}

// Public strips the stored credential before the user leaves the process.
func (u User) Public() User {
	cp := u.Clone()
	cp.Password = ""
	return cp
}
