// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType defines the direction of a ledger record.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// TransferKind selects one of the supported transfer variants.
type TransferKind string

const (
	TransferKindInternal      TransferKind = "internal"
	TransferKindMobile        TransferKind = "mobile"
	TransferKindInternational TransferKind = "international"
)

// Valid reports whether k is a known transfer kind.
func (k TransferKind) Valid() bool {
	switch k {
	case TransferKindInternal, TransferKindMobile, TransferKindInternational:
		return true
	}
	return false
}

// Annotations carries the optional cross-reference fields of a record.
type Annotations struct {
	From         string `json:"from,omitempty"`         // Sender account number on an internal credit
	To           string `json:"to,omitempty"`           // Recipient account number on an internal debit
	MobileNumber string `json:"mobileNumber,omitempty"` // Mobile money destination
	Country      string `json:"country,omitempty"`      // International destination country
	Recipient    string `json:"recipient,omitempty"`    // International recipient reference
}

// Transaction represents one immutable ledger record.
type Transaction struct {
	ID          string          `json:"id"`          // UUID, unique within the owning account
	Type        TransactionType `json:"type"`        // credit or debit
	Amount      decimal.Decimal `json:"amount"`      // Non-negative magnitude
	Description string          `json:"description"` // Human readable text
	Date        time.Time       `json:"date"`        // Creation time
	Annotations
}

// NewTransaction creates a new Transaction instance.
// The amount is stored as an absolute value; the sign lives in txType.
func NewTransaction(txType TransactionType, amount decimal.Decimal, description string, ann Annotations) *Transaction {
	return &Transaction{
		ID:          uuid.NewString(),
		Type:        txType,
		Amount:      amount.Abs(),
		Description: description,
		Date:        time.Now().UTC(),
		Annotations: ann,
	}
}

// Signed returns the record's effect on the balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// TransferRequest is the input of a transfer in any of its variants.
type TransferRequest struct {
	Kind         TransferKind    `json:"type"`
	Recipient    string          `json:"recipient,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	MobileNumber string          `json:"mobileNumber,omitempty"`
	Country      string          `json:"country,omitempty"`
}
