// internal/api/types/response.go
package types

import (
	"time"

	"github.com/shopspring/decimal"

	"securebank/internal/domain"
)

// PaginatedResponse defines a generic structure for paginated API responses.
// T represents the type of data contained in the 'Data' slice.
type PaginatedResponse[T any] struct {
	Data       []T   `json:"data"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int64 `json:"total_count"`
}

// UserResponse is the public view of an account. Credentials are never included.
type UserResponse struct {
	ID            string               `json:"id"`
	Username      string               `json:"username"`
	FullName      string               `json:"fullName"`
	Email         string               `json:"email"`
	AccountNumber string               `json:"accountNumber"`
	Balance       decimal.Decimal      `json:"balance"`
	Transactions  []domain.Transaction `json:"transactions"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// NewUserResponse converts a domain user into its API representation.
func NewUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	txs := u.Transactions
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return &UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		FullName:      u.FullName,
		Email:         u.Email,
		AccountNumber: u.AccountNumber,
		Balance:       u.Balance,
		Transactions:  txs,
		CreatedAt:     u.CreatedAt,
	}
}

// NotificationResponse is a notification with its remaining display time.
type NotificationResponse struct {
	Message     string                  `json:"message"`
	Type        domain.NotificationType `json:"type"`
	ExpiresInMS int64                   `json:"expires_in_ms"`
}

// NewNotificationResponse converts n as seen at now.
func NewNotificationResponse(n domain.Notification, now time.Time) *NotificationResponse {
	return &NotificationResponse{
		Message:     n.Message,
		Type:        n.Type,
		ExpiresInMS: n.Remaining(now).Milliseconds(),
	}
}

// AccountResponse is returned by every endpoint that changes or reads an account.
type AccountResponse struct {
	User         *UserResponse         `json:"user,omitempty"`
	Notification *NotificationResponse `json:"notification,omitempty"`
}
