// internal/domain/notification.go
package domain

import "time"

// NotificationType distinguishes success and error notices.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// DefaultNotificationTTL is how long a notice stays valid for display.
const DefaultNotificationTTL = 3 * time.Second

// Notification is the short-lived status message produced by every
// facade call.
type Notification struct {
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	CreatedAt time.Time        `json:"createdAt"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// NewNotification creates a notice that expires ttl after now.
func NewNotification(message string, typ NotificationType, now time.Time, ttl time.Duration) Notification {
	return Notification{
		Message:   message,
		Type:      typ,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the notice should no longer be shown at t.
func (n Notification) Expired(t time.Time) bool {
	return !t.Before(n.ExpiresAt)
}

// Remaining returns the display time left at t, never negative.
func (n Notification) Remaining(t time.Time) time.Duration {
	if d := n.ExpiresAt.Sub(t); d > 0 {
		return d
	}
	return 0
}
