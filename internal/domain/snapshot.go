// internal/domain/snapshot.go
package domain

// Snapshot is the full persisted state: every account plus the session.
// It is always written and read as a whole.
type Snapshot struct {
	Users       []User `json:"users"`
	CurrentUser *User  `json:"currentUser,omitempty"`
}
