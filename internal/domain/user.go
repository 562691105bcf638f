package domain

import "time"

// User is the minimal identity record Rigbook keeps for an account managed by
// the upstream identity provider. The id is the one asserted by the gateway.
type User struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
}

// UserRef is the lightweight reference embedded in setups.
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// Ref returns a reference to the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, DisplayName: u.DisplayName}
}
