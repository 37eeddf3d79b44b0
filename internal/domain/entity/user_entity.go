package entity

import (
	"time"
)

// User is the aggregate root for identities proven through a magic link.
// There is no password; owning the email address is the only credential.
type User struct {
	ID          string
	Email       string
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// Identity is what a redeemed magic link or a valid session resolves to.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	IsNew  bool   `json:"is_new,omitempty"`
}
