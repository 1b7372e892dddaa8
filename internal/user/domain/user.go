package domain

import (
	"errors"
	"time"
)

// User is the local user record that federated wallet identities reconcile
// onto. Email is unique case-insensitively and stored lowercase.
type User struct {
	ID            string
	Email         string
	PasswordHash  string // bcrypt of a random placeholder for wallet-created accounts; never a user-chosen secret
	IsActive      bool
	IsVerified    bool
	WalletAddress string // empty until the first reconciliation supplies one; set once, never overwritten
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate validates the user for persistence. Returns an error describing
// the first validation failure.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("id is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	return nil
}
