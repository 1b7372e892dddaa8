package repository

import (
	"context"
	"errors"

	"openflow/backend/internal/user/domain"
)

// ErrEmailConflict is returned by Create when another row already holds the
// same email. The store owns the uniqueness constraint; callers resolve the
// conflict by re-reading, never by pre-locking.
var ErrEmailConflict = errors.New("email already exists")

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists u. Returns ErrEmailConflict on a unique-email violation.
	Create(ctx context.Context, u *domain.User) error
	// SetWalletAddress sets wallet_address only when it is currently empty.
	// No-op once a wallet address is populated.
	SetWalletAddress(ctx context.Context, userID, address string) error
}
