package repository

import (
	"context"
	"time"

	"openflow/backend/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	Revoke(ctx context.Context, id string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}
