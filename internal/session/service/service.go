package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"openflow/backend/internal/security"
	"openflow/backend/internal/session/domain"
	"openflow/backend/internal/session/repository"
)

// Established holds a newly created session together with its bearer token.
// The raw token is returned exactly once; only its hash is persisted.
type Established struct {
	Session *domain.Session
	Token   string
}

// Service issues and resolves opaque session tokens backed by the session store.
type Service struct {
	repo repository.Repository
	ttl  time.Duration
}

// NewService returns a session service persisting to repo. ttl bounds how
// long an established session authenticates requests.
func NewService(repo repository.Repository, ttl time.Duration) *Service {
	return &Service{repo: repo, ttl: ttl}
}

// Establish creates a session for the user and returns it with the raw
// bearer token for the cookie. One atomic insert; cancellation leaves no
// partial state.
func (s *Service) Establish(ctx context.Context, userID, ip string) (*Established, error) {
	token, err := security.NewSessionToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: security.HashSessionToken(token),
		ExpiresAt: now.Add(s.ttl),
		IPAddress: ip,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &Established{Session: sess, Token: token}, nil
}

// Resolve returns the live session for the given bearer token, or nil when
// the token is unknown, expired, or revoked. Activity is recorded
// best-effort.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.repo.GetByTokenHash(ctx, security.HashSessionToken(token))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if !sess.Live(now) {
		return nil, nil
	}
	_ = s.repo.UpdateLastSeen(ctx, sess.ID, now)
	return sess, nil
}

// Revoke invalidates the session identified by the bearer token. Unknown
// tokens are a no-op.
func (s *Service) Revoke(ctx context.Context, token string) error {
	sess, err := s.repo.GetByTokenHash(ctx, security.HashSessionToken(token))
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	return s.repo.Revoke(ctx, sess.ID)
}
