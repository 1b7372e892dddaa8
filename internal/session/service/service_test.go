package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"openflow/backend/internal/session/domain"
)

type memSessionRepo struct {
	mu     sync.Mutex
	byHash map[string]*domain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byHash: make(map[string]*domain.Session)}
}

func (r *memSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byHash[tokenHash], nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.byHash[s.TokenHash] = &cp
	return nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byHash {
		if s.ID == id && s.RevokedAt == nil {
			now := time.Now().UTC()
			s.RevokedAt = &now
		}
	}
	return nil
}

func (r *memSessionRepo) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byHash {
		if s.ID == id {
			s.LastSeenAt = &at
		}
	}
	return nil
}

func TestEstablishResolve(t *testing.T) {
	repo := newMemSessionRepo()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()

	est, err := svc.Establish(ctx, "user-1", "127.0.0.1")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if est.Token == "" {
		t.Fatal("Establish returned empty token")
	}
	if est.Session.TokenHash == est.Token {
		t.Error("raw token must not be stored as the hash")
	}

	sess, err := svc.Resolve(ctx, est.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sess == nil || sess.UserID != "user-1" {
		t.Fatalf("Resolve: want session for user-1, got %+v", sess)
	}
	if sess.LastSeenAt == nil {
		t.Error("Resolve should record last seen time")
	}
}

func TestResolve_UnknownEmptyToken(t *testing.T) {
	svc := NewService(newMemSessionRepo(), time.Hour)
	ctx := context.Background()

	for _, token := range []string{"", "unknown-token"} {
		sess, err := svc.Resolve(ctx, token)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", token, err)
		}
		if sess != nil {
			t.Errorf("Resolve(%q): want nil session, got %+v", token, sess)
		}
	}
}

func TestResolve_Expired(t *testing.T) {
	repo := newMemSessionRepo()
	svc := NewService(repo, -time.Minute) // already expired on creation
	ctx := context.Background()

	est, err := svc.Establish(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	sess, err := svc.Resolve(ctx, est.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sess != nil {
		t.Error("expired session should not resolve")
	}
}

func TestRevoke(t *testing.T) {
	repo := newMemSessionRepo()
	svc := NewService(repo, time.Hour)
	ctx := context.Background()

	est, err := svc.Establish(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if err := svc.Revoke(ctx, est.Token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	sess, err := svc.Resolve(ctx, est.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sess != nil {
		t.Error("revoked session should not resolve")
	}

	// Revoking an unknown token is a no-op.
	if err := svc.Revoke(ctx, "unknown"); err != nil {
		t.Errorf("Revoke unknown token: %v", err)
	}
}
