package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"openflow/backend/internal/security"
	sessionservice "openflow/backend/internal/session/service"
	"openflow/backend/internal/telemetry"
	userdomain "openflow/backend/internal/user/domain"
	userrepo "openflow/backend/internal/user/repository"
)

// Sentinel errors for the auth service; the HTTP handler maps them to status codes.
var (
	ErrAccountDisabled  = errors.New("user account is disabled")
	ErrInvalidClaim     = errors.New("invalid identity claim")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Claim is the identity asserted by the external wallet provider on a
// federated login. It is never persisted verbatim; it only drives
// reconciliation.
type Claim struct {
	Email          string
	CoinbaseUserID string
	WalletAddress  string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	SetWalletAddress(ctx context.Context, userID, address string) error
}

// Sessions is the session backend the reconciler establishes logins against.
type Sessions interface {
	Establish(ctx context.Context, userID, ip string) (*sessionservice.Established, error)
}

// AuthService reconciles external wallet identities onto local users and
// mints identity assertions for authenticated users.
type AuthService struct {
	users    UserRepo
	sessions Sessions
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	emitter  telemetry.EventEmitter
}

// NewAuthService returns an AuthService with the given dependencies.
// emitter may be nil to disable telemetry.
func NewAuthService(users UserRepo, sessions Sessions, hasher *security.Hasher, tokens *security.TokenProvider, emitter telemetry.EventEmitter) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		emitter:  emitter,
	}
}

// Reconcile maps the external identity claim onto a local user record
// (find-or-create by email) and establishes a session.
//
// A wallet address is set once when the stored value is empty and never
// overwritten afterwards, so repeated logins with a different address leave
// the original in place. When two reconciliations for the same new email
// race, the loser's create fails on the unique email constraint and resolves
// to the winner's row; the conflict never surfaces to the caller. Each write
// is a single atomic record operation, so cancellation mid-sequence leaves a
// state a later retry completes safely.
func (s *AuthService) Reconcile(ctx context.Context, claim Claim, ip string) (*userdomain.User, *sessionservice.Established, error) {
	email := strings.TrimSpace(strings.ToLower(claim.Email))
	if err := validateEmail(email); err != nil {
		return nil, nil, errors.Join(ErrInvalidClaim, err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		user, err = s.createUser(ctx, email, claim.WalletAddress)
		if errors.Is(err, userrepo.ErrEmailConflict) {
			// Lost the create race; the existing row wins.
			user, err = s.users.GetByEmail(ctx, email)
			if err == nil && user == nil {
				err = errors.New("user vanished after create conflict")
			}
		}
		if err != nil {
			return nil, nil, err
		}
	}

	if user.WalletAddress == "" && claim.WalletAddress != "" {
		if err := s.users.SetWalletAddress(ctx, user.ID, claim.WalletAddress); err != nil {
			return nil, nil, err
		}
		user.WalletAddress = claim.WalletAddress
	}

	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	est, err := s.sessions.Establish(ctx, user.ID, ip)
	if err != nil {
		return nil, nil, err
	}
	return user, est, nil
}

// IssueToken signs an identity assertion for the already-authenticated user.
// The subject is always the local user id, never the external provider's.
func (s *AuthService) IssueToken(ctx context.Context, userID string) (string, *userdomain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if user == nil || !user.IsActive {
		return "", nil, ErrNotAuthenticated
	}
	token, err := s.tokens.Issue(user.ID, user.Email, time.Now().UTC())
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// createUser builds a new verified, active user for a wallet-provider login.
// The password is a random placeholder; the account never authenticates with
// it, and verification responsibility sits with the external provider.
func (s *AuthService) createUser(ctx context.Context, email, walletAddress string) (*userdomain.User, error) {
	placeholder, err := security.GeneratePassword()
	if err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash([]byte(placeholder))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:            uuid.New().String(),
		Email:         email,
		PasswordHash:  hashed,
		IsActive:      true,
		IsVerified:    true,
		WalletAddress: walletAddress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	telemetry.EmitAsync(s.emitter, &telemetry.AuthEvent{
		EventType: telemetry.EventUserCreated,
		UserID:    user.ID,
		Email:     user.Email,
		Source:    "auth_service",
		CreatedAt: now,
	})
	return user, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}
