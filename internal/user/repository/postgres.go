package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"openflow/backend/internal/user/domain"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = "id, email, password_hash, is_active, is_verified, wallet_address, created_at, updated_at"

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
// Email comparison is case-insensitive; callers normalize to lowercase but
// the query does not depend on it.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER($1)", email)
	return scanUser(row)
}

// Create persists the user to the database. The user must have ID set; it is
// not assigned by this method. Returns ErrEmailConflict when the unique email
// index rejects the row.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	wallet := sql.NullString{String: u.WalletAddress, Valid: u.WalletAddress != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, is_active, is_verified, wallet_address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.PasswordHash, u.IsActive, u.IsVerified, wallet, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailConflict
		}
		return err
	}
	return nil
}

// SetWalletAddress sets the user's wallet address only when no address is
// stored yet. A populated address is never overwritten; the update silently
// matches zero rows in that case.
func (r *PostgresRepository) SetWalletAddress(ctx context.Context, userID, address string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET wallet_address = $2, updated_at = $3
		 WHERE id = $1 AND (wallet_address IS NULL OR wallet_address = '')`,
		userID, address, time.Now().UTC())
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var wallet sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsVerified, &wallet, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if wallet.Valid {
		u.WalletAddress = wallet.String
	}
	return &u, nil
}
