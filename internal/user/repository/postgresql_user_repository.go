// Package repository provides data persistence implementations for user entities.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	"github.com/cryptshare/cryptshare/internal/database"
	"github.com/cryptshare/cryptshare/internal/user/domain"

	apperrors "github.com/cryptshare/cryptshare/internal/errors"
)

// PostgreSQLUserRepository handles user persistence for PostgreSQL
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{
		db: db,
	}
}

// Create inserts a new user
func (r *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (id, username, email, password_hash, master_password_hash, role, public_key, private_key_vault, mfa_secret, mfa_enabled, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.MasterPasswordHash,
		string(user.Role),
		user.PublicKey,
		user.PrivateKeyVault,
		user.MFASecret,
		user.MFAEnabled,
	)
	if err != nil {
		// Check for unique constraint violation (duplicate username or email)
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *PostgreSQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := userSelectColumns + ` FROM users WHERE id = $1`
	return scanUser(querier.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *PostgreSQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := userSelectColumns + ` FROM users WHERE email = $1`
	return scanUser(querier.QueryRowContext(ctx, query, email))
}

// UpdateMFA stores the sealed MFA seed and enables/disables MFA for the user.
func (r *PostgreSQLUserRepository) UpdateMFA(ctx context.Context, id uuid.UUID, mfaSecret *string, mfaEnabled bool) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET mfa_secret = $1, mfa_enabled = $2, updated_at = NOW() WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, mfaSecret, mfaEnabled, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user mfa state")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check affected rows")
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

const userSelectColumns = `SELECT id, username, email, password_hash, master_password_hash, role, public_key, private_key_vault, mfa_secret, mfa_enabled, created_at, updated_at`

// scanUser reads a user row from a QueryRow result.
func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var role string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.MasterPasswordHash,
		&role,
		&user.PublicKey,
		&user.PrivateKeyVault,
		&user.MFASecret,
		&user.MFAEnabled,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	user.Role = authDomain.Role(role)
	return &user, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 23505 = unique_violation
		return pqErr.Code == "23505"
	}
	return false
}
