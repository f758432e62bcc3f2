package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	"github.com/cryptshare/cryptshare/internal/database"
	"github.com/cryptshare/cryptshare/internal/user/domain"

	apperrors "github.com/cryptshare/cryptshare/internal/errors"
)

// MySQLUserRepository handles user persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{
		db: db,
	}
}

// Create inserts a new user
func (r *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode user id")
	}

	query := `INSERT INTO users (id, username, email, password_hash, master_password_hash, role, public_key, private_key_vault, mfa_secret, mfa_enabled, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query,
		idBytes,
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
		if isMySQLDuplicateEntry(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode user id")
	}

	query := userSelectColumns + ` FROM users WHERE id = ?`
	return scanMySQLUser(querier.QueryRowContext(ctx, query, idBytes))
}

// GetByEmail retrieves a user by email
func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := userSelectColumns + ` FROM users WHERE email = ?`
	return scanMySQLUser(querier.QueryRowContext(ctx, query, email))
}

// UpdateMFA stores the sealed MFA seed and enables/disables MFA for the user.
func (r *MySQLUserRepository) UpdateMFA(ctx context.Context, id uuid.UUID, mfaSecret *string, mfaEnabled bool) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode user id")
	}

	query := `UPDATE users SET mfa_secret = ?, mfa_enabled = ?, updated_at = NOW() WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, mfaSecret, mfaEnabled, idBytes)
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

// scanMySQLUser reads a user row, decoding the BINARY(16) id column.
func scanMySQLUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var idBytes []byte
	var role string

	err := row.Scan(
		&idBytes,
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

	user.ID, err = uuid.FromBytes(idBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode user id")
	}

	user.Role = authDomain.Role(role)
	return &user, nil
}

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate entry violation
func isMySQLDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		// 1062 = ER_DUP_ENTRY
		return mysqlErr.Number == 1062
	}
	return false
}
