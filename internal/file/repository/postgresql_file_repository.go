// Package repository provides data persistence implementations for files and shares.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cryptshare/cryptshare/internal/database"
	"github.com/cryptshare/cryptshare/internal/file/domain"

	apperrors "github.com/cryptshare/cryptshare/internal/errors"
)

// PostgreSQLFileRepository handles file and share persistence for PostgreSQL
type PostgreSQLFileRepository struct {
	db *sql.DB
}

// NewPostgreSQLFileRepository creates a new PostgreSQLFileRepository
func NewPostgreSQLFileRepository(db *sql.DB) *PostgreSQLFileRepository {
	return &PostgreSQLFileRepository{
		db: db,
	}
}

// Create inserts a new file metadata row
func (r *PostgreSQLFileRepository) Create(ctx context.Context, file *domain.File) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO files (id, owner_id, filename, content_type, size_bytes, storage_key, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(ctx, query,
		file.ID,
		file.OwnerID,
		file.Filename,
		file.ContentType,
		file.SizeBytes,
		file.StorageKey,
		file.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create file")
	}
	return nil
}

// GetByID retrieves a file by ID
func (r *PostgreSQLFileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.File, error) {
	querier := database.GetTx(ctx, r.db)

	query := fileSelectColumns + ` FROM files WHERE id = $1`
	return scanFile(querier.QueryRowContext(ctx, query, id))
}

// ListByOwner retrieves a user's own files, newest first
func (r *PostgreSQLFileRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*domain.File, error) {
	querier := database.GetTx(ctx, r.db)

	query := fileSelectColumns + ` FROM files WHERE owner_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list files")
	}
	defer rows.Close()

	return scanFiles(rows)
}

// CreateShare inserts a new share row. A second share for the same file and
// user violates the unique constraint and surfaces as a conflict.
func (r *PostgreSQLFileRepository) CreateShare(ctx context.Context, share *domain.FileShare) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO file_shares (id, file_id, user_id, wrapped_key, can_view, can_download, expires_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(ctx, query,
		share.ID,
		share.FileID,
		share.UserID,
		share.WrappedKey,
		share.CanView,
		share.CanDownload,
		share.ExpiresAt,
		share.CreatedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "share already exists")
		}
		return apperrors.Wrap(err, "failed to create file share")
	}
	return nil
}

// GetShare retrieves the share of a file for a user
func (r *PostgreSQLFileRepository) GetShare(ctx context.Context, fileID, userID uuid.UUID) (*domain.FileShare, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, file_id, user_id, wrapped_key, can_view, can_download, expires_at, created_at
			  FROM file_shares WHERE file_id = $1 AND user_id = $2`

	var share domain.FileShare
	err := querier.QueryRowContext(ctx, query, fileID, userID).Scan(
		&share.ID,
		&share.FileID,
		&share.UserID,
		&share.WrappedKey,
		&share.CanView,
		&share.CanDownload,
		&share.ExpiresAt,
		&share.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccessDenied
		}
		return nil, apperrors.Wrap(err, "failed to get file share")
	}
	return &share, nil
}

// ListSharedWith retrieves files shared with a user, newest share first
func (r *PostgreSQLFileRepository) ListSharedWith(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.File, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT f.id, f.owner_id, f.filename, f.content_type, f.size_bytes, f.storage_key, f.created_at
			  FROM files f
			  JOIN file_shares fs ON fs.file_id = f.id
			  WHERE fs.user_id = $1
			  ORDER BY fs.created_at DESC, fs.id DESC LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list shared files")
	}
	defer rows.Close()

	return scanFiles(rows)
}

const fileSelectColumns = `SELECT id, owner_id, filename, content_type, size_bytes, storage_key, created_at`

// scanFile reads a file row from a QueryRow result.
func scanFile(row *sql.Row) (*domain.File, error) {
	var file domain.File

	err := row.Scan(
		&file.ID,
		&file.OwnerID,
		&file.Filename,
		&file.ContentType,
		&file.SizeBytes,
		&file.StorageKey,
		&file.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFileNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get file")
	}
	return &file, nil
}

// scanFiles reads all file rows from a query result.
func scanFiles(rows *sql.Rows) ([]*domain.File, error) {
	var files []*domain.File
	for rows.Next() {
		var file domain.File
		err := rows.Scan(
			&file.ID,
			&file.OwnerID,
			&file.Filename,
			&file.ContentType,
			&file.SizeBytes,
			&file.StorageKey,
			&file.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan file")
		}
		files = append(files, &file)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate files")
	}
	return files, nil
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
