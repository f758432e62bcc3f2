package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/cryptshare/cryptshare/internal/database"
	"github.com/cryptshare/cryptshare/internal/file/domain"

	apperrors "github.com/cryptshare/cryptshare/internal/errors"
)

// MySQLFileRepository handles file and share persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLFileRepository struct {
	db *sql.DB
}

// NewMySQLFileRepository creates a new MySQLFileRepository
func NewMySQLFileRepository(db *sql.DB) *MySQLFileRepository {
	return &MySQLFileRepository{
		db: db,
	}
}

// Create inserts a new file metadata row
func (r *MySQLFileRepository) Create(ctx context.Context, file *domain.File) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := file.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode file id")
	}
	ownerBytes, err := file.OwnerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode owner id")
	}

	query := `INSERT INTO files (id, owner_id, filename, content_type, size_bytes, storage_key, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query,
		idBytes,
		ownerBytes,
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
func (r *MySQLFileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.File, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode file id")
	}

	query := fileSelectColumns + ` FROM files WHERE id = ?`

	var file domain.File
	var fileIDBytes, ownerIDBytes []byte
	err = querier.QueryRowContext(ctx, query, idBytes).Scan(
		&fileIDBytes,
		&ownerIDBytes,
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

	if err := decodeFileIDs(&file, fileIDBytes, ownerIDBytes); err != nil {
		return nil, err
	}
	return &file, nil
}

// ListByOwner retrieves a user's own files, newest first
func (r *MySQLFileRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*domain.File, error) {
	querier := database.GetTx(ctx, r.db)

	ownerBytes, err := ownerID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode owner id")
	}

	query := fileSelectColumns + ` FROM files WHERE owner_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, ownerBytes, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list files")
	}
	defer rows.Close()

	return scanMySQLFiles(rows)
}

// CreateShare inserts a new share row. A second share for the same file and
// user violates the unique constraint and surfaces as a conflict.
func (r *MySQLFileRepository) CreateShare(ctx context.Context, share *domain.FileShare) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := share.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode share id")
	}
	fileBytes, err := share.FileID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode file id")
	}
	userBytes, err := share.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode user id")
	}

	query := `INSERT INTO file_shares (id, file_id, user_id, wrapped_key, can_view, can_download, expires_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query,
		idBytes,
		fileBytes,
		userBytes,
		share.WrappedKey,
		share.CanView,
		share.CanDownload,
		share.ExpiresAt,
		share.CreatedAt,
	)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "share already exists")
		}
		return apperrors.Wrap(err, "failed to create file share")
	}
	return nil
}

// GetShare retrieves the share of a file for a user
func (r *MySQLFileRepository) GetShare(ctx context.Context, fileID, userID uuid.UUID) (*domain.FileShare, error) {
	querier := database.GetTx(ctx, r.db)

	fileBytes, err := fileID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode file id")
	}
	userBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode user id")
	}

	query := `SELECT id, file_id, user_id, wrapped_key, can_view, can_download, expires_at, created_at
			  FROM file_shares WHERE file_id = ? AND user_id = ?`

	var share domain.FileShare
	var idBytes, shareFileBytes, shareUserBytes []byte
	err = querier.QueryRowContext(ctx, query, fileBytes, userBytes).Scan(
		&idBytes,
		&shareFileBytes,
		&shareUserBytes,
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

	if share.ID, err = uuid.FromBytes(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode share id")
	}
	if share.FileID, err = uuid.FromBytes(shareFileBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode file id")
	}
	if share.UserID, err = uuid.FromBytes(shareUserBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode user id")
	}
	return &share, nil
}

// ListSharedWith retrieves files shared with a user, newest share first
func (r *MySQLFileRepository) ListSharedWith(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.File, error) {
	querier := database.GetTx(ctx, r.db)

	userBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode user id")
	}

	query := `SELECT f.id, f.owner_id, f.filename, f.content_type, f.size_bytes, f.storage_key, f.created_at
			  FROM files f
			  JOIN file_shares fs ON fs.file_id = f.id
			  WHERE fs.user_id = ?
			  ORDER BY fs.created_at DESC, fs.id DESC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, userBytes, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list shared files")
	}
	defer rows.Close()

	return scanMySQLFiles(rows)
}

// scanMySQLFiles reads all file rows, decoding BINARY(16) id columns.
func scanMySQLFiles(rows *sql.Rows) ([]*domain.File, error) {
	var files []*domain.File
	for rows.Next() {
		var file domain.File
		var fileIDBytes, ownerIDBytes []byte
		err := rows.Scan(
			&fileIDBytes,
			&ownerIDBytes,
			&file.Filename,
			&file.ContentType,
			&file.SizeBytes,
			&file.StorageKey,
			&file.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan file")
		}
		if err := decodeFileIDs(&file, fileIDBytes, ownerIDBytes); err != nil {
			return nil, err
		}
		files = append(files, &file)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate files")
	}
	return files, nil
}

func decodeFileIDs(file *domain.File, fileIDBytes, ownerIDBytes []byte) error {
	var err error
	if file.ID, err = uuid.FromBytes(fileIDBytes); err != nil {
		return apperrors.Wrap(err, "failed to decode file id")
	}
	if file.OwnerID, err = uuid.FromBytes(ownerIDBytes); err != nil {
		return apperrors.Wrap(err, "failed to decode owner id")
	}
	return nil
}

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate entry error
func isMySQLDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		// 1062 = ER_DUP_ENTRY
		return mysqlErr.Number == 1062
	}
	return false
}
