// Package repository provides data persistence implementations for the auth context.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	"github.com/cryptshare/cryptshare/internal/database"
	apperrors "github.com/cryptshare/cryptshare/internal/errors"
)

// PostgreSQLAuditLogRepository implements audit log persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQLAuditLogRepository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

// Create inserts a new audit log entry. Handles nil metadata as database NULL.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, auditLog *authDomain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalMetadata(auditLog.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_logs (id, request_id, user_id, action, resource, metadata, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = querier.ExecContext(
		ctx,
		query,
		auditLog.ID,
		auditLog.RequestID,
		auditLog.UserID,
		auditLog.Action,
		auditLog.Resource,
		metadataJSON,
		auditLog.Signature,
		auditLog.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}

	return nil
}

// List retrieves audit logs ordered by ID descending (newest first) with pagination.
func (p *PostgreSQLAuditLogRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error) {
	return p.list(ctx, "DESC", offset, limit)
}

// ListAsc retrieves audit logs in chain order (oldest first) with pagination.
func (p *PostgreSQLAuditLogRepository) ListAsc(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error) {
	return p.list(ctx, "ASC", offset, limit)
}

func (p *PostgreSQLAuditLogRepository) list(ctx context.Context, order string, offset, limit int) ([]*authDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, request_id, user_id, action, resource, metadata, signature, created_at
			  FROM audit_logs
			  ORDER BY id ` + order + `
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	auditLogs := make([]*authDomain.AuditLog, 0)
	for rows.Next() {
		var (
			auditLog     authDomain.AuditLog
			userID       uuid.NullUUID
			metadataJSON []byte
		)

		err := rows.Scan(
			&auditLog.ID,
			&auditLog.RequestID,
			&userID,
			&auditLog.Action,
			&auditLog.Resource,
			&metadataJSON,
			&auditLog.Signature,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}

		if userID.Valid {
			id := userID.UUID
			auditLog.UserID = &id
		}

		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &auditLog.Metadata); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal audit log metadata")
			}
		}

		auditLogs = append(auditLogs, &auditLog)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}

	return auditLogs, nil
}

// GetLastSignature returns the signature of the newest entry, or nil when the
// audit log is empty.
func (p *PostgreSQLAuditLogRepository) GetLastSignature(ctx context.Context) ([]byte, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT signature FROM audit_logs ORDER BY id DESC LIMIT 1`

	var signature []byte
	err := querier.QueryRowContext(ctx, query).Scan(&signature)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to get last audit log signature")
	}

	return signature, nil
}

// marshalMetadata serializes metadata to JSON, mapping nil to database NULL.
func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit log metadata")
	}
	return metadataJSON, nil
}
