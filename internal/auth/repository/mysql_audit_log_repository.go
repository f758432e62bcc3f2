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

// MySQLAuditLogRepository implements audit log persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// NewMySQLAuditLogRepository creates a new MySQLAuditLogRepository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}

// Create inserts a new audit log entry. Handles nil metadata as database NULL.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, auditLog *authDomain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	metadataJSON, err := marshalMetadata(auditLog.Metadata)
	if err != nil {
		return err
	}

	idBytes, err := auditLog.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log id")
	}

	requestIDBytes, err := auditLog.RequestID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal request id")
	}

	var userIDBytes []byte
	if auditLog.UserID != nil {
		userIDBytes, err = auditLog.UserID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal user id")
		}
	}

	query := `INSERT INTO audit_logs (id, request_id, user_id, action, resource, metadata, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		requestIDBytes,
		userIDBytes,
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
func (m *MySQLAuditLogRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error) {
	return m.list(ctx, "DESC", offset, limit)
}

// ListAsc retrieves audit logs in chain order (oldest first) with pagination.
func (m *MySQLAuditLogRepository) ListAsc(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error) {
	return m.list(ctx, "ASC", offset, limit)
}

func (m *MySQLAuditLogRepository) list(ctx context.Context, order string, offset, limit int) ([]*authDomain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, request_id, user_id, action, resource, metadata, signature, created_at
			  FROM audit_logs
			  ORDER BY id ` + order + `
			  LIMIT ? OFFSET ?`

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
			auditLog       authDomain.AuditLog
			idBytes        []byte
			requestIDBytes []byte
			userIDBytes    []byte
			metadataJSON   []byte
		)

		err := rows.Scan(
			&idBytes,
			&requestIDBytes,
			&userIDBytes,
			&auditLog.Action,
			&auditLog.Resource,
			&metadataJSON,
			&auditLog.Signature,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}

		if auditLog.ID, err = uuid.FromBytes(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse audit log id")
		}
		if auditLog.RequestID, err = uuid.FromBytes(requestIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse request id")
		}
		if userIDBytes != nil {
			userID, err := uuid.FromBytes(userIDBytes)
			if err != nil {
				return nil, apperrors.Wrap(err, "failed to parse user id")
			}
			auditLog.UserID = &userID
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
func (m *MySQLAuditLogRepository) GetLastSignature(ctx context.Context) ([]byte, error) {
	querier := database.GetTx(ctx, m.db)

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
