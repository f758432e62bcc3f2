package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the application.
const (
	AuditUserRegister   = "user.register"
	AuditAuthLogin      = "auth.login"
	AuditAuthMFAConfirm = "auth.mfa_confirm"
	AuditFileUpload     = "file.upload"
	AuditFileAccess     = "file.access"
)

// AuditLog records a security-relevant event. Each entry carries an
// HMAC-SHA256 signature computed over its content and the signature of the
// previous entry, forming a chain: removing or reordering rows breaks
// verification from that point on.
type AuditLog struct {
	ID        uuid.UUID
	RequestID uuid.UUID
	UserID    *uuid.UUID
	Action    string
	Resource  string
	Metadata  map[string]any
	Signature []byte
	CreatedAt time.Time
}
