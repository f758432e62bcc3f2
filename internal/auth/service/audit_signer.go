package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
)

type auditSigner struct {
	signingKey []byte
}

// NewAuditSigner creates an HMAC-based chained audit log signer. The
// application signing key is stretched with HKDF-SHA256 before use so the
// raw configured secret never touches the MAC directly.
func NewAuditSigner(signingKey []byte) AuditSigner {
	key := make([]byte, len(signingKey))
	copy(key, signingKey)
	return &auditSigner{signingKey: key}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key.
// Info parameter: "audit-chain-signing-v1" (versioned for future algorithm changes).
func (a *auditSigner) deriveSigningKey() ([]byte, error) {
	info := []byte("audit-chain-signing-v1")
	kdf := hkdf.New(sha256.New, a.signingKey, nil, info)

	derived := make([]byte, 32)
	if _, err := io.ReadFull(kdf, derived); err != nil {
		return nil, err
	}
	return derived, nil
}

// canonicalizeLog converts an audit log entry plus the previous signature to
// a canonical byte representation for signing.
// Format: prev || request_id || user_id || action || resource || metadata || created_at
// Uses length-prefixed encoding for variable-length fields to prevent ambiguity.
func (a *auditSigner) canonicalizeLog(prev []byte, log *authDomain.AuditLog) ([]byte, error) {
	buf := make([]byte, 0, 1024)

	buf = appendLengthPrefixed(buf, prev)

	buf = append(buf, log.RequestID[:]...)

	// Absent user (pre-authentication events) canonicalizes as the nil UUID.
	userID := uuid.Nil
	if log.UserID != nil {
		userID = *log.UserID
	}
	buf = append(buf, userID[:]...)

	buf = appendLengthPrefixed(buf, []byte(log.Action))
	buf = appendLengthPrefixed(buf, []byte(log.Resource))

	if log.Metadata != nil {
		metadataBytes, err := json.Marshal(log.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadataBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(log.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	dataLen := len(data)
	if dataLen > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(dataLen))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates the HMAC-SHA256 chain signature for the audit log entry.
func (a *auditSigner) Sign(prev []byte, log *authDomain.AuditLog) ([]byte, error) {
	signingKey, err := a.deriveSigningKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer cryptoDomain.Zero(signingKey)

	canonical, err := a.canonicalizeLog(prev, log)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize log: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks the stored signature against the entry content and chain position.
func (a *auditSigner) Verify(prev []byte, log *authDomain.AuditLog) error {
	expectedSig, err := a.Sign(prev, log)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(log.Signature, expectedSig) {
		return authDomain.ErrSignatureInvalid
	}
	return nil
}
