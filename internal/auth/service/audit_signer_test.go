package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
)

func testAuditEntry(userID *uuid.UUID) *authDomain.AuditLog {
	return &authDomain.AuditLog{
		ID:        uuid.Must(uuid.NewV7()),
		RequestID: uuid.Must(uuid.NewV7()),
		UserID:    userID,
		Action:    authDomain.AuditFileUpload,
		Resource:  "files/report.pdf",
		Metadata:  map[string]any{"size": 1024},
		CreatedAt: time.Now().UTC(),
	}
}

func TestAuditSigner_SignAndVerify(t *testing.T) {
	signer := NewAuditSigner([]byte("test-audit-signing-key"))

	userID := uuid.Must(uuid.NewV7())
	entry := testAuditEntry(&userID)

	sig, err := signer.Sign(nil, entry)
	require.NoError(t, err)
	assert.Len(t, sig, 32)

	entry.Signature = sig
	assert.NoError(t, signer.Verify(nil, entry))
}

func TestAuditSigner_NilUser(t *testing.T) {
	signer := NewAuditSigner([]byte("test-audit-signing-key"))

	entry := testAuditEntry(nil)
	sig, err := signer.Sign(nil, entry)
	require.NoError(t, err)

	entry.Signature = sig
	assert.NoError(t, signer.Verify(nil, entry))
}

func TestAuditSigner_TamperDetection(t *testing.T) {
	signer := NewAuditSigner([]byte("test-audit-signing-key"))

	userID := uuid.Must(uuid.NewV7())
	entry := testAuditEntry(&userID)

	sig, err := signer.Sign(nil, entry)
	require.NoError(t, err)
	entry.Signature = sig

	t.Run("modified action", func(t *testing.T) {
		tampered := *entry
		tampered.Action = authDomain.AuditFileAccess
		assert.ErrorIs(t, signer.Verify(nil, &tampered), authDomain.ErrSignatureInvalid)
	})

	t.Run("modified resource", func(t *testing.T) {
		tampered := *entry
		tampered.Resource = "files/other.pdf"
		assert.ErrorIs(t, signer.Verify(nil, &tampered), authDomain.ErrSignatureInvalid)
	})

	t.Run("modified signature", func(t *testing.T) {
		tampered := *entry
		tampered.Signature = append([]byte(nil), sig...)
		tampered.Signature[0] ^= 0xff
		assert.ErrorIs(t, signer.Verify(nil, &tampered), authDomain.ErrSignatureInvalid)
	})

	t.Run("different signing key", func(t *testing.T) {
		other := NewAuditSigner([]byte("another-key"))
		assert.ErrorIs(t, other.Verify(nil, entry), authDomain.ErrSignatureInvalid)
	})
}

func TestAuditSigner_Chain(t *testing.T) {
	signer := NewAuditSigner([]byte("test-audit-signing-key"))

	userID := uuid.Must(uuid.NewV7())
	first := testAuditEntry(&userID)
	second := testAuditEntry(&userID)

	firstSig, err := signer.Sign(nil, first)
	require.NoError(t, err)
	first.Signature = firstSig

	secondSig, err := signer.Sign(firstSig, second)
	require.NoError(t, err)
	second.Signature = secondSig

	assert.NoError(t, signer.Verify(nil, first))
	assert.NoError(t, signer.Verify(firstSig, second))

	// The second entry is only valid at its chain position.
	assert.ErrorIs(t, signer.Verify(nil, second), authDomain.ErrSignatureInvalid)
	assert.ErrorIs(t, signer.Verify(secondSig, second), authDomain.ErrSignatureInvalid)
}
