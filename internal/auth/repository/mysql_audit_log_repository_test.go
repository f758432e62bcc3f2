package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	"github.com/cryptshare/cryptshare/internal/testutil"
)

func TestMySQLAuditLogRepository(t *testing.T) {
	testutil.SkipIfNoMySQL(t)

	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLAuditLogRepository(db)
	ctx := context.Background()

	userID := testutil.CreateTestUser(t, db, "mysql", "audit-user")

	first := testAuditLog(&userID, authDomain.AuditAuthLogin, []byte("sig-1"))
	second := testAuditLog(nil, authDomain.AuditFileAccess, []byte("sig-2"))
	second.Metadata = nil

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	t.Run("round trip", func(t *testing.T) {
		logs, err := repo.ListAsc(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, logs, 2)

		assert.Equal(t, first.ID, logs[0].ID)
		assert.Equal(t, first.RequestID, logs[0].RequestID)
		require.NotNil(t, logs[0].UserID)
		assert.Equal(t, userID, *logs[0].UserID)
		assert.Equal(t, first.Metadata, logs[0].Metadata)
		assert.Equal(t, []byte("sig-1"), logs[0].Signature)

		assert.Nil(t, logs[1].UserID)
		assert.Nil(t, logs[1].Metadata)
	})

	t.Run("list newest first", func(t *testing.T) {
		logs, err := repo.List(ctx, 0, 1)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, second.ID, logs[0].ID)
	})

	t.Run("last signature", func(t *testing.T) {
		signature, err := repo.GetLastSignature(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("sig-2"), signature)
	})
}
