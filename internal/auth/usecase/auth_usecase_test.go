package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/allisson/go-pwdhash"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	authService "github.com/cryptshare/cryptshare/internal/auth/service"
	cryptoService "github.com/cryptshare/cryptshare/internal/crypto/service"
	apperrors "github.com/cryptshare/cryptshare/internal/errors"
	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
)

const (
	testAuthSecret  = "test-auth-secret-for-hs256-signing"
	testShareSecret = "test-share-secret-for-hs256-signing"
	testPassword    = "Sup3r$ecret!"
)

type memUserReader struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userDomain.User
}

func newMemUserReader() *memUserReader {
	return &memUserReader{users: make(map[uuid.UUID]*userDomain.User)}
}

func (r *memUserReader) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserReader) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, userDomain.ErrUserNotFound
}

func (r *memUserReader) UpdateMFA(ctx context.Context, id uuid.UUID, mfaSecret *string, mfaEnabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return userDomain.ErrUserNotFound
	}
	user.MFASecret = mfaSecret
	user.MFAEnabled = mfaEnabled
	return nil
}

type recordedAudit struct {
	userID   *uuid.UUID
	action   string
	resource string
	metadata map[string]any
}

// fakeAuditLog satisfies AuditLogUseCase and just remembers what was recorded.
type fakeAuditLog struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func (f *fakeAuditLog) Record(ctx context.Context, userID *uuid.UUID, action, resource string, metadata map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, recordedAudit{userID: userID, action: action, resource: resource, metadata: metadata})
	return nil
}

func (f *fakeAuditLog) List(ctx context.Context, offset, limit int) ([]*authDomain.AuditLog, error) {
	return nil, nil
}

func (f *fakeAuditLog) VerifyChain(ctx context.Context) (int, error) {
	return 0, nil
}

func (f *fakeAuditLog) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	actions := make([]string, 0, len(f.entries))
	for _, entry := range f.entries {
		actions = append(actions, entry.action)
	}
	return actions
}

type authTestEnv struct {
	uc      AuthUseCase
	users   *memUserReader
	tokens  authService.TokenService
	seedBox cryptoService.SeedBox
	audit   *fakeAuditLog
	user    *userDomain.User
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()

	users := newMemUserReader()
	audit := &fakeAuditLog{}

	tokens, err := authService.NewJWTTokenService(testAuthSecret, testShareSecret)
	require.NoError(t, err)

	totpSvc := authService.NewTOTPService("Cryptshare", 1)

	seedKey := make([]byte, 32)
	for i := range seedKey {
		seedKey[i] = byte(i)
	}
	seedBox, err := cryptoService.NewAEADSeedBox(seedKey)
	require.NoError(t, err)

	uc, err := NewAuthUseCase(users, tokens, totpSvc, seedBox, audit, 5*time.Minute, time.Hour)
	require.NoError(t, err)

	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	require.NoError(t, err)
	passwordHash, err := hasher.Hash([]byte(testPassword))
	require.NoError(t, err)

	user := &userDomain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: passwordHash,
		Role:         authDomain.RoleUser,
	}
	users.users[user.ID] = user

	return &authTestEnv{
		uc:      uc,
		users:   users,
		tokens:  tokens,
		seedBox: seedBox,
		audit:   audit,
		user:    user,
	}
}

// currentCode opens the user's sealed seed and computes the TOTP code for now.
func (e *authTestEnv) currentCode(t *testing.T) string {
	t.Helper()

	stored, err := e.users.GetByID(context.Background(), e.user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.MFASecret)

	seed, err := e.seedBox.Open(*stored.MFASecret)
	require.NoError(t, err)

	code, err := totp.GenerateCode(seed, time.Now())
	require.NoError(t, err)
	return code
}

func TestAuthUseCase_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		env := newAuthTestEnv(t)

		_, err := env.uc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: testPassword})
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredentials)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("wrong password", func(t *testing.T) {
		env := newAuthTestEnv(t)

		_, err := env.uc.Login(ctx, LoginInput{Email: env.user.Email, Password: "Wr0ng$ecret!"})
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		env := newAuthTestEnv(t)

		_, err := env.uc.Login(ctx, LoginInput{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("first login provisions totp seed", func(t *testing.T) {
		env := newAuthTestEnv(t)

		output, err := env.uc.Login(ctx, LoginInput{Email: env.user.Email, Password: testPassword})
		require.NoError(t, err)

		assert.NotEmpty(t, output.PendingToken)
		assert.False(t, output.MFAEnabled)
		assert.True(t, strings.HasPrefix(output.OTPAuthURI, "otpauth://totp/"))
		assert.True(t, strings.HasPrefix(output.QRImagePNG, "data:image/png;base64,"))

		stored, err := env.users.GetByID(ctx, env.user.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.MFASecret)
		assert.False(t, stored.MFAEnabled)

		// The stored seed is sealed, never the raw base32 secret.
		assert.NotContains(t, output.OTPAuthURI, *stored.MFASecret)

		assert.Equal(t, []string{authDomain.AuditAuthLogin}, env.audit.actions())
	})

	t.Run("pending token is not an access token", func(t *testing.T) {
		env := newAuthTestEnv(t)

		output, err := env.uc.Login(ctx, LoginInput{Email: env.user.Email, Password: testPassword})
		require.NoError(t, err)

		_, err = env.uc.Authenticate(ctx, output.PendingToken)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})

	t.Run("enabled mfa skips provisioning", func(t *testing.T) {
		env := newAuthTestEnv(t)

		sealed, err := env.seedBox.Seal("JBSWY3DPEHPK3PXP")
		require.NoError(t, err)
		require.NoError(t, env.users.UpdateMFA(ctx, env.user.ID, &sealed, true))

		output, err := env.uc.Login(ctx, LoginInput{Email: env.user.Email, Password: testPassword})
		require.NoError(t, err)

		assert.True(t, output.MFAEnabled)
		assert.Empty(t, output.OTPAuthURI)
		assert.Empty(t, output.QRImagePNG)

		stored, err := env.users.GetByID(ctx, env.user.ID)
		require.NoError(t, err)
		assert.Equal(t, sealed, *stored.MFASecret, "confirmed seed is never rotated")
	})
}

func TestAuthUseCase_ConfirmMFA(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, env *authTestEnv) *LoginOutput {
		t.Helper()
		output, err := env.uc.Login(ctx, LoginInput{Email: env.user.Email, Password: testPassword})
		require.NoError(t, err)
		return output
	}

	t.Run("valid code establishes session and enables mfa", func(t *testing.T) {
		env := newAuthTestEnv(t)
		output := login(t, env)

		confirmed, err := env.uc.ConfirmMFA(ctx, ConfirmMFAInput{
			PendingToken: output.PendingToken,
			Code:         env.currentCode(t),
		})
		require.NoError(t, err)

		assert.NotEmpty(t, confirmed.AccessToken)
		assert.Equal(t, int64(3600), confirmed.ExpiresIn)

		stored, err := env.users.GetByID(ctx, env.user.ID)
		require.NoError(t, err)
		assert.True(t, stored.MFAEnabled)

		user, err := env.uc.Authenticate(ctx, confirmed.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, env.user.ID, user.ID)

		assert.Equal(t,
			[]string{authDomain.AuditAuthLogin, authDomain.AuditAuthMFAConfirm},
			env.audit.actions())
	})

	t.Run("wrong code", func(t *testing.T) {
		env := newAuthTestEnv(t)
		output := login(t, env)

		_, err := env.uc.ConfirmMFA(ctx, ConfirmMFAInput{
			PendingToken: output.PendingToken,
			Code:         "000000",
		})
		assert.ErrorIs(t, err, authDomain.ErrInvalidTOTPCode)
	})

	t.Run("malformed code", func(t *testing.T) {
		env := newAuthTestEnv(t)
		output := login(t, env)

		_, err := env.uc.ConfirmMFA(ctx, ConfirmMFAInput{
			PendingToken: output.PendingToken,
			Code:         "abc123",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("access token rejected as pending token", func(t *testing.T) {
		env := newAuthTestEnv(t)
		output := login(t, env)

		confirmed, err := env.uc.ConfirmMFA(ctx, ConfirmMFAInput{
			PendingToken: output.PendingToken,
			Code:         env.currentCode(t),
		})
		require.NoError(t, err)

		_, err = env.uc.ConfirmMFA(ctx, ConfirmMFAInput{
			PendingToken: confirmed.AccessToken,
			Code:         env.currentCode(t),
		})
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})

	t.Run("expired pending token", func(t *testing.T) {
		env := newAuthTestEnv(t)
		login(t, env)

		expired, err := env.tokens.Issue(authService.Claims{
			Subject: env.user.ID,
			Purpose: authDomain.PurposeMFAPending,
		}, -time.Minute)
		require.NoError(t, err)

		_, err = env.uc.ConfirmMFA(ctx, ConfirmMFAInput{
			PendingToken: expired,
			Code:         env.currentCode(t),
		})
		assert.ErrorIs(t, err, authDomain.ErrExpiredToken)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("unprovisioned user", func(t *testing.T) {
		env := newAuthTestEnv(t)

		pending, err := env.tokens.Issue(authService.Claims{
			Subject: env.user.ID,
			Purpose: authDomain.PurposeMFAPending,
		}, time.Minute)
		require.NoError(t, err)

		_, err = env.uc.ConfirmMFA(ctx, ConfirmMFAInput{
			PendingToken: pending,
			Code:         "123456",
		})
		assert.ErrorIs(t, err, authDomain.ErrMFANotProvisioned)
	})
}

func TestAuthUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("garbage token", func(t *testing.T) {
		env := newAuthTestEnv(t)

		_, err := env.uc.Authenticate(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		env := newAuthTestEnv(t)

		accessToken, err := env.tokens.Issue(authService.Claims{
			Subject: uuid.Must(uuid.NewV7()),
			Purpose: authDomain.PurposeAccess,
		}, time.Minute)
		require.NoError(t, err)

		_, err = env.uc.Authenticate(ctx, accessToken)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})
}
