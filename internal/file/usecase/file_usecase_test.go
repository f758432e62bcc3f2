package usecase

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	authService "github.com/cryptshare/cryptshare/internal/auth/service"
	cryptoService "github.com/cryptshare/cryptshare/internal/crypto/service"
	apperrors "github.com/cryptshare/cryptshare/internal/errors"
	"github.com/cryptshare/cryptshare/internal/file/domain"
	"github.com/cryptshare/cryptshare/internal/storage"
	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
)

const (
	testAuthSecret  = "test-auth-secret-7f3a9c2e1b5d8406"
	testShareSecret = "test-share-secret-0d6b4e8a2c7f9135"
)

type fakeTxManager struct{}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memFileRepo struct {
	files      map[uuid.UUID]*domain.File
	shares     map[uuid.UUID]map[uuid.UUID]*domain.FileShare
	createErr  error
	shareErr   error
	createdCnt int
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{
		files:  make(map[uuid.UUID]*domain.File),
		shares: make(map[uuid.UUID]map[uuid.UUID]*domain.FileShare),
	}
}

func (r *memFileRepo) Create(_ context.Context, file *domain.File) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.createdCnt++
	r.files[file.ID] = file
	return nil
}

func (r *memFileRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.File, error) {
	file, ok := r.files[id]
	if !ok {
		return nil, domain.ErrFileNotFound
	}
	return file, nil
}

func (r *memFileRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, _, _ int) ([]*domain.File, error) {
	var files []*domain.File
	for _, file := range r.files {
		if file.OwnerID == ownerID {
			files = append(files, file)
		}
	}
	return files, nil
}

func (r *memFileRepo) CreateShare(_ context.Context, share *domain.FileShare) error {
	if r.shareErr != nil {
		return r.shareErr
	}
	if r.shares[share.FileID] == nil {
		r.shares[share.FileID] = make(map[uuid.UUID]*domain.FileShare)
	}
	r.shares[share.FileID][share.UserID] = share
	return nil
}

func (r *memFileRepo) GetShare(_ context.Context, fileID, userID uuid.UUID) (*domain.FileShare, error) {
	share, ok := r.shares[fileID][userID]
	if !ok {
		return nil, domain.ErrAccessDenied
	}
	return share, nil
}

func (r *memFileRepo) ListSharedWith(_ context.Context, userID uuid.UUID, _, _ int) ([]*domain.File, error) {
	var files []*domain.File
	for fileID, byUser := range r.shares {
		if _, ok := byUser[userID]; ok {
			if file, found := r.files[fileID]; found {
				files = append(files, file)
			}
		}
	}
	return files, nil
}

type memUserDirectory struct {
	byEmail map[string]*userDomain.User
}

func (d *memUserDirectory) GetByEmail(_ context.Context, email string) (*userDomain.User, error) {
	user, ok := d.byEmail[email]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	return user, nil
}

type memBlobStore struct {
	blobs   map[string][]byte
	putErr  error
	deletes []string
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Put(_ context.Context, key string, data []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.blobs[key] = data
	return nil
}

func (s *memBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return data, nil
}

func (s *memBlobStore) Delete(_ context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	delete(s.blobs, key)
	return nil
}

type auditEntry struct {
	action   string
	resource string
}

type recordingAudit struct {
	entries []auditEntry
	err     error
}

func (a *recordingAudit) Record(_ context.Context, _ *uuid.UUID, action, resource string, _ map[string]any) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, auditEntry{action: action, resource: resource})
	return nil
}

var (
	identityOnce sync.Once
	ownerKey     *rsa.PrivateKey
	recipientKey *rsa.PrivateKey
)

// testKeys returns two cached RSA keys. 2048 bits keeps test runtime sane
// while exercising the same OAEP path as production keys.
func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	identityOnce.Do(func() {
		var err error
		if ownerKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			t.Fatalf("generate owner key: %v", err)
		}
		if recipientKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			t.Fatalf("generate recipient key: %v", err)
		}
	})
	return ownerKey, recipientKey
}

// failingTokenService fails every issuance while delegating verification.
type failingTokenService struct {
	authService.TokenService
}

func (f *failingTokenService) Issue(authService.Claims, time.Duration) (string, error) {
	return "", assert.AnError
}

type fileTestEnv struct {
	useCase   UseCase
	repo      *memFileRepo
	users     *memUserDirectory
	blobs     *memBlobStore
	audit     *recordingAudit
	tokens    authService.TokenService
	wrapper   *cryptoService.OAEPKeyWrapper
	secretBox cryptoService.SecretBox

	owner        *userDomain.User
	recipient    *userDomain.User
	keylessOwner *userDomain.User
}

func newFileTestEnv(t *testing.T) *fileTestEnv {
	t.Helper()

	ownerPriv, recipientPriv := testKeys(t)
	identity := cryptoService.NewRSAIdentityService()

	ownerPub, err := identity.ExportPublic(&ownerPriv.PublicKey)
	require.NoError(t, err)
	recipientPub, err := identity.ExportPublic(&recipientPriv.PublicKey)
	require.NoError(t, err)

	owner := &userDomain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Username:  "alice",
		Email:     "alice@example.com",
		Role:      authDomain.RoleUser,
		PublicKey: ownerPub,
	}
	recipient := &userDomain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Username:  "bob",
		Email:     "bob@example.com",
		Role:      authDomain.RoleUser,
		PublicKey: recipientPub,
	}
	keylessOwner := &userDomain.User{
		ID:       uuid.Must(uuid.NewV7()),
		Username: "carol",
		Email:    "carol@example.com",
		Role:     authDomain.RoleUser,
	}

	fileKey := make([]byte, 32)
	for i := range fileKey {
		fileKey[i] = byte(i + 1)
	}
	secretBox, err := cryptoService.NewAESGCMBox(fileKey)
	require.NoError(t, err)

	tokens, err := authService.NewJWTTokenService(testAuthSecret, testShareSecret)
	require.NoError(t, err)

	env := &fileTestEnv{
		repo: newMemFileRepo(),
		users: &memUserDirectory{byEmail: map[string]*userDomain.User{
			owner.Email:        owner,
			recipient.Email:    recipient,
			keylessOwner.Email: keylessOwner,
		}},
		blobs:        newMemBlobStore(),
		audit:        &recordingAudit{},
		tokens:       tokens,
		wrapper:      cryptoService.NewOAEPKeyWrapper(identity),
		secretBox:    secretBox,
		owner:        owner,
		recipient:    recipient,
		keylessOwner: keylessOwner,
	}
	env.useCase = NewFileUseCase(
		&fakeTxManager{},
		env.repo,
		env.users,
		secretBox,
		env.wrapper,
		env.blobs,
		tokens,
		env.audit,
		30*time.Minute,
	)
	return env
}

func uploadInput(recipients ...RecipientInput) UploadFileInput {
	return UploadFileInput{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Data:        []byte("quarterly numbers, entirely confidential"),
		Recipients:  recipients,
	}
}

func TestFileUseCase_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("SkipsUnknownAndKeylessRecipients", func(t *testing.T) {
		env := newFileTestEnv(t)

		output, err := env.useCase.Upload(ctx, env.owner, uploadInput(
			RecipientInput{Email: "bob@example.com", CanView: true, CanDownload: true},
			RecipientInput{Email: "nobody@example.com", CanView: true},
			RecipientInput{Email: "carol@example.com", CanView: true},
		))
		require.NoError(t, err)

		require.Len(t, output.Shares, 1, "unknown and keyless recipients are skipped silently")
		assert.Equal(t, env.recipient.ID, output.Shares[0].UserID)
		assert.True(t, output.Shares[0].CanDownload)

		_, recipientPriv := testKeys(t)
		fileKey, err := env.wrapper.Unwrap(recipientPriv, output.Shares[0].WrappedKey)
		require.NoError(t, err)
		assert.Len(t, fileKey, 32)

		assert.Equal(t, output.File.ID.String()+".enc", output.File.StorageKey)
		assert.Contains(t, env.blobs.blobs, output.File.StorageKey)
		assert.NotEqual(t, string(env.blobs.blobs[output.File.StorageKey]), "quarterly numbers, entirely confidential")
		assert.NotEmpty(t, output.ShareToken)
	})

	t.Run("DuplicateRecipientsCollapse", func(t *testing.T) {
		env := newFileTestEnv(t)

		output, err := env.useCase.Upload(ctx, env.owner, uploadInput(
			RecipientInput{Email: "bob@example.com", CanView: true},
			RecipientInput{Email: "BOB@example.com", CanView: true, CanDownload: true},
		))
		require.NoError(t, err)

		require.Len(t, output.Shares, 1, "the first occurrence of a recipient wins")
		assert.False(t, output.Shares[0].CanDownload)
	})

	t.Run("OwnerFallbackWhenNoRecipients", func(t *testing.T) {
		env := newFileTestEnv(t)

		output, err := env.useCase.Upload(ctx, env.owner, uploadInput())
		require.NoError(t, err)

		require.Len(t, output.Shares, 1)
		assert.Equal(t, env.owner.ID, output.Shares[0].UserID)
		assert.True(t, output.Shares[0].CanView)
		assert.True(t, output.Shares[0].CanDownload)
		assert.Nil(t, output.Shares[0].ExpiresAt)
	})

	t.Run("OwnerFallbackWhenAllRecipientsSkipped", func(t *testing.T) {
		env := newFileTestEnv(t)

		output, err := env.useCase.Upload(ctx, env.owner, uploadInput(
			RecipientInput{Email: "nobody@example.com", CanView: true},
		))
		require.NoError(t, err)

		require.Len(t, output.Shares, 1)
		assert.Equal(t, env.owner.ID, output.Shares[0].UserID)
	})

	t.Run("KeylessOwnerFailsUpload", func(t *testing.T) {
		env := newFileTestEnv(t)

		_, err := env.useCase.Upload(ctx, env.keylessOwner, uploadInput(
			RecipientInput{Email: "nobody@example.com", CanView: true},
		))
		require.ErrorIs(t, err, domain.ErrNoValidRecipients)

		assert.Empty(t, env.repo.files, "no metadata rows survive a failed upload")
		assert.Empty(t, env.blobs.blobs, "no blob survives a failed upload")
	})

	t.Run("TransactionFailureDeletesBlob", func(t *testing.T) {
		env := newFileTestEnv(t)
		env.repo.createErr = assert.AnError

		_, err := env.useCase.Upload(ctx, env.owner, uploadInput())
		require.ErrorIs(t, err, assert.AnError)

		assert.Empty(t, env.blobs.blobs, "rolled-back upload removes the blob")
		assert.NotEmpty(t, env.blobs.deletes)
	})

	t.Run("AuditEntryRecorded", func(t *testing.T) {
		env := newFileTestEnv(t)

		output, err := env.useCase.Upload(ctx, env.owner, uploadInput())
		require.NoError(t, err)

		require.Len(t, env.audit.entries, 1)
		assert.Equal(t, authDomain.AuditFileUpload, env.audit.entries[0].action)
		assert.Equal(t, "files/"+output.File.ID.String(), env.audit.entries[0].resource)
	})

	t.Run("AuditFailureAbortsUpload", func(t *testing.T) {
		env := newFileTestEnv(t)
		env.audit.err = assert.AnError

		_, err := env.useCase.Upload(ctx, env.owner, uploadInput())
		require.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, env.blobs.blobs)
	})

	t.Run("ValidationErrors", func(t *testing.T) {
		env := newFileTestEnv(t)

		tests := []struct {
			name  string
			input UploadFileInput
		}{
			{
				name:  "missing filename",
				input: UploadFileInput{Data: []byte("x")},
			},
			{
				name:  "blank filename",
				input: UploadFileInput{Filename: "   ", Data: []byte("x")},
			},
			{
				name:  "empty body",
				input: UploadFileInput{Filename: "a.txt"},
			},
			{
				name: "download without view",
				input: UploadFileInput{
					Filename:   "a.txt",
					Data:       []byte("x"),
					Recipients: []RecipientInput{{Email: "bob@example.com", CanDownload: true}},
				},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := env.useCase.Upload(ctx, env.owner, tt.input)
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			})
		}
		assert.Empty(t, env.blobs.blobs, "invalid uploads never touch storage")
	})

	t.Run("ClientSuppliedFileKey", func(t *testing.T) {
		env := newFileTestEnv(t)

		clientKey := make([]byte, 32)
		for i := range clientKey {
			clientKey[i] = byte(0xA0 + i)
		}
		input := uploadInput(RecipientInput{Email: "bob@example.com", CanView: true, CanDownload: true})
		input.FileKey = append([]byte(nil), clientKey...)

		output, err := env.useCase.Upload(ctx, env.owner, input)
		require.NoError(t, err)

		require.Len(t, output.Shares, 1)
		_, recipientPriv := testKeys(t)
		unwrapped, err := env.wrapper.Unwrap(recipientPriv, output.Shares[0].WrappedKey)
		require.NoError(t, err)
		assert.Equal(t, clientKey, unwrapped, "recipients unwrap the key the client supplied")
	})

	t.Run("ClientSuppliedFileKeyWrongSize", func(t *testing.T) {
		env := newFileTestEnv(t)

		input := uploadInput()
		input.FileKey = make([]byte, 16)

		_, err := env.useCase.Upload(ctx, env.owner, input)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Empty(t, env.blobs.blobs)
	})

	t.Run("TokenFailureLeavesNoSideEffects", func(t *testing.T) {
		env := newFileTestEnv(t)
		useCase := NewFileUseCase(
			&fakeTxManager{},
			env.repo,
			env.users,
			env.secretBox,
			env.wrapper,
			env.blobs,
			&failingTokenService{TokenService: env.tokens},
			env.audit,
			30*time.Minute,
		)

		_, err := useCase.Upload(ctx, env.owner, uploadInput())
		require.ErrorIs(t, err, assert.AnError)

		assert.Empty(t, env.repo.files, "no metadata rows when token issuance fails")
		assert.Empty(t, env.blobs.blobs, "no blob when token issuance fails")
		assert.Empty(t, env.audit.entries)
	})

	t.Run("DefaultContentType", func(t *testing.T) {
		env := newFileTestEnv(t)

		input := uploadInput()
		input.ContentType = ""
		output, err := env.useCase.Upload(ctx, env.owner, input)
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", output.File.ContentType)
	})
}

func TestFileUseCase_Access(t *testing.T) {
	ctx := context.Background()

	upload := func(t *testing.T, env *fileTestEnv, recipients ...RecipientInput) *UploadFileOutput {
		t.Helper()
		output, err := env.useCase.Upload(ctx, env.owner, uploadInput(recipients...))
		require.NoError(t, err)
		return output
	}

	t.Run("RecipientRoundTrip", func(t *testing.T) {
		env := newFileTestEnv(t)
		uploaded := upload(t, env, RecipientInput{Email: "bob@example.com", CanView: true, CanDownload: true})

		output, err := env.useCase.Access(ctx, uploaded.ShareToken, env.recipient, domain.AccessDownload)
		require.NoError(t, err)

		assert.Equal(t, []byte("quarterly numbers, entirely confidential"), output.Plaintext)
		assert.Equal(t, uploaded.File.ID, output.File.ID)

		_, recipientPriv := testKeys(t)
		fileKey, err := env.wrapper.Unwrap(recipientPriv, output.WrappedKey)
		require.NoError(t, err)
		assert.Len(t, fileKey, 32, "the wrapped key stays wrapped on the server")

		require.Len(t, env.audit.entries, 2)
		assert.Equal(t, authDomain.AuditFileAccess, env.audit.entries[1].action)
	})

	t.Run("NoShareDeniesAccess", func(t *testing.T) {
		env := newFileTestEnv(t)
		uploaded := upload(t, env, RecipientInput{Email: "bob@example.com", CanView: true})

		_, err := env.useCase.Access(ctx, uploaded.ShareToken, env.keylessOwner, domain.AccessView)
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("ViewOnlyShareRejectsDownload", func(t *testing.T) {
		env := newFileTestEnv(t)
		uploaded := upload(t, env, RecipientInput{Email: "bob@example.com", CanView: true})

		_, err := env.useCase.Access(ctx, uploaded.ShareToken, env.recipient, domain.AccessDownload)
		assert.ErrorIs(t, err, domain.ErrDownloadNotPermitted)

		_, err = env.useCase.Access(ctx, uploaded.ShareToken, env.recipient, domain.AccessView)
		assert.NoError(t, err)
	})

	t.Run("ExpiredShare", func(t *testing.T) {
		env := newFileTestEnv(t)
		past := time.Now().UTC().Add(-time.Hour)
		uploaded := upload(t, env, RecipientInput{Email: "bob@example.com", CanView: true, ExpiresAt: &past})

		_, err := env.useCase.Access(ctx, uploaded.ShareToken, env.recipient, domain.AccessView)
		assert.ErrorIs(t, err, domain.ErrShareExpired)
	})

	t.Run("WrongPurposeTokenRejected", func(t *testing.T) {
		env := newFileTestEnv(t)
		upload(t, env, RecipientInput{Email: "bob@example.com", CanView: true})

		accessToken, err := env.tokens.Issue(authService.Claims{
			Subject: env.recipient.ID,
			Purpose: authDomain.PurposeAccess,
		}, time.Hour)
		require.NoError(t, err)

		_, err = env.useCase.Access(ctx, accessToken, env.recipient, domain.AccessView)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("ExpiredTokenIsForbidden", func(t *testing.T) {
		env := newFileTestEnv(t)
		uploaded := upload(t, env, RecipientInput{Email: "bob@example.com", CanView: true})

		expired, err := env.tokens.Issue(authService.Claims{
			Subject: env.owner.ID,
			Purpose: authDomain.PurposeFileShare,
			FileID:  &uploaded.File.ID,
		}, -time.Minute)
		require.NoError(t, err)

		_, err = env.useCase.Access(ctx, expired, env.recipient, domain.AccessView)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("TamperedBlobFailsDecryption", func(t *testing.T) {
		env := newFileTestEnv(t)
		uploaded := upload(t, env, RecipientInput{Email: "bob@example.com", CanView: true})

		blob := env.blobs.blobs[uploaded.File.StorageKey]
		blob[len(blob)-1] ^= 0x01

		_, err := env.useCase.Access(ctx, uploaded.ShareToken, env.recipient, domain.AccessView)
		assert.Error(t, err)
	})

	t.Run("MissingBlob", func(t *testing.T) {
		env := newFileTestEnv(t)
		uploaded := upload(t, env, RecipientInput{Email: "bob@example.com", CanView: true})

		delete(env.blobs.blobs, uploaded.File.StorageKey)

		_, err := env.useCase.Access(ctx, uploaded.ShareToken, env.recipient, domain.AccessView)
		assert.ErrorIs(t, err, storage.ErrBlobNotFound)
	})
}

func TestFileUseCase_ShareLink(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerGetsFreshToken", func(t *testing.T) {
		env := newFileTestEnv(t)
		uploaded, err := env.useCase.Upload(ctx, env.owner, uploadInput(
			RecipientInput{Email: "bob@example.com", CanView: true},
		))
		require.NoError(t, err)

		link, err := env.useCase.ShareLink(ctx, env.owner, uploaded.File.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, link.ShareToken)

		_, err = env.useCase.Access(ctx, link.ShareToken, env.recipient, domain.AccessView)
		assert.NoError(t, err, "a fresh link works for existing shares")
	})

	t.Run("NonOwnerDenied", func(t *testing.T) {
		env := newFileTestEnv(t)
		uploaded, err := env.useCase.Upload(ctx, env.owner, uploadInput())
		require.NoError(t, err)

		_, err = env.useCase.ShareLink(ctx, env.recipient, uploaded.File.ID)
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("UnknownFile", func(t *testing.T) {
		env := newFileTestEnv(t)

		_, err := env.useCase.ShareLink(ctx, env.owner, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, domain.ErrFileNotFound)
	})
}

func TestFileUseCase_Listings(t *testing.T) {
	ctx := context.Background()
	env := newFileTestEnv(t)

	uploaded, err := env.useCase.Upload(ctx, env.owner, uploadInput(
		RecipientInput{Email: "bob@example.com", CanView: true},
	))
	require.NoError(t, err)

	own, err := env.useCase.ListOwn(ctx, env.owner, 0, 50)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, uploaded.File.ID, own[0].ID)

	shared, err := env.useCase.ListShared(ctx, env.recipient, 0, 50)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, uploaded.File.ID, shared[0].ID)

	none, err := env.useCase.ListShared(ctx, env.keylessOwner, 0, 50)
	require.NoError(t, err)
	assert.Empty(t, none)
}
