package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	authService "github.com/cryptshare/cryptshare/internal/auth/service"
	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
	cryptoService "github.com/cryptshare/cryptshare/internal/crypto/service"
	"github.com/cryptshare/cryptshare/internal/database"
	apperrors "github.com/cryptshare/cryptshare/internal/errors"
	"github.com/cryptshare/cryptshare/internal/file/domain"
	"github.com/cryptshare/cryptshare/internal/storage"
	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
	appValidation "github.com/cryptshare/cryptshare/internal/validation"
)

// maxFilenameLength bounds stored filenames.
const maxFilenameLength = 255

// UserDirectory resolves recipients. Implemented by the user repositories;
// declared here to keep the dependency narrow.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*userDomain.User, error)
}

// AuditRecorder records security events. Implemented by the auth audit log
// use case.
type AuditRecorder interface {
	Record(ctx context.Context, userID *uuid.UUID, action, resource string, metadata map[string]any) error
}

// FileUseCase implements the hybrid envelope upload and access flows.
type FileUseCase struct {
	txManager database.TxManager
	fileRepo  FileRepository
	users     UserDirectory
	secretBox cryptoService.SecretBox
	keyWrap   cryptoService.KeyWrapper
	blobs     storage.BlobStore
	tokens    authService.TokenService
	audit     AuditRecorder
	shareTTL  time.Duration
}

// NewFileUseCase creates a new FileUseCase.
func NewFileUseCase(
	txManager database.TxManager,
	fileRepo FileRepository,
	users UserDirectory,
	secretBox cryptoService.SecretBox,
	keyWrap cryptoService.KeyWrapper,
	blobs storage.BlobStore,
	tokens authService.TokenService,
	audit AuditRecorder,
	shareTTL time.Duration,
) UseCase {
	return &FileUseCase{
		txManager: txManager,
		fileRepo:  fileRepo,
		users:     users,
		secretBox: secretBox,
		keyWrap:   keyWrap,
		blobs:     blobs,
		tokens:    tokens,
		audit:     audit,
		shareTTL:  shareTTL,
	}
}

// validateUploadInput validates the upload parameters and the recipient
// permission invariant.
func (uc *FileUseCase) validateUploadInput(input UploadFileInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Filename,
			validation.Required.Error("filename is required"),
			appValidation.NotBlank,
			validation.Length(1, maxFilenameLength).Error("filename is too long"),
		),
		validation.Field(&input.Data,
			validation.Required.Error("file body is required"),
		),
		validation.Field(&input.FileKey,
			validation.Length(cryptoDomain.KeySize, cryptoDomain.KeySize).Error("file key must be 32 bytes"),
		),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}

	for _, recipient := range input.Recipients {
		share := domain.FileShare{CanView: recipient.CanView, CanDownload: recipient.CanDownload}
		if err := share.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Upload encrypts the body under the static server file key, writes the blob,
// wraps the per-file key for every resolvable recipient, and commits the
// metadata in one transaction. The file key is client-supplied when present
// and server-drawn otherwise. The share token is issued before any side
// effect, and the blob write happens before the transaction; a failed
// transaction triggers a compensating blob delete so no orphaned ciphertext
// survives a rolled-back upload.
func (uc *FileUseCase) Upload(ctx context.Context, owner *userDomain.User, input UploadFileInput) (*UploadFileOutput, error) {
	if err := uc.validateUploadInput(input); err != nil {
		return nil, err
	}

	fileID := uuid.Must(uuid.NewV7())
	file := &domain.File{
		ID:          fileID,
		OwnerID:     owner.ID,
		Filename:    strings.TrimSpace(input.Filename),
		ContentType: input.ContentType,
		SizeBytes:   int64(len(input.Data)),
		StorageKey:  fileID.String() + ".enc",
		CreatedAt:   time.Now().UTC(),
	}
	if file.ContentType == "" {
		file.ContentType = "application/octet-stream"
	}

	fileKey := make([]byte, cryptoDomain.KeySize)
	if len(input.FileKey) > 0 {
		copy(fileKey, input.FileKey)
	} else if _, err := rand.Read(fileKey); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate file key")
	}
	defer cryptoDomain.Zero(fileKey)

	shares, err := uc.buildShares(ctx, owner, file, fileKey, input.Recipients)
	if err != nil {
		return nil, err
	}

	shareToken, tokenExp, err := uc.issueShareToken(owner.ID, fileID)
	if err != nil {
		return nil, err
	}

	nonce, ciphertext, err := uc.secretBox.Encrypt(input.Data)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt file body")
	}
	blob := make([]byte, 0, len(nonce)+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	if err := uc.blobs.Put(ctx, file.StorageKey, blob); err != nil {
		return nil, apperrors.Wrap(err, "failed to store file body")
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.fileRepo.Create(ctx, file); err != nil {
			return err
		}
		for _, share := range shares {
			if err := uc.fileRepo.CreateShare(ctx, share); err != nil {
				return err
			}
		}
		return uc.audit.Record(ctx, &owner.ID, authDomain.AuditFileUpload, "files/"+file.ID.String(),
			map[string]any{"filename": file.Filename, "size_bytes": file.SizeBytes, "shares": len(shares)})
	})
	if err != nil {
		if delErr := uc.blobs.Delete(ctx, file.StorageKey); delErr != nil {
			return nil, apperrors.Wrap(errors.Join(err, delErr), "upload rolled back, blob delete failed")
		}
		return nil, err
	}

	return &UploadFileOutput{
		File:       file,
		Shares:     shares,
		ShareToken: shareToken,
		TokenExp:   tokenExp,
	}, nil
}

// buildShares wraps the file key for every resolvable recipient. Unknown
// emails and users without a public key are skipped silently; duplicates
// collapse to the first occurrence. An empty result falls back to the owner.
func (uc *FileUseCase) buildShares(
	ctx context.Context,
	owner *userDomain.User,
	file *domain.File,
	fileKey []byte,
	recipients []RecipientInput,
) ([]*domain.FileShare, error) {
	shares := make([]*domain.FileShare, 0, len(recipients))
	seen := make(map[uuid.UUID]bool, len(recipients))

	for _, recipient := range recipients {
		user, err := uc.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(recipient.Email)))
		if err != nil {
			if errors.Is(err, userDomain.ErrUserNotFound) {
				continue
			}
			return nil, apperrors.Wrap(err, "failed to resolve recipient")
		}
		if !user.HasPublicKey() || seen[user.ID] {
			continue
		}
		seen[user.ID] = true

		wrapped, err := uc.keyWrap.Wrap(user.PublicKey, fileKey)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to wrap file key")
		}

		shares = append(shares, &domain.FileShare{
			ID:          uuid.Must(uuid.NewV7()),
			FileID:      file.ID,
			UserID:      user.ID,
			WrappedKey:  wrapped,
			CanView:     recipient.CanView,
			CanDownload: recipient.CanDownload,
			ExpiresAt:   recipient.ExpiresAt,
			CreatedAt:   time.Now().UTC(),
		})
	}

	if len(shares) > 0 {
		return shares, nil
	}

	// Owner fallback keeps the upload useful when every recipient was
	// skipped or none were named.
	if !owner.HasPublicKey() {
		return nil, domain.ErrNoValidRecipients
	}

	wrapped, err := uc.keyWrap.Wrap(owner.PublicKey, fileKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to wrap file key for owner")
	}

	return []*domain.FileShare{{
		ID:          uuid.Must(uuid.NewV7()),
		FileID:      file.ID,
		UserID:      owner.ID,
		WrappedKey:  wrapped,
		CanView:     true,
		CanDownload: true,
		CreatedAt:   time.Now().UTC(),
	}}, nil
}

// Access resolves a share token and returns the decrypted body when the
// caller holds a live share permitting the action.
func (uc *FileUseCase) Access(
	ctx context.Context,
	shareToken string,
	caller *userDomain.User,
	action domain.AccessAction,
) (*AccessFileOutput, error) {
	claims, err := uc.tokens.Verify(shareToken, authDomain.PurposeFileShare)
	if err != nil {
		return nil, err
	}
	if claims.FileID == nil {
		return nil, authDomain.ErrInvalidToken
	}

	file, err := uc.fileRepo.GetByID(ctx, *claims.FileID)
	if err != nil {
		return nil, err
	}

	share, err := uc.fileRepo.GetShare(ctx, file.ID, caller.ID)
	if err != nil {
		return nil, err
	}

	if share.Expired(time.Now().UTC()) {
		return nil, domain.ErrShareExpired
	}
	if !share.Allows(action) {
		if action == domain.AccessDownload {
			return nil, domain.ErrDownloadNotPermitted
		}
		return nil, domain.ErrAccessDenied
	}

	blob, err := uc.blobs.Get(ctx, file.StorageKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read file body")
	}
	if len(blob) < cryptoDomain.NonceSize {
		return nil, apperrors.Wrap(cryptoDomain.ErrMalformedBlob, "stored file body too short")
	}

	plaintext, err := uc.secretBox.Decrypt(blob[:cryptoDomain.NonceSize], blob[cryptoDomain.NonceSize:])
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decrypt file body")
	}

	err = uc.audit.Record(ctx, &caller.ID, authDomain.AuditFileAccess, "files/"+file.ID.String(),
		map[string]any{"action": string(action)})
	if err != nil {
		return nil, err
	}

	return &AccessFileOutput{
		File:       file,
		Plaintext:  plaintext,
		WrappedKey: share.WrappedKey,
		Share:      share,
	}, nil
}

// ShareLink issues a fresh share token for a file the caller owns.
func (uc *FileUseCase) ShareLink(ctx context.Context, caller *userDomain.User, fileID uuid.UUID) (*ShareLinkOutput, error) {
	file, err := uc.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != caller.ID {
		return nil, domain.ErrAccessDenied
	}

	shareToken, tokenExp, err := uc.issueShareToken(caller.ID, fileID)
	if err != nil {
		return nil, err
	}

	return &ShareLinkOutput{ShareToken: shareToken, TokenExp: tokenExp}, nil
}

// ListOwn lists the caller's own files with pagination.
func (uc *FileUseCase) ListOwn(ctx context.Context, caller *userDomain.User, offset, limit int) ([]*domain.File, error) {
	files, err := uc.fileRepo.ListByOwner(ctx, caller.ID, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list files")
	}
	return files, nil
}

// ListShared lists files shared with the caller with pagination.
func (uc *FileUseCase) ListShared(ctx context.Context, caller *userDomain.User, offset, limit int) ([]*domain.File, error) {
	files, err := uc.fileRepo.ListSharedWith(ctx, caller.ID, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list shared files")
	}
	return files, nil
}

func (uc *FileUseCase) issueShareToken(subject, fileID uuid.UUID) (string, time.Time, error) {
	shareToken, err := uc.tokens.Issue(authService.Claims{
		Subject: subject,
		Purpose: authDomain.PurposeFileShare,
		FileID:  &fileID,
	}, uc.shareTTL)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(err, "failed to issue share token")
	}
	return shareToken, time.Now().UTC().Add(uc.shareTTL), nil
}
