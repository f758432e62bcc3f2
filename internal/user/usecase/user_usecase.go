// Package usecase implements the user business logic and orchestrates user domain operations.
package usecase

import (
	"context"
	"crypto/rsa"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/allisson/go-pwdhash"
	"github.com/google/uuid"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
	cryptoService "github.com/cryptshare/cryptshare/internal/crypto/service"
	"github.com/cryptshare/cryptshare/internal/database"
	apperrors "github.com/cryptshare/cryptshare/internal/errors"
	"github.com/cryptshare/cryptshare/internal/user/domain"
	appValidation "github.com/cryptshare/cryptshare/internal/validation"
)

// RegisterUserInput contains the input data for user registration.
// MasterPassword seals the generated private key and is independent from the
// login password: losing it makes the private key unrecoverable.
type RegisterUserInput struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	MasterPassword string `json:"master_password"`
	Role           string `json:"role"`
}

// UseCase defines the interface for user business logic operations
type UseCase interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// UserRepository interface defines user repository operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// KeyGenerator produces RSA identities, normally backed by the bounded
// keygen pool so concurrent registrations do not pile up keygen work.
type KeyGenerator interface {
	Generate(ctx context.Context) (*rsa.PrivateKey, error)
}

// AuditRecorder records security events. Implemented by the auth audit log
// use case; declared here so the user context depends on behavior, not on
// the auth package wiring.
type AuditRecorder interface {
	Record(ctx context.Context, userID *uuid.UUID, action, resource string, metadata map[string]any) error
}

// UserUseCase handles user-related business logic
type UserUseCase struct {
	txManager      database.TxManager
	userRepo       UserRepository
	keygen         KeyGenerator
	identity       cryptoService.IdentityService
	vault          cryptoService.Vault
	audit          AuditRecorder
	passwordHasher *pwdhash.PasswordHasher
}

// NewUserUseCase creates a new UserUseCase
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	keygen KeyGenerator,
	identity cryptoService.IdentityService,
	vault cryptoService.Vault,
	audit AuditRecorder,
) (UseCase, error) {
	// Initialize password hasher with interactive policy for user passwords
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &UserUseCase{
		txManager:      txManager,
		userRepo:       userRepo,
		keygen:         keygen,
		identity:       identity,
		vault:          vault,
		audit:          audit,
		passwordHasher: hasher,
	}, nil
}

// validateRegisterUserInput validates the registration input using jellydator/validation.
// Both passwords must meet the strength policy; the master password seals
// the private key vault and deserves at least the same bar as the login one.
func (uc *UserUseCase) validateRegisterUserInput(input RegisterUserInput) error {
	passwordRules := []validation.Rule{
		validation.Required.Error("password is required"),
		validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
		appValidation.PasswordStrength{
			MinLength:      8,
			RequireUpper:   true,
			RequireLower:   true,
			RequireNumber:  true,
			RequireSpecial: true,
		},
	}

	err := validation.ValidateStruct(&input,
		validation.Field(&input.Username,
			validation.Required.Error("username is required"),
			appValidation.NotBlank,
			appValidation.Username,
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Password, passwordRules...),
		validation.Field(&input.MasterPassword, passwordRules...),
		validation.Field(&input.Role,
			validation.By(func(value interface{}) error {
				role, _ := value.(string)
				if role == "" {
					return nil // defaults to user
				}
				if !authDomain.Role(role).Valid() {
					return validation.NewError("validation_role", "must be one of admin, user, guest")
				}
				return nil
			}),
		),
	)
	return appValidation.WrapValidationError(err)
}

// RegisterUser registers a new user: hashes both passwords, generates the
// RSA identity and stores the private key sealed under the master password.
// The plain master password is used once for sealing and never persisted.
func (uc *UserUseCase) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	if err := uc.validateRegisterUserInput(input); err != nil {
		return nil, err
	}

	hashedPassword, err := uc.passwordHasher.Hash([]byte(input.Password))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	hashedMasterPassword, err := uc.passwordHasher.Hash([]byte(input.MasterPassword))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash master password")
	}

	privateKey, err := uc.keygen.Generate(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate identity keypair")
	}

	publicKeyPEM, err := uc.identity.ExportPublic(&privateKey.PublicKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to export public key")
	}

	privateKeyDER, err := uc.identity.ExportPrivate(privateKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to export private key")
	}
	defer cryptoDomain.Zero(privateKeyDER)

	vaultBlob, err := uc.vault.Seal(privateKeyDER, input.MasterPassword)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to seal private key vault")
	}

	role := authDomain.Role(input.Role)
	if input.Role == "" {
		role = authDomain.RoleUser
	}

	user := &domain.User{
		ID:                 uuid.Must(uuid.NewV7()),
		Username:           strings.TrimSpace(input.Username),
		Email:              strings.TrimSpace(strings.ToLower(input.Email)),
		PasswordHash:       hashedPassword,
		MasterPasswordHash: hashedMasterPassword,
		Role:               role,
		PublicKey:          publicKeyPEM,
		PrivateKeyVault:    vaultBlob,
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return err
		}

		return uc.audit.Record(ctx, &user.ID,
			authDomain.AuditUserRegister, "users/"+user.Username,
			map[string]any{"role": string(user.Role)})
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (uc *UserUseCase) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.userRepo.GetByEmail(ctx, email)
}

// GetUserByID retrieves a user by ID
func (uc *UserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}
