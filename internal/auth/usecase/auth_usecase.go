package usecase

import (
	"context"
	"errors"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/go-pwdhash"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
	authService "github.com/cryptshare/cryptshare/internal/auth/service"
	cryptoService "github.com/cryptshare/cryptshare/internal/crypto/service"
	apperrors "github.com/cryptshare/cryptshare/internal/errors"
	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"
	appValidation "github.com/cryptshare/cryptshare/internal/validation"
)

// authUseCase implements the two-step login: password check issuing an
// mfa-pending token, then TOTP confirmation issuing the access token.
type authUseCase struct {
	userRepo   UserReader
	tokens     authService.TokenService
	totp       authService.TOTPService
	seedBox    cryptoService.SeedBox
	audit      AuditLogUseCase
	hasher     *pwdhash.PasswordHasher
	pendingTTL time.Duration
	accessTTL  time.Duration
}

// NewAuthUseCase creates a new AuthUseCase with the provided dependencies.
func NewAuthUseCase(
	userRepo UserReader,
	tokens authService.TokenService,
	totp authService.TOTPService,
	seedBox cryptoService.SeedBox,
	audit AuditLogUseCase,
	pendingTTL, accessTTL time.Duration,
) (AuthUseCase, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &authUseCase{
		userRepo:   userRepo,
		tokens:     tokens,
		totp:       totp,
		seedBox:    seedBox,
		audit:      audit,
		hasher:     hasher,
		pendingTTL: pendingTTL,
		accessTTL:  accessTTL,
	}, nil
}

// Login verifies the password and returns an mfa-pending token. Unknown
// emails and wrong passwords both map to ErrInvalidCredentials so responses
// do not reveal which accounts exist.
func (a *authUseCase) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email, validation.Required.Error("email is required"), appValidation.Email),
		validation.Field(&input.Password, validation.Required.Error("password is required")),
	)
	if err != nil {
		return nil, appValidation.WrapValidationError(err)
	}

	user, err := a.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(err, "failed to load user")
	}

	ok, err := a.hasher.Verify([]byte(input.Password), user.PasswordHash)
	if err != nil || !ok {
		return nil, authDomain.ErrInvalidCredentials
	}

	output := &LoginOutput{MFAEnabled: user.MFAEnabled}

	// Until the seed is confirmed a fresh one is provisioned on every login,
	// so a lost QR code never locks the account out.
	if !user.MFAEnabled {
		if err := a.provisionSeed(ctx, user, output); err != nil {
			return nil, err
		}
	}

	pendingToken, err := a.tokens.Issue(authService.Claims{
		Subject: user.ID,
		Purpose: authDomain.PurposeMFAPending,
	}, a.pendingTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to issue mfa-pending token")
	}
	output.PendingToken = pendingToken

	err = a.audit.Record(ctx, &user.ID, authDomain.AuditAuthLogin, "auth/login",
		map[string]any{"mfa_enabled": user.MFAEnabled})
	if err != nil {
		return nil, err
	}

	return output, nil
}

// provisionSeed generates a TOTP seed, stores it sealed under the server seed
// key, and fills the provisioning fields of the output.
func (a *authUseCase) provisionSeed(ctx context.Context, user *userDomain.User, output *LoginOutput) error {
	seed, otpauthURI, err := a.totp.GenerateSeed(user.Email)
	if err != nil {
		return apperrors.Wrap(err, "failed to generate totp seed")
	}

	sealed, err := a.seedBox.Seal(seed)
	if err != nil {
		return apperrors.Wrap(err, "failed to seal totp seed")
	}

	if err := a.userRepo.UpdateMFA(ctx, user.ID, &sealed, false); err != nil {
		return apperrors.Wrap(err, "failed to store totp seed")
	}
	user.MFASecret = &sealed

	qrImage, err := a.totp.QRImage(otpauthURI)
	if err != nil {
		return apperrors.Wrap(err, "failed to render qr code")
	}

	output.OTPAuthURI = otpauthURI
	output.QRImagePNG = qrImage
	return nil
}

// ConfirmMFA exchanges a pending token plus a valid TOTP code for an access
// token. The first successful confirmation flips MFA to enabled.
func (a *authUseCase) ConfirmMFA(ctx context.Context, input ConfirmMFAInput) (*ConfirmMFAOutput, error) {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.PendingToken, validation.Required.Error("token is required")),
		validation.Field(&input.Code, validation.Required.Error("code is required"), appValidation.TOTPCode),
	)
	if err != nil {
		return nil, appValidation.WrapValidationError(err)
	}

	claims, err := a.tokens.Verify(input.PendingToken, authDomain.PurposeMFAPending)
	if err != nil {
		return nil, err
	}

	user, err := a.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load user")
	}

	if user.MFASecret == nil {
		return nil, authDomain.ErrMFANotProvisioned
	}

	seed, err := a.seedBox.Open(*user.MFASecret)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open totp seed")
	}

	if !a.totp.Verify(input.Code, seed) {
		return nil, authDomain.ErrInvalidTOTPCode
	}

	firstConfirmation := !user.MFAEnabled
	if firstConfirmation {
		if err := a.userRepo.UpdateMFA(ctx, user.ID, user.MFASecret, true); err != nil {
			return nil, apperrors.Wrap(err, "failed to enable mfa")
		}
	}

	accessToken, err := a.tokens.Issue(authService.Claims{
		Subject: user.ID,
		Purpose: authDomain.PurposeAccess,
	}, a.accessTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to issue access token")
	}

	err = a.audit.Record(ctx, &user.ID, authDomain.AuditAuthMFAConfirm, "auth/mfa",
		map[string]any{"first_confirmation": firstConfirmation})
	if err != nil {
		return nil, err
	}

	return &ConfirmMFAOutput{
		AccessToken: accessToken,
		ExpiresIn:   int64(a.accessTTL.Seconds()),
	}, nil
}

// Authenticate resolves an access token to its user.
func (a *authUseCase) Authenticate(ctx context.Context, accessToken string) (*userDomain.User, error) {
	claims, err := a.tokens.Verify(accessToken, authDomain.PurposeAccess)
	if err != nil {
		return nil, err
	}

	user, err := a.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			return nil, authDomain.ErrInvalidToken
		}
		return nil, apperrors.Wrap(err, "failed to load user")
	}

	return user, nil
}
