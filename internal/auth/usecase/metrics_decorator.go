package usecase

import (
	"context"
	"time"

	userDomain "github.com/cryptshare/cryptshare/internal/user/domain"

	"github.com/cryptshare/cryptshare/internal/metrics"
)

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Login records metrics for the password step.
func (a *authUseCaseWithMetrics) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	start := time.Now()
	output, err := a.next.Login(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "login", status)
	a.metrics.RecordDuration(ctx, "auth", "login", time.Since(start), status)

	return output, err
}

// ConfirmMFA records metrics for the TOTP confirmation step.
func (a *authUseCaseWithMetrics) ConfirmMFA(ctx context.Context, input ConfirmMFAInput) (*ConfirmMFAOutput, error) {
	start := time.Now()
	output, err := a.next.ConfirmMFA(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "mfa_confirm", status)
	a.metrics.RecordDuration(ctx, "auth", "mfa_confirm", time.Since(start), status)

	return output, err
}

// Authenticate records metrics for access token authentication.
func (a *authUseCaseWithMetrics) Authenticate(ctx context.Context, accessToken string) (*userDomain.User, error) {
	start := time.Now()
	user, err := a.next.Authenticate(ctx, accessToken)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "authenticate", status)
	a.metrics.RecordDuration(ctx, "auth", "authenticate", time.Since(start), status)

	return user, err
}
