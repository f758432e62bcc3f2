// Package dto provides request and response structures for file endpoints.
package dto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/jellydator/validation"
	"github.com/jellydator/validation/is"

	cryptoDomain "github.com/cryptshare/cryptshare/internal/crypto/domain"
	apperrors "github.com/cryptshare/cryptshare/internal/errors"
	"github.com/cryptshare/cryptshare/internal/file/usecase"
	appValidation "github.com/cryptshare/cryptshare/internal/validation"
)

// UploadRecipient names one recipient in the multipart "recipients" field.
type UploadRecipient struct {
	Email       string     `json:"email"`
	CanView     bool       `json:"can_view"`
	CanDownload bool       `json:"can_download"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Validate validates an upload recipient entry. Permission consistency is
// enforced by the use case; only the email shape is checked here.
func (r UploadRecipient) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("must be a valid email address"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// ParseRecipients decodes the optional JSON recipients field of an upload.
// An empty field means no recipients and triggers the owner fallback.
func ParseRecipients(raw string) ([]usecase.RecipientInput, error) {
	if raw == "" {
		return nil, nil
	}

	var recipients []UploadRecipient
	if err := json.Unmarshal([]byte(raw), &recipients); err != nil {
		return nil, err
	}

	inputs := make([]usecase.RecipientInput, 0, len(recipients))
	for _, recipient := range recipients {
		if err := recipient.Validate(); err != nil {
			return nil, err
		}
		inputs = append(inputs, usecase.RecipientInput{
			Email:       recipient.Email,
			CanView:     recipient.CanView,
			CanDownload: recipient.CanDownload,
			ExpiresAt:   recipient.ExpiresAt,
		})
	}
	return inputs, nil
}

// ParseFileKey decodes the optional base64 file_symmetric_key field of an
// upload. An empty field means the server draws a random file key. A present
// field must decode to exactly one file key worth of bytes.
func ParseFileKey(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}

	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "file_symmetric_key must be valid base64")
	}
	if len(key) != cryptoDomain.KeySize {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput,
			fmt.Sprintf("file_symmetric_key must decode to %d bytes", cryptoDomain.KeySize))
	}
	return key, nil
}
