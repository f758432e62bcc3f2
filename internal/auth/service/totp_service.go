package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod      = 30
	qrImageSizePx   = 256
	dataURIPNGImage = "data:image/png;base64,"
)

// totpService implements TOTPService using RFC 6238 TOTP with 30-second
// steps and 6-digit codes.
type totpService struct {
	issuer string
	skew   uint
}

// NewTOTPService creates a TOTPService. skewSteps widens verification by
// that many steps on each side of the current one; 0 accepts only the
// current step, 1 tolerates up to 30 seconds of clock drift.
func NewTOTPService(issuer string, skewSteps int) TOTPService {
	if skewSteps < 0 {
		skewSteps = 0
	}
	return &totpService{
		issuer: issuer,
		skew:   uint(skewSteps),
	}
}

// GenerateSeed creates a fresh random seed and provisioning URI for the account.
func (s *totpService) GenerateSeed(account string) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: account,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate totp seed: %w", err)
	}
	return key.Secret(), key.String(), nil
}

// QRImage renders the provisioning URI as a PNG QR code data URI.
func (s *totpService) QRImage(uri string) (string, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse provisioning uri: %w", err)
	}

	img, err := key.Image(qrImageSizePx, qrImageSizePx)
	if err != nil {
		return "", fmt.Errorf("failed to render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode qr code png: %w", err)
	}

	return dataURIPNGImage + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Verify reports whether the code matches the seed within the configured skew.
func (s *totpService) Verify(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      s.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return ok
}
