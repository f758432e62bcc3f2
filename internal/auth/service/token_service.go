package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authDomain "github.com/cryptshare/cryptshare/internal/auth/domain"
)

// tokenClaims is the JWT payload. Purpose travels as a claim and is checked
// on verification in addition to the per-purpose secret selection.
type tokenClaims struct {
	Purpose string `json:"purpose"`
	FileID  string `json:"file_id,omitempty"`
	jwt.RegisteredClaims
}

// jwtTokenService implements TokenService using HS256 JWTs. Session tokens
// (mfa-pending, access) and share tokens are signed with different secrets,
// so a leaked share secret cannot mint sessions.
type jwtTokenService struct {
	authSecret  []byte
	shareSecret []byte
}

// NewJWTTokenService creates a TokenService from the two signing secrets.
func NewJWTTokenService(authSecret, shareSecret string) (TokenService, error) {
	if authSecret == "" {
		return nil, fmt.Errorf("auth token secret must not be empty")
	}
	if shareSecret == "" {
		return nil, fmt.Errorf("share token secret must not be empty")
	}
	return &jwtTokenService{
		authSecret:  []byte(authSecret),
		shareSecret: []byte(shareSecret),
	}, nil
}

// secretFor selects the signing secret by purpose.
func (s *jwtTokenService) secretFor(purpose authDomain.Purpose) ([]byte, error) {
	switch purpose {
	case authDomain.PurposeMFAPending, authDomain.PurposeAccess:
		return s.authSecret, nil
	case authDomain.PurposeFileShare:
		return s.shareSecret, nil
	default:
		return nil, fmt.Errorf("unknown token purpose: %s", purpose)
	}
}

// Issue creates a signed token for the claims, valid for ttl from now.
func (s *jwtTokenService) Issue(claims Claims, ttl time.Duration) (string, error) {
	secret, err := s.secretFor(claims.Purpose)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	payload := tokenClaims{
		Purpose: string(claims.Purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if claims.FileID != nil {
		payload.FileID = claims.FileID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and purpose.
func (s *jwtTokenService) Verify(token string, purpose authDomain.Purpose) (*Claims, error) {
	secret, err := s.secretFor(purpose)
	if err != nil {
		return nil, err
	}

	var payload tokenClaims
	_, err = jwt.ParseWithClaims(token, &payload, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		// Expiry is only reported when the signature checked out; every
		// other failure collapses into the generic invalid-token error.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, authDomain.ErrExpiredToken
		}
		return nil, authDomain.ErrInvalidToken
	}

	if payload.Purpose != string(purpose) {
		return nil, authDomain.ErrInvalidToken
	}

	subject, err := uuid.Parse(payload.Subject)
	if err != nil {
		return nil, authDomain.ErrInvalidToken
	}

	claims := &Claims{
		Subject: subject,
		Purpose: purpose,
	}
	if payload.FileID != "" {
		fileID, err := uuid.Parse(payload.FileID)
		if err != nil {
			return nil, authDomain.ErrInvalidToken
		}
		claims.FileID = &fileID
	}

	return claims, nil
}
