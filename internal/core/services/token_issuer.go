package services

import (
	"fmt"
	"time"

	"donorhub/internal/core/domain"
	"donorhub/internal/pkg/jwt"

	"github.com/google/uuid"
)

// Fixed lifetimes of the single-purpose tokens
const (
	PasswordResetTTL     = time.Hour
	EmailVerificationTTL = 24 * time.Hour

	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenIssuer builds the four token kinds on top of the codec
type TokenIssuer struct {
	codec      *jwt.Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates an issuer. Non-positive TTLs fall back to the defaults.
func NewTokenIssuer(codec *jwt.Codec, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenIssuer{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime
func (i *TokenIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// IssuePair mints an access and a refresh token from the same role snapshot.
// The two kinds are never issued independently.
func (i *TokenIssuer) IssuePair(identity *domain.Identity) (*domain.TokenPair, error) {
	claims := map[string]any{
		jwt.ClaimSubject: identity.ID.String(),
		jwt.ClaimEmail:   identity.Email,
		jwt.ClaimRoles:   identity.Roles.Strings(),
	}

	accessToken, err := i.codec.Encode(claims, jwt.KindAccess, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := i.codec.Encode(claims, jwt.KindRefresh, i.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(i.accessTTL / time.Second),
	}, nil
}

// IssuePasswordReset mints a reset token whose subject is the email address
func (i *TokenIssuer) IssuePasswordReset(email string) (string, error) {
	return i.codec.Encode(map[string]any{jwt.ClaimSubject: email}, jwt.KindPasswordReset, PasswordResetTTL)
}

// IssueEmailVerification mints a verification token whose subject is the identity id
func (i *TokenIssuer) IssueEmailVerification(id uuid.UUID) (string, error) {
	return i.codec.Encode(map[string]any{jwt.ClaimSubject: id.String()}, jwt.KindEmailVerification, EmailVerificationTTL)
}
