package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"donorhub/internal/core/domain"
	"donorhub/internal/pkg/jwt"
	"donorhub/internal/pkg/metrics"
	"donorhub/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Caller-facing messages
const (
	MsgRegistered           = "User registered successfully. Please check your email for verification."
	MsgResetRequested       = "If the email exists, a reset link has been sent"
	MsgPasswordReset        = "Password reset successfully"
	MsgEmailVerified        = "Email verified successfully"
	MsgEmailAlreadyVerified = "Email already verified"
	MsgPasswordChanged      = "Password changed successfully"
	MsgLoggedOut            = "Successfully logged out"
	MsgUpgradedToDonor      = "Successfully upgraded to donor status"
	MsgAlreadyDonor         = "User is already a donor"
)

// timingPassword is hashed once and compared against on unknown emails so
// that login latency does not reveal whether an account exists
const timingPassword = "donorhub-timing-equaliser"

// AuthService composes the hasher, issuer and stores into the auth use cases
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	issuer *TokenIssuer
	codec  *jwt.Codec
	mailer EmailSender
	log    zerolog.Logger

	timingOnce sync.Once
	timingHash string
}

// NewAuthService creates a new auth service
func NewAuthService(
	users UserStore,
	hasher PasswordHasher,
	issuer *TokenIssuer,
	codec *jwt.Codec,
	mailer EmailSender,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		issuer: issuer,
		codec:  codec,
		mailer: mailer,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MessageResult is a success payload carrying only a message
type MessageResult struct {
	Message string `json:"message"`
}

// RegisterResult represents the outcome of a registration
type RegisterResult struct {
	Message  string               `json:"message"`
	Identity *domain.IdentityInfo `json:"user"`
}

// Register creates an unverified identity with the resolved role and sends a
// verification email. actor is the authenticated caller, if any.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput, actor *domain.Identity) (*RegisterResult, error) {
	result, err := s.register(ctx, input, actor)
	record(metrics.EventRegister, err)
	return result, err
}

func (s *AuthService) register(ctx context.Context, input *RegisterInput, actor *domain.Identity) (*RegisterResult, error) {
	email := normalizeEmail(input.Email)
	if err := checkNewPassword(input.Password); err != nil {
		return nil, err
	}

	// 1. Reject duplicates
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailInUse
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Internal(err)
	}

	// 2. Apply registration policy
	roleName, err := ResolveRegistrationRole(input.Role, actor)
	if err != nil {
		return nil, err
	}
	role, err := s.users.FindRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindInvalidRole, "Invalid role: "+string(roleName))
		}
		return nil, domain.Internal(err)
	}

	// 3. Hash password
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, domain.Internal(err)
	}

	// 4. Persist identity and membership together
	identity := &domain.Identity{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: false,
		IsActive:      true,
		Roles:         domain.NewRoleSet(role.Name),
	}
	err = s.users.Transaction(ctx, func(tx UserStore) error {
		if err := tx.CreateIdentity(ctx, identity); err != nil {
			return err
		}
		return tx.AddRoleMembership(ctx, identity.ID, role.ID)
	})
	if err != nil {
		// A concurrent registration won the unique index
		if errors.Is(err, domain.ErrEmailInUse) {
			return nil, domain.ErrEmailInUse
		}
		return nil, domain.Internal(err)
	}

	// 5. Verification email is best-effort
	s.sendVerification(ctx, identity)

	s.log.Info().Str("email", identity.Email).Str("role", string(role.Name)).Msg("user registered")

	return &RegisterResult{
		Message:  MsgRegistered,
		Identity: identity.Info(),
	}, nil
}

func (s *AuthService) sendVerification(ctx context.Context, identity *domain.Identity) bool {
	token, err := s.issuer.IssueEmailVerification(identity.ID)
	if err != nil {
		s.log.Error().Err(err).Str("email", identity.Email).Msg("issue verification token failed")
		return false
	}
	if !s.mailer.SendVerification(ctx, identity.Email, token) {
		s.log.Warn().Str("email", identity.Email).Msg("failed to send verification email")
		return false
	}
	s.log.Info().Str("email", identity.Email).Msg("verification email sent")
	return true
}

// Login authenticates an email/password pair and issues a token pair
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*domain.TokenPair, error) {
	tokens, err := s.login(ctx, input)
	record(metrics.EventLogin, err)
	return tokens, err
}

func (s *AuthService) login(ctx context.Context, input *LoginInput) (*domain.TokenPair, error) {
	identity, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.Verify(input.Password, s.dummyHash())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Internal(err)
	}

	if !s.hasher.Verify(input.Password, identity.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if !identity.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	tokens, err := s.issuer.IssuePair(identity)
	if err != nil {
		return nil, domain.Internal(err)
	}

	s.log.Info().Str("email", identity.Email).Msg("user logged in")
	return tokens, nil
}

func (s *AuthService) dummyHash() string {
	s.timingOnce.Do(func() {
		s.timingHash, _ = s.hasher.Hash(timingPassword)
	})
	return s.timingHash
}

// Refresh exchanges a refresh token for a new pair built from the identity's
// current roles. The presented token is not invalidated; there is no
// revocation store, so it stays usable until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	tokens, err := s.refresh(ctx, refreshToken)
	record(metrics.EventRefresh, err)
	return tokens, err
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, ok := s.codec.Decode(strings.TrimSpace(refreshToken), jwt.KindRefresh)
	if !ok {
		return nil, domain.NewError(domain.KindUnauthenticated, "Invalid refresh token")
	}
	id, err := uuid.Parse(claims.Subject())
	if err != nil {
		return nil, domain.NewError(domain.KindUnauthenticated, "Invalid refresh token")
	}

	identity, err := s.users.FindByID(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Internal(err)
	}
	if err != nil || !identity.IsActive {
		return nil, domain.NewError(domain.KindUnauthenticated, "User not found or inactive")
	}

	tokens, err := s.issuer.IssuePair(identity)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return tokens, nil
}

// Logout acknowledges a logout. Tokens are stateless; the client discards them.
func (s *AuthService) Logout(ctx context.Context, actor *domain.Identity) (*MessageResult, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	s.log.Info().Str("email", actor.Email).Msg("user logged out")
	return &MessageResult{Message: MsgLoggedOut}, nil
}

// ForgotPassword sends a reset link when the email is registered. The result
// is identical whether or not the account exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*MessageResult, error) {
	email = normalizeEmail(email)

	identity, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		s.sendPasswordReset(ctx, identity.Email)
	case !errors.Is(err, domain.ErrNotFound):
		s.log.Error().Err(err).Msg("forgot password lookup failed")
	}

	metrics.RecordAuthEvent(metrics.EventForgotPassword, "ok")
	return &MessageResult{Message: MsgResetRequested}, nil
}

func (s *AuthService) sendPasswordReset(ctx context.Context, email string) {
	token, err := s.issuer.IssuePasswordReset(email)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("issue reset token failed")
		return
	}
	if !s.mailer.SendPasswordReset(ctx, email, token) {
		s.log.Error().Str("email", email).Msg("failed to send password reset email")
		return
	}
	s.log.Info().Str("email", email).Msg("password reset email sent")
}

// ResetPassword stores a new credential for the email named by a reset token.
// The token is not single-use; it stays valid until it expires.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResult, error) {
	result, err := s.resetPassword(ctx, token, newPassword)
	record(metrics.EventResetPassword, err)
	return result, err
}

func (s *AuthService) resetPassword(ctx context.Context, token, newPassword string) (*MessageResult, error) {
	if err := checkNewPassword(newPassword); err != nil {
		return nil, err
	}

	claims, ok := s.codec.Decode(strings.TrimSpace(token), jwt.KindPasswordReset)
	if !ok || claims.Subject() == "" {
		return nil, domain.NewError(domain.KindUnauthenticated, "Invalid or expired reset token")
	}

	identity, err := s.users.FindByEmail(ctx, claims.Subject())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Internal(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if err := s.users.UpdateCredential(ctx, identity.ID, hash); err != nil {
		return nil, domain.Internal(err)
	}

	s.log.Info().Str("email", identity.Email).Msg("password reset completed")
	return &MessageResult{Message: MsgPasswordReset}, nil
}

// VerifyEmail marks the identity named by a verification token as verified.
// Verifying twice succeeds with a distinct message.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*MessageResult, error) {
	result, err := s.verifyEmail(ctx, token)
	record(metrics.EventVerifyEmail, err)
	return result, err
}

func (s *AuthService) verifyEmail(ctx context.Context, token string) (*MessageResult, error) {
	invalid := domain.NewError(domain.KindUnauthenticated, "Invalid or expired verification token")

	claims, ok := s.codec.Decode(strings.TrimSpace(token), jwt.KindEmailVerification)
	if !ok {
		return nil, invalid
	}
	id, err := uuid.Parse(claims.Subject())
	if err != nil {
		return nil, invalid
	}

	identity, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Internal(err)
	}

	if identity.EmailVerified {
		return &MessageResult{Message: MsgEmailAlreadyVerified}, nil
	}

	if err := s.users.UpdateVerified(ctx, identity.ID, true); err != nil {
		return nil, domain.Internal(err)
	}

	if s.mailer.SendWelcome(ctx, identity.Email) {
		s.log.Info().Str("email", identity.Email).Msg("welcome email sent")
	} else {
		s.log.Warn().Str("email", identity.Email).Msg("failed to send welcome email")
	}

	s.log.Info().Str("email", identity.Email).Msg("email verified")
	return &MessageResult{Message: MsgEmailVerified}, nil
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword replaces the caller's credential after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Identity, input *ChangePasswordInput) (*MessageResult, error) {
	result, err := s.changePassword(ctx, actor, input)
	record(metrics.EventChangePassword, err)
	return result, err
}

func (s *AuthService) changePassword(ctx context.Context, actor *domain.Identity, input *ChangePasswordInput) (*MessageResult, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := checkNewPassword(input.NewPassword); err != nil {
		return nil, err
	}

	identity, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Internal(err)
	}

	if !s.hasher.Verify(input.CurrentPassword, identity.PasswordHash) {
		return nil, domain.NewError(domain.KindInvalidInput, "Current password is incorrect")
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if err := s.users.UpdateCredential(ctx, identity.ID, hash); err != nil {
		return nil, domain.Internal(err)
	}

	s.log.Info().Str("email", identity.Email).Msg("password changed")
	return &MessageResult{Message: MsgPasswordChanged}, nil
}

// UpgradeToDonor swaps the caller's USER membership for DONOR in one transaction
func (s *AuthService) UpgradeToDonor(ctx context.Context, actor *domain.Identity) (*MessageResult, error) {
	result, err := s.upgradeToDonor(ctx, actor)
	record(metrics.EventUpgradeRole, err)
	return result, err
}

func (s *AuthService) upgradeToDonor(ctx context.Context, actor *domain.Identity) (*MessageResult, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}

	roles, err := s.users.ListRoles(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Internal(err)
	}

	decision, err := PlanDonorUpgrade(roles)
	if err != nil {
		return nil, err
	}
	if decision == UpgradeAlreadyDonor {
		return &MessageResult{Message: MsgAlreadyDonor}, nil
	}

	userRole, err := s.users.FindRoleByName(ctx, domain.RoleUser)
	if err != nil {
		return nil, domain.Internal(err)
	}
	donorRole, err := s.users.FindRoleByName(ctx, domain.RoleDonor)
	if err != nil {
		return nil, domain.Internal(err)
	}

	err = s.users.Transaction(ctx, func(tx UserStore) error {
		if err := tx.RemoveRoleMembership(ctx, actor.ID, userRole.ID); err != nil {
			return err
		}
		return tx.AddRoleMembership(ctx, actor.ID, donorRole.ID)
	})
	if err != nil {
		return nil, domain.Internal(err)
	}

	s.log.Info().Str("email", actor.Email).Msg("user changed role from USER to DONOR")
	return &MessageResult{Message: MsgUpgradedToDonor}, nil
}

// Me returns the public view of the caller
func (s *AuthService) Me(actor *domain.Identity) (*domain.IdentityInfo, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	return actor.Info(), nil
}

// checkNewPassword enforces the credential length in bytes, which is what bcrypt limits
func checkNewPassword(pw string) error {
	if !password.ValidatePassword(pw) {
		return domain.NewError(domain.KindInvalidInput,
			fmt.Sprintf("Password must be between %d and %d bytes", password.MinLength, password.MaxLength))
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func record(event string, err error) {
	if err == nil {
		metrics.RecordAuthEvent(event, "ok")
		return
	}
	metrics.RecordAuthEvent(event, string(domain.KindOf(err)))
}
