package handlers

import (
	"time"

	"donorhub/internal/adapters/http/middleware"
	"donorhub/internal/config"
	"donorhub/internal/core/domain"
	"donorhub/internal/core/services"
	"donorhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,password"`
	Role     string `json:"role" validate:"omitempty,alpha,max=32"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// RefreshRequest represents refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"max=2048"`
}

// ForgotPasswordRequest represents forgot password request body
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// ResetPasswordRequest represents reset password request body
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,max=2048"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

// VerifyEmailRequest represents verify email request body
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required,max=2048"`
}

// ChangePasswordRequest represents change password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=72"`
	NewPassword     string `json:"new_password" validate:"required,password"`
}

// Register handles user registration
// @Summary Register new user
// @Description Register a new account. Elevated roles require an ADMIN bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	input := &services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}

	result, err := h.authService.Register(c.UserContext(), input, middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, result.Message, result.Identity)
}

// Login handles user login
// @Summary Login user
// @Description Authenticate with email and password and return a token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	tokens, err := h.authService.Login(c.UserContext(), &services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	// Set cookies
	h.setAuthCookies(c, tokens)

	return response.Success(c, "Login successful", tokens)
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Exchange a refresh token (body or cookie) for a new token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest false "Refresh token"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return response.FromError(c, err)
		}
	}

	// Fall back to the refresh cookie
	refreshToken := req.RefreshToken
	if refreshToken == "" {
		refreshToken = c.Cookies("refresh_token")
	}
	if refreshToken == "" {
		return response.FromError(c, domain.NewError(domain.KindUnauthenticated, "Refresh token required"))
	}

	tokens, err := h.authService.Refresh(c.UserContext(), refreshToken)
	if err != nil {
		h.clearAuthCookies(c)
		return response.FromError(c, err)
	}

	// Set new cookies
	h.setAuthCookies(c, tokens)

	return response.Success(c, "Token refreshed successfully", tokens)
}

// Logout handles user logout
// @Summary Logout user
// @Description Acknowledge logout and clear auth cookies; clients discard their tokens
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	result, err := h.authService.Logout(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}

	// Clear cookies
	h.clearAuthCookies(c)

	return response.Success(c, result.Message, nil)
}

// ForgotPassword handles password reset requests
// @Summary Request password reset
// @Description Send a reset link if the email is registered. The response never reveals whether it is.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ForgotPasswordRequest true "Account email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	result, err := h.authService.ForgotPassword(c.UserContext(), req.Email)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, result.Message, nil)
}

// ResetPassword handles password reset
// @Summary Reset password
// @Description Set a new password using a reset token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	result, err := h.authService.ResetPassword(c.UserContext(), req.Token, req.NewPassword)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, result.Message, nil)
}

// VerifyEmail handles email verification
// @Summary Verify email
// @Description Mark the account named by a verification token as verified
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body VerifyEmailRequest true "Verification token"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req VerifyEmailRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	result, err := h.authService.VerifyEmail(c.UserContext(), req.Token)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, result.Message, nil)
}

// ChangePassword handles password change for the current user
// @Summary Change password
// @Description Replace the current user's password
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}

	result, err := h.authService.ChangePassword(c.UserContext(), middleware.CurrentIdentity(c), &services.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, result.Message, nil)
}

// UpgradeToDonor handles the USER to DONOR self-upgrade
// @Summary Upgrade to donor
// @Description Swap the current user's USER role for DONOR
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/upgrade-to-donor [post]
func (h *AuthHandler) UpgradeToDonor(c *fiber.Ctx) error {
	result, err := h.authService.UpgradeToDonor(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, result.Message, nil)
}

// Me returns the current user info
// @Summary Get current user
// @Description Get the currently authenticated user's information
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	info, err := h.authService.Me(middleware.CurrentIdentity(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "User retrieved successfully", info)
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, tokens *domain.TokenPair) {
	// Access token cookie (shorter expiry)
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(h.cfg.AccessTTL() / time.Second),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	// Refresh token cookie (longer expiry)
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    tokens.RefreshToken,
		Path:     "/api/v1/auth",
		MaxAge:   int(h.cfg.RefreshTTL() / time.Second),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	for name, path := range map[string]string{"access_token": "/", "refresh_token": "/api/v1/auth"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     path,
			MaxAge:   -1,
			Expires:  time.Now().Add(-1 * time.Hour),
			Secure:   h.cfg.Cookie.Secure,
			HTTPOnly: true,
			SameSite: h.cfg.Cookie.SameSite,
			Domain:   h.cfg.Cookie.Domain,
		})
	}
}
