package auth

import (
	"context"
	"net/http"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/httputil"
	"github.com/estatebid/estatebid-api/internal/logging"
	"github.com/estatebid/estatebid-api/internal/ratelimit"
	"github.com/estatebid/estatebid-api/internal/user"
)

var ErrEmailCooldown = apperror.TooManyRequests("please wait before requesting another email")

// EmailCooldown is the subset of the rate limiter used to throttle outgoing
// account emails per address
type EmailCooldown interface {
	CheckEmailCooldown(ctx context.Context, address string) (bool, error)
	SetEmailCooldown(ctx context.Context, address string) error
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service  *Service
	cooldown EmailCooldown
}

func NewHandler(service *Service, cooldown EmailCooldown) *Handler {
	return &Handler{service: service, cooldown: cooldown}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=admin property_owner property_seeker"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyEmailRequest represents the email verification request
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// EmailRequest carries a single address (forgot password, resend verification)
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// TokenResponse carries a freshly issued session token
type TokenResponse struct {
	Token string `json:"token"`
}

// UserResponse wraps the current user
type UserResponse struct {
	User *user.User `json:"user"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create an account and receive a session token. A verification email is sent in the background.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      201 {object} httputil.SuccessResponse{data=AuthResult}
// @Failure      400 {object} httputil.ErrorResponse "Validation error or email already registered"
// @Failure      403 {object} httputil.ErrorResponse "Admin self-registration disabled"
// @Failure      429 {object} httputil.ErrorResponse
// @Router       /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	logger := logging.GetLoggerFromContext(r.Context()).WithFields(map[string]any{"email": req.Email})

	result, err := h.service.Register(r.Context(), RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     user.Role(req.Role),
	})
	if err != nil {
		logger.Warn("registration failed", "error", err.Error())
		httputil.RespondError(w, r, err)
		return
	}

	logger.Info("user registered successfully", "user_id", result.User.ID)
	httputil.RespondSuccess(w, http.StatusCreated, "user registered successfully", result)
}

// Login handles user login
// @Summary      User login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} httputil.SuccessResponse{data=AuthResult}
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      429 {object} httputil.ErrorResponse
// @Router       /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Warn("login failed", "email", req.Email, "error", err.Error())
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "login successful", result)
}

// VerifyEmail handles email verification
// @Summary      Verify email address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyEmailRequest true "Verification token"
// @Success      200 {object} httputil.SuccessResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired token"
// @Router       /api/auth/verify-email [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Token); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondMessage(w, http.StatusOK, "email verified successfully")
}

// ResendVerification sends a new verification link
// @Summary      Resend verification email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Account email"
// @Success      200 {object} httputil.SuccessResponse
// @Failure      429 {object} httputil.ErrorResponse "Cooldown active"
// @Router       /api/auth/resend-verification [post]
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	if !h.startCooldown(w, r, req.Email) {
		return
	}

	if err := h.service.ResendVerificationEmail(r.Context(), req.Email); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondMessage(w, http.StatusOK, "if the account exists and is not verified, a new verification link has been sent")
}

// ForgotPassword starts a password reset
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Account email"
// @Success      200 {object} httputil.SuccessResponse
// @Failure      429 {object} httputil.ErrorResponse "Cooldown active"
// @Failure      500 {object} httputil.ErrorResponse "Email could not be sent"
// @Router       /api/auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	if !h.startCooldown(w, r, req.Email) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondMessage(w, http.StatusOK, "if an account exists with this email, a password reset link has been sent")
}

// ResetPassword completes a password reset
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Reset token and new password"
// @Success      200 {object} httputil.SuccessResponse{data=TokenResponse}
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired token"
// @Router       /api/auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	token, err := h.service.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "password reset successful", TokenResponse{Token: token})
}

// Me returns the authenticated user
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.SuccessResponse{data=UserResponse}
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /api/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, r, ErrNotAuthenticated)
		return
	}

	httputil.RespondSuccess(w, http.StatusOK, "", UserResponse{User: u})
}

// startCooldown rejects the request when an email went to address recently
// and otherwise starts a new cooldown. Redis failures let the request through.
func (h *Handler) startCooldown(w http.ResponseWriter, r *http.Request, address string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	onCooldown, err := h.cooldown.CheckEmailCooldown(r.Context(), address)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown", "email", address)
		httputil.RespondError(w, r, ErrEmailCooldown)
		return false
	}

	if err := h.cooldown.SetEmailCooldown(r.Context(), address); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	return true
}

var _ EmailCooldown = (*ratelimit.Limiter)(nil)
