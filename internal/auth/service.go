package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/config"
	"github.com/estatebid/estatebid-api/internal/logging"
	"github.com/estatebid/estatebid-api/internal/user"
)

var (
	ErrInvalidCredentials       = apperror.Unauthorized("invalid credentials")
	ErrInvalidVerificationToken = apperror.Validation("invalid or expired verification token")
	ErrInvalidResetToken        = apperror.Validation("invalid or expired reset token")
	ErrInvalidRole              = apperror.Validation("invalid role")
	ErrAdminSignupDisabled      = apperror.Forbidden("admin accounts cannot be self-registered")
)

const emailSendTimeout = 30 * time.Second

// UserStore is the subset of the user repository the auth service needs
type UserStore interface {
	Create(ctx context.Context, params user.CreateParams) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*user.User, error)
	MarkEmailAsVerified(ctx context.Context, userID uuid.UUID) error
	UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, userID uuid.UUID) error
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*user.User, error)
	ResetPassword(ctx context.Context, userID uuid.UUID, tokenHash, passwordHash string) error
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, name, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, name, token string) error
}

// AuthResult is returned by register and login
type AuthResult struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

// RegisterInput holds the registration fields
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     user.Role
}

// Service handles authentication business logic
type Service struct {
	users            UserStore
	tokens           TokenService
	emailService     EmailService
	logger           *logging.Logger
	tokenDuration    time.Duration
	verificationTTL  time.Duration
	resetTTL         time.Duration
	allowAdminSignup bool

	// runAsync starts background work; tests replace it to run inline
	runAsync func(func())
}

func NewService(
	users UserStore,
	tokens TokenService,
	emailService EmailService,
	logger *logging.Logger,
	cfg config.AuthConfig,
) *Service {
	return &Service{
		users:            users,
		tokens:           tokens,
		emailService:     emailService,
		logger:           logger,
		tokenDuration:    cfg.TokenDuration,
		verificationTTL:  cfg.VerificationTokenTTL,
		resetTTL:         cfg.ResetTokenTTL,
		allowAdminSignup: cfg.AllowAdminSignup,
		runAsync:         func(f func()) { go f() },
	}
}

// Register creates a new user account, issues a session token and sends the
// verification email in the background
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	role := in.Role
	if role == "" {
		role = user.RolePropertySeeker
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if role == user.RoleAdmin && !s.allowAdminSignup {
		return nil, ErrAdminSignupDisabled
	}

	passwordHash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	newUser, err := s.users.Create(ctx, user.CreateParams{
		Name:                  in.Name,
		Email:                 in.Email,
		PasswordHash:          passwordHash,
		Role:                  role,
		VerificationToken:     verificationToken,
		VerificationExpiresAt: time.Now().Add(s.verificationTTL),
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendVerificationAsync(newUser.Email, newUser.Name, verificationToken)

	token, err := s.tokens.CreateToken(newUser.ID, newUser.Email, newUser.Role, s.tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &AuthResult{User: newUser, Token: token}, nil
}

// Login authenticates a user and returns a session token
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existingUser.ID, existingUser.Email, existingUser.Role, s.tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &AuthResult{User: existingUser, Token: token}, nil
}

// VerifyEmail verifies a user's email using the verification token
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidVerificationToken
	}

	existingUser, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidVerificationToken
		}
		return fmt.Errorf("failed to find user by token: %w", err)
	}

	if err := s.users.MarkEmailAsVerified(ctx, existingUser.ID); err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}

	return nil
}

// ResendVerificationEmail issues a fresh verification token. Unknown and
// already verified addresses are ignored so callers cannot probe for accounts.
func (s *Service) ResendVerificationEmail(ctx context.Context, email string) error {
	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.IsVerified {
		return nil
	}

	token, err := generateRandomToken()
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	if err := s.users.UpdateVerificationToken(ctx, existingUser.ID, token, time.Now().Add(s.verificationTTL)); err != nil {
		return fmt.Errorf("failed to update verification token: %w", err)
	}

	s.sendVerificationAsync(existingUser.Email, existingUser.Name, token)
	return nil
}

// ForgotPassword issues a reset token and emails it. Unknown addresses are a
// no-op. When the email cannot be sent the token is withdrawn and the
// failure is reported.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := generateRandomToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if err := s.users.SetResetToken(ctx, existingUser.ID, hashToken(token), time.Now().Add(s.resetTTL)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailService.SendPasswordResetEmail(ctx, existingUser.Email, existingUser.Name, token); err != nil {
		if clearErr := s.users.ClearResetToken(ctx, existingUser.ID); clearErr != nil {
			s.logger.Error("failed to clear reset token", "user_id", existingUser.ID, "error", clearErr)
		}
		return apperror.Internal("email could not be sent", err)
	}

	return nil
}

// ResetPassword consumes a reset token, sets the new password and returns a
// fresh session token
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if token == "" {
		return "", ErrInvalidResetToken
	}

	tokenHash := hashToken(token)

	existingUser, err := s.users.GetByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidResetToken
		}
		return "", fmt.Errorf("failed to get user by reset token: %w", err)
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.ResetPassword(ctx, existingUser.ID, tokenHash, passwordHash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidResetToken
		}
		return "", fmt.Errorf("failed to reset password: %w", err)
	}

	sessionToken, err := s.tokens.CreateToken(existingUser.ID, existingUser.Email, existingUser.Role, s.tokenDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return sessionToken, nil
}

func (s *Service) sendVerificationAsync(email, name, token string) {
	s.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
		defer cancel()

		ctx = logging.WithLogger(ctx, s.logger)
		if err := s.emailService.SendVerificationEmail(ctx, email, name, token); err != nil {
			s.logger.Warn("failed to send verification email", "email", email, "error", err)
		}
	})
}
