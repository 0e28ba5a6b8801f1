package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/config"
	"github.com/estatebid/estatebid-api/internal/user"
)

var (
	ErrInvalidToken = apperror.Unauthorized("not authorized, invalid token")
	ErrExpiredToken = apperror.Unauthorized("token has expired")
)

// TokenClaims are the claims carried by a session token
type TokenClaims struct {
	UserID    uuid.UUID
	Email     string
	Role      user.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, role user.Role, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// NewTokenService builds the token service selected by cfg.TokenType
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	switch cfg.TokenType {
	case config.TokenTypePaseto:
		return NewPasetoService(cfg.PasetoKey)
	case config.TokenTypeJWT:
		return NewJWTService(cfg.JWTSecret)
	default:
		return nil, fmt.Errorf("unknown token type %q", cfg.TokenType)
	}
}
