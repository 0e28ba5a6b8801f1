package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/httputil"
	"github.com/estatebid/estatebid-api/internal/logging"
	"github.com/estatebid/estatebid-api/internal/user"
)

var (
	ErrMissingToken       = apperror.Unauthorized("not authorized, no token")
	ErrInvalidHeader      = apperror.Unauthorized("invalid authorization header format")
	ErrUserNoLongerExists = apperror.Unauthorized("user no longer exists")
	ErrNotAuthenticated   = apperror.Unauthorized("not authenticated")
	ErrRoleNotAllowed     = apperror.Forbidden("you do not have permission to perform this action")
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// UserLookup loads the stored user named by a token
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
	users        UserLookup
}

func NewMiddleware(tokenService TokenService, users UserLookup) *Middleware {
	return &Middleware{tokenService: tokenService, users: users}
}

// Protect requires a valid bearer token naming an existing user. The stored
// user, not the token claims, is placed in the request context so role
// changes take effect immediately.
func (m *Middleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.authenticate(r)
		if err != nil {
			logging.GetLoggerFromContext(r.Context()).Debug("authentication failed", "error", err.Error())
			httputil.RespondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// OptionalAuth attaches the user when a valid token is present and never
// rejects the request
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, err := m.authenticate(r); err == nil {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) authenticate(r *http.Request) (*user.User, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := m.tokenService.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	u, err := m.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNoLongerExists
		}
		return nil, err
	}

	return u, nil
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidHeader
	}

	return strings.TrimSpace(parts[1]), nil
}

// Authorize allows the request through only when the authenticated user has
// one of roles. It must run after Protect.
func Authorize(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				httputil.RespondError(w, r, ErrNotAuthenticated)
				return
			}

			if !IsAllowed(u.Role, roles...) {
				logging.GetLoggerFromContext(r.Context()).Warn("role not allowed",
					"user_id", u.ID,
					"role", u.Role,
				)
				httputil.RespondError(w, r, ErrRoleNotAllowed)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithUser stores the authenticated user in ctx
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, UserContextKey, u)
}

// UserFromContext extracts the authenticated user from the request context
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*user.User)
	return u, ok && u != nil
}
