package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/estatebid/estatebid-api/internal/admin"
	"github.com/estatebid/estatebid-api/internal/auth"
	"github.com/estatebid/estatebid-api/internal/bid"
	"github.com/estatebid/estatebid-api/internal/config"
	"github.com/estatebid/estatebid-api/internal/httputil"
	"github.com/estatebid/estatebid-api/internal/logging"
	"github.com/estatebid/estatebid-api/internal/property"
	"github.com/estatebid/estatebid-api/internal/ratelimit"
	"github.com/estatebid/estatebid-api/internal/user"
)

// Rate limit purposes for the public auth endpoints
const (
	purposeRegister       = "register"
	purposeLogin          = "login"
	purposeForgotPassword = "forgot-password"
	purposeResetPassword  = "reset-password"
	purposeResend         = "resend-verification"
)

// Handlers groups the domain handlers mounted by the router
type Handlers struct {
	Auth     *auth.Handler
	Property *property.Handler
	Bid      *bid.Handler
	Admin    *admin.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	h Handlers,
	authMiddleware *auth.Middleware,
	limiter *ratelimit.Limiter,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondError(w, r, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, httputil.ErrorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
	})

	r.Get("/health", handleHealth)

	// Swagger UI is only mounted in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limiter.Middleware(purposeRegister)).Post("/register", h.Auth.Register)
			r.With(limiter.Middleware(purposeLogin)).Post("/login", h.Auth.Login)
			r.Post("/verify-email", h.Auth.VerifyEmail)
			r.With(limiter.Middleware(purposeResend)).Post("/resend-verification", h.Auth.ResendVerification)
			r.With(limiter.Middleware(purposeForgotPassword)).Post("/forgot-password", h.Auth.ForgotPassword)
			r.With(limiter.Middleware(purposeResetPassword)).Post("/reset-password", h.Auth.ResetPassword)
			r.With(authMiddleware.Protect).Get("/me", h.Auth.Me)
		})

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.Property.List)
			r.With(authMiddleware.OptionalAuth).Get("/{id}", h.Property.Get)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Protect)
				r.Get("/my/properties", h.Property.ListMine)

				r.Group(func(r chi.Router) {
					r.Use(auth.Authorize(user.RolePropertyOwner, user.RoleAdmin))
					r.Post("/", h.Property.Create)
					r.Put("/{id}", h.Property.Update)
					r.Delete("/{id}", h.Property.Delete)
				})
			})
		})

		r.Route("/bids", func(r chi.Router) {
			r.Use(authMiddleware.Protect)
			r.Post("/", h.Bid.Create)
			r.Get("/", h.Bid.List)
			r.Get("/{id}", h.Bid.Get)
			r.Put("/{id}/status", h.Bid.UpdateStatus)
			r.Delete("/{id}", h.Bid.Delete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware.Protect)
			r.Use(auth.Authorize(user.RoleAdmin))
			r.Get("/statistics", h.Admin.Statistics)
			r.Get("/users", h.Admin.ListUsers)
			r.Put("/users/{id}", h.Admin.UpdateUser)
			r.Delete("/users/{id}", h.Admin.DeleteUser)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
