package ratelimit

import (
	"net/http"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/httputil"
	"github.com/estatebid/estatebid-api/internal/logging"
)

var ErrTooManyRequests = apperror.TooManyRequests("too many requests, please try again later")

// Middleware limits requests per client IP for one purpose. Redis failures
// are logged and the request is let through.
func (l *Limiter) Middleware(purpose string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.GetLoggerFromContext(r.Context())
			ip := ClientIP(r)

			exceeded, err := l.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
			if err != nil {
				logger.Error("failed to check IP rate limit", "error", err.Error())
			} else if exceeded {
				logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
				httputil.RespondError(w, r, ErrTooManyRequests)
				return
			}

			if err := l.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
				logger.Error("failed to record IP request", "error", err.Error())
			}

			next.ServeHTTP(w, r)
		})
	}
}
