package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/estatebid/estatebid-api/internal/config"
)

const (
	ipKeyPrefix       = "ratelimit:ip:"
	cooldownKeyPrefix = "ratelimit:email:"
)

// Limiter is a Redis-backed fixed window limiter keyed by client IP, plus a
// per-address cooldown for outgoing emails
type Limiter struct {
	client        *redis.Client
	maxRequests   int
	window        time.Duration
	emailCooldown time.Duration
}

func NewLimiter(client *redis.Client, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client:        client,
		maxRequests:   cfg.AuthMaxRequests,
		window:        cfg.AuthWindow,
		emailCooldown: cfg.EmailCooldown,
	}
}

// CheckIPRateLimitWithPurpose reports whether ip has used up its window for
// the given purpose (e.g. "login")
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	val, err := l.client.Get(ctx, ipKey(ip, purpose)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return false, fmt.Errorf("invalid rate limit counter %q: %w", val, err)
	}

	return count >= l.maxRequests, nil
}

// RecordIPRequestWithPurpose counts one request. The window starts with the
// first request and is not extended by later ones.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := ipKey(ip, purpose)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return nil
}

// CheckEmailCooldown reports whether an email was sent to address recently
func (l *Limiter) CheckEmailCooldown(ctx context.Context, address string) (bool, error) {
	n, err := l.client.Exists(ctx, cooldownKey(address)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}
	return n > 0, nil
}

// SetEmailCooldown starts the cooldown for address
func (l *Limiter) SetEmailCooldown(ctx context.Context, address string) error {
	if err := l.client.Set(ctx, cooldownKey(address), 1, l.emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return nil
}

func ipKey(ip, purpose string) string {
	return ipKeyPrefix + purpose + ":" + ip
}

func cooldownKey(address string) string {
	return cooldownKeyPrefix + strings.ToLower(strings.TrimSpace(address))
}

// ClientIP returns the host part of r.RemoteAddr. chi's RealIP middleware has
// already replaced it with X-Forwarded-For / X-Real-IP when present.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
