package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token types accepted by AUTH_TOKEN_TYPE
const (
	TokenTypePaseto = "paseto"
	TokenTypeJWT    = "jwt"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Catalog   CatalogConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
	MaxOpenConns   int
	MaxIdleConns   int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	TokenType string // paseto or jwt
	// PASETO symmetric key (must be 32 bytes for v4.local)
	PasetoKey []byte
	// HMAC secret for HS256 tokens
	JWTSecret            []byte
	TokenDuration        time.Duration
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
	AllowAdminSignup     bool
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FromAddress  string
	FrontendURL  string // Frontend URL for verification and reset links
}

type RateLimitConfig struct {
	AuthMaxRequests int
	AuthWindow      time.Duration
	EmailCooldown   time.Duration
}

type CacheConfig struct {
	PropertyListTTL time.Duration
}

type LogConfig struct {
	Level string
	File  string // empty disables file output
}

type CatalogConfig struct {
	DefaultCountry string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "estatebid"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			TokenType:            strings.ToLower(getEnv("AUTH_TOKEN_TYPE", TokenTypePaseto)),
			PasetoKey:            []byte(getEnv("PASETO_KEY", "")),
			JWTSecret:            []byte(getEnv("JWT_SECRET", "")),
			TokenDuration:        getDurationEnv("TOKEN_DURATION", 7*24*time.Hour),
			VerificationTokenTTL: getDurationEnv("VERIFICATION_TOKEN_TTL", 24*time.Hour),
			ResetTokenTTL:        getDurationEnv("RESET_TOKEN_TTL", time.Hour),
			AllowAdminSignup:     getBoolEnv("AUTH_ALLOW_ADMIN_SIGNUP", false),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASS", ""),
			FromAddress:  getEnv("EMAIL_FROM", ""),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		RateLimit: RateLimitConfig{
			AuthMaxRequests: getIntEnv("RATE_LIMIT_AUTH_MAX", 20),
			AuthWindow:      getDurationEnv("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute),
			EmailCooldown:   getDurationEnv("RATE_LIMIT_EMAIL_COOLDOWN", 2*time.Minute),
		},
		Cache: CacheConfig{
			PropertyListTTL: getDurationEnv("CACHE_PROPERTY_LIST_TTL", 60*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Catalog: CatalogConfig{
			DefaultCountry: getEnv("DEFAULT_COUNTRY", "Ghana"),
		},
	}

	if err := cfg.Auth.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AuthConfig) validate() error {
	switch c.TokenType {
	case TokenTypePaseto:
		// v4.local needs exactly 32 bytes
		if len(c.PasetoKey) != 32 {
			return fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(c.PasetoKey))
		}
	case TokenTypeJWT:
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
		}
	default:
		return fmt.Errorf("AUTH_TOKEN_TYPE must be %q or %q, got %q", TokenTypePaseto, TokenTypeJWT, c.TokenType)
	}

	if c.TokenDuration <= 0 {
		return fmt.Errorf("TOKEN_DURATION must be positive")
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

// SMTPEnabled reports whether outgoing mail should go through SMTP
func (c *EmailConfig) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

// getDurationEnv reads a whole number of seconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
