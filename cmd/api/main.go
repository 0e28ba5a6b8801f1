package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/estatebid/estatebid-api/docs" // Swagger docs
	"github.com/estatebid/estatebid-api/internal/admin"
	"github.com/estatebid/estatebid-api/internal/auth"
	"github.com/estatebid/estatebid-api/internal/bid"
	"github.com/estatebid/estatebid-api/internal/cache"
	"github.com/estatebid/estatebid-api/internal/config"
	"github.com/estatebid/estatebid-api/internal/database"
	"github.com/estatebid/estatebid-api/internal/email"
	httpServer "github.com/estatebid/estatebid-api/internal/http"
	"github.com/estatebid/estatebid-api/internal/logging"
	"github.com/estatebid/estatebid-api/internal/property"
	"github.com/estatebid/estatebid-api/internal/ratelimit"
	"github.com/estatebid/estatebid-api/internal/user"
)

// @title           EstateBid API
// @version         1.0
// @description     Real estate listings with bidding, user accounts and an admin dashboard.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logCloser := logging.NewLoggerWithOptions(cfg.Server.IsDevelopment(), logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	defer logCloser.Close()

	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_type", cfg.Auth.TokenType,
	)

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.CreateSchema(ctx, db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Repositories
	userRepo := user.NewRepository(db)
	propertyRepo := property.NewRepository(db)
	bidRepo := bid.NewRepository(db)

	listCache := cache.New(redisClient)
	rateLimiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit)

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	var mailer auth.EmailService
	if cfg.Email.SMTPEnabled() {
		mailer = email.NewService(cfg.Email)
	} else {
		logger.Warn("SMTP_HOST not set, emails will be logged instead of sent")
		mailer = email.NewLogSender(cfg.Email.FrontendURL, logger)
	}

	// Services
	authService := auth.NewService(userRepo, tokens, mailer, logger, cfg.Auth)
	bidService := bid.NewService(bidRepo, listCache, logger)
	propertyService := property.NewService(propertyRepo, bidService, listCache, logger, cfg.Catalog, cfg.Cache)
	adminService := admin.NewService(userRepo, propertyRepo, bidRepo, listCache, logger)

	handlers := httpServer.Handlers{
		Auth:     auth.NewHandler(authService, rateLimiter),
		Property: property.NewHandler(propertyService),
		Bid:      bid.NewHandler(bidService),
		Admin:    admin.NewHandler(adminService),
	}
	authMiddleware := auth.NewMiddleware(tokens, userRepo)

	router := httpServer.NewRouter(cfg, handlers, authMiddleware, rateLimiter, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
