package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"loginguard/internal/auth"
	"loginguard/internal/background"
	"loginguard/internal/config"
	"loginguard/internal/database"
	"loginguard/internal/handlers"
	"loginguard/internal/middleware"
	"loginguard/internal/repositories"
	"loginguard/internal/routes"
	"loginguard/internal/services"
	"loginguard/internal/store"
	pkghttp "loginguard/pkg/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize the ephemeral store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// The rate limiter fails open and pending registrations fail loudly,
		// so a Redis outage at boot is survivable; log it and carry on.
		logger.Warn("redis unreachable at startup", slog.Any("error", err))
	}
	pingCancel()

	ephemeralStore := store.New(redisClient, cfg.Redis.KeyPrefix)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	resetKeyRepo := repositories.NewResetKeyRepository(db)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(resetKeyRepo, logger, cfg.Auth.CleanupInterval)

	// Token and nonce plumbing
	nonceService := auth.NewNonceService(cfg.Auth.NonceSecret, cfg.Auth.NonceLifetime)
	confirmationManager := auth.NewConfirmationManager(nonceService, cfg.Auth.ConfirmationTokenTTL)
	sessionManager := auth.NewSessionManager(
		cfg.Auth.SessionSecret,
		cfg.Auth.SessionExpiry,
		cfg.Auth.RememberMeExpiry(),
	)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	// Rate limiting service
	rateLimitService := services.NewRateLimitService(ephemeralStore, services.RateLimitConfig{
		MaxAttempts:      cfg.RateLimit.MaxAttempts,
		LockoutDuration:  cfg.RateLimit.LockoutDuration,
		MonitoringWindow: cfg.RateLimit.MonitoringPeriod,
	}, logger)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Server.BaseURL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Optional collaborators
	var emailVerifier services.EmailVerifier
	if cfg.Verifier.Enabled {
		emailVerifier = services.NewReoonVerifier(
			cfg.Verifier.APIKey,
			cfg.Verifier.Mode,
			cfg.Verifier.Endpoint,
			cfg.Verifier.Timeout,
			cfg.Verifier.CacheTTL,
			ephemeralStore,
			logger,
		)
	}

	var challenge services.ChallengeVerifier
	if cfg.Turnstile.Enabled {
		challenge = services.NewTurnstileService(
			cfg.Turnstile.SecretKey,
			cfg.Turnstile.Endpoint,
			cfg.Turnstile.Forms,
			logger,
		)
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, sessionManager, rateLimitService, timingDelay, logger)
	registrationService := services.NewRegistrationService(
		userRepo,
		resetKeyRepo,
		ephemeralStore,
		confirmationManager,
		emailService,
		emailVerifier,
		rateLimitService,
		services.RegistrationConfig{
			Disabled:    cfg.Auth.RegistrationDisabled,
			PendingTTL:  cfg.Auth.ConfirmationTokenTTL,
			ResetKeyTTL: cfg.Auth.ResetKeyTTL,
			DefaultRole: cfg.Auth.DefaultRole,
		},
		logger,
	)
	passwordService := services.NewPasswordService(
		userRepo,
		resetKeyRepo,
		emailService,
		rateLimitService,
		services.PasswordConfig{ResetKeyTTL: cfg.Auth.ResetKeyTTL},
		logger,
	)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	cookieConfig := auth.CookieConfig{
		Secure:   cfg.Server.Env == "production",
		SameSite: "lax",
	}

	authHandler := handlers.NewAuthHandler(authService, nonceService, cookieConfig, ipConfig,
		cfg.Server.LoginPath, cfg.Auth.LoginRedirect)
	registrationHandler := handlers.NewRegistrationHandler(registrationService, nonceService,
		challenge, ipConfig, cfg.Server.LoginPath)
	passwordHandler := handlers.NewPasswordHandler(passwordService, nonceService,
		challenge, ipConfig, cfg.Server.LoginPath)
	verifyHandler := handlers.NewVerifyHandler(emailVerifier)
	formTokenHandler := handlers.NewFormTokenHandler(nonceService, challenge, cfg.Turnstile.SiteKey)

	// Setup router
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middleware.SecureLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(90 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, registrationHandler, passwordHandler,
		verifyHandler, formTokenHandler)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
