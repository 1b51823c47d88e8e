package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mainford/internal/adapters/cloudinary"
	"mainford/internal/adapters/eventbus"
	"mainford/internal/adapters/postgres"
	"mainford/internal/adapters/security"
	"mainford/internal/adapters/smtp"
	"mainford/internal/adapters/telegram"
	"mainford/internal/auth"
	"mainford/internal/core/services"
	httptransport "mainford/internal/http"
	"mainford/internal/http/handlers"
	"mainford/internal/shared/config"
	"mainford/internal/shared/logger"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	isDevMode := cfg.AppEnv == "dev"
	baseLogger := logger.New(isDevMode)
	baseLogger.Info().Str("app_env", cfg.AppEnv).Msg("Configuration loaded")

	// 3. Initialize the Security Services
	keyBytes, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to decode ENCRYPTION_KEY. It must be hex-encoded.")
	}
	secSvc, err := security.NewAESService(keyBytes, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize security service")
	}
	passwords := security.NewPasswordService()

	// 4. Initialize Database
	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.DatabaseURL, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// 5. Initialize Repositories
	userRepo := postgres.NewUserRepository(db, secSvc, &baseLogger)
	paymentRepo := postgres.NewPaymentRepository(db, &baseLogger)

	// 6. Event bus and its subscribers
	bus := eventbus.NewInMemoryEventBus(&baseLogger)

	if cfg.SMTP.Host != "" {
		mailer := smtp.NewMailer(cfg.SMTP, &baseLogger)
		smtp.SubscribeUserEvents(bus, mailer, cfg.ClientURL, &baseLogger)
	} else {
		baseLogger.Warn().Msg("SMTP_HOST not set, outbound mail disabled")
	}

	if cfg.Telegram.BotToken != "" {
		notifier, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.StaffChatID, &baseLogger)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to initialize telegram notifier")
		}
		telegram.SubscribeStaffEvents(bus, notifier, &baseLogger)
	} else {
		baseLogger.Warn().Msg("TELEGRAM_BOT_TOKEN not set, staff notifications disabled")
	}

	// 7. Core services
	media := cloudinary.NewUploader(cfg.Cloudinary, &baseLogger)
	userSvc := services.NewUserService(userRepo, paymentRepo, passwords, media, bus, services.UserPolicy{
		InitialBalance:       cfg.InitialBalance,
		RequireAdminApproval: cfg.RequireAdminApproval,
		RequireEmailVerified: cfg.RequireEmailVerified,
	}, &baseLogger)
	paymentSvc := services.NewPaymentService(paymentRepo, userRepo, bus, &baseLogger)

	// 8. HTTP transport
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.UserTokenTTL, cfg.AdminTokenTTL)

	userHandler := handlers.NewUserHandler(userSvc, tokens, baseLogger)
	adminHandler := handlers.NewAdminHandler(
		userSvc, paymentSvc, passwords, tokens,
		handlers.AdminCredentials{Username: cfg.AdminUser, PasswordHash: cfg.AdminPasswordHash},
		cfg.CookieName, cfg.CookieMaxAge, baseLogger,
	)
	paymentHandler := handlers.NewPaymentHandler(paymentSvc, baseLogger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Users:       userHandler,
		Admin:       adminHandler,
		Payments:    paymentHandler,
		Tokens:      tokens,
		CookieName:  cfg.CookieName,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      baseLogger,
	})
	server := httptransport.NewServer(cfg.HTTPAddress(), router, baseLogger)

	// 9. Run until interrupted, then drain
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("HTTP server failed")
		}
	case sig := <-stop:
		baseLogger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			baseLogger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}

	baseLogger.Info().Msg("Application stopped")
}
