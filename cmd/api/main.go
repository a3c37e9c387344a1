package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/curbcycle/pickup-platform/internal/address"
	"github.com/curbcycle/pickup-platform/internal/api/router"
	"github.com/curbcycle/pickup-platform/internal/calendar"
	"github.com/curbcycle/pickup-platform/internal/checkout"
	appconfig "github.com/curbcycle/pickup-platform/internal/config"
	"github.com/curbcycle/pickup-platform/internal/handoff"
	"github.com/curbcycle/pickup-platform/internal/notify"
	"github.com/curbcycle/pickup-platform/internal/observability/metrics"
	"github.com/curbcycle/pickup-platform/internal/profiles"
	"github.com/curbcycle/pickup-platform/internal/reminders"
	"github.com/curbcycle/pickup-platform/internal/signup"
	"github.com/curbcycle/pickup-platform/internal/subscriptions"
	"github.com/curbcycle/pickup-platform/internal/verification"
	"github.com/curbcycle/pickup-platform/pkg/logging"
)

func main() {
	// Load .env in local development; absent in deployed environments.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting pickup-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Redis backs the signup hand-off stash and verification sessions.
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Subscriptions go through database/sql for pq array support.
	sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	signupMetrics := metrics.NewSignupMetrics(registry)
	verificationMetrics := metrics.NewVerificationMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	reminderMetrics := metrics.NewReminderMetrics(registry)

	// Notification channels fall back to logging stubs when unconfigured.
	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	} else {
		logger.Warn("SENDGRID_API_KEY not set, using stub email sender")
		emailSender = notify.NewStubEmailSender(logger)
	}

	var smsSender notify.SMSSender
	if rest := notify.NewRESTSMSSender(notify.RESTSMSConfig{
		BaseURL:    cfg.SMSProviderBaseURL,
		APIKey:     cfg.SMSProviderAPIKey,
		FromNumber: cfg.SMSFromNumber,
	}, logger); rest != nil {
		smsSender = rest
	} else {
		logger.Warn("SMS_PROVIDER_API_KEY not set, using stub SMS sender")
		smsSender = notify.NewStubSMSSender(logger)
	}

	notifier := notify.NewService(emailSender, smsSender, logger)

	// Stores
	formStore := handoff.NewStore(redisClient, cfg.HandoffTTL, logger)
	sessionStore := verification.NewSessionStore(redisClient, cfg.VerificationTTL)
	profileStore := profiles.NewStore(pool)
	subscriptionRepo := subscriptions.NewRepository(sqlDB)

	// Flows and handlers
	flow := verification.NewFlow(sessionStore, formStore, profileStore, notifier, verificationMetrics, logger).
		WithMaxAttempts(cfg.VerificationMaxAttempts)

	successURL, cancelURL := cfg.CheckoutURLs()
	stripeSvc := checkout.NewStripeCheckoutService(
		cfg.StripeSecretKey,
		successURL,
		cancelURL,
		logger,
	)

	worker := reminders.NewWorker(profileStore, notifier, reminderMetrics, logger).
		WithInterval(cfg.ReminderInterval)

	routerCfg := &router.Config{
		Logger:              logger,
		SignupHandler:       signup.NewHandler(formStore, signupMetrics, logger),
		CalendarHandler:     calendar.NewHandler(logger),
		AddressHandler:      address.NewHandler(address.NewChecker(cfg.ServiceAreaZips), formStore, logger),
		VerificationHandler: verification.NewHandler(flow, logger),
		CheckoutHandler:     checkout.NewHandler(stripeSvc, formStore, subscriptionRepo, checkoutMetrics, logger),
		RemindersHandler:    reminders.NewHandler(worker, logger),
		SubscriptionsAdmin:  subscriptions.NewHandler(subscriptionRepo, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
