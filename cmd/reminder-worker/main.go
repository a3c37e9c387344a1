package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	appconfig "github.com/curbcycle/pickup-platform/internal/config"
	"github.com/curbcycle/pickup-platform/internal/notify"
	"github.com/curbcycle/pickup-platform/internal/observability/metrics"
	"github.com/curbcycle/pickup-platform/internal/profiles"
	"github.com/curbcycle/pickup-platform/internal/reminders"
	"github.com/curbcycle/pickup-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting pickup reminder worker",
		"env", cfg.Env,
		"interval", cfg.ReminderInterval.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

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

	registry := prometheus.NewRegistry()
	worker := reminders.NewWorker(profiles.NewStore(pool), notifier, metrics.NewReminderMetrics(registry), logger).
		WithInterval(cfg.ReminderInterval)

	worker.Run(ctx)

	logger.Info("reminder worker stopped")
}
