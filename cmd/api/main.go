package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/serenity-spa/booking-platform/internal/api/router"
	"github.com/serenity-spa/booking-platform/internal/app/bootstrap"
	"github.com/serenity-spa/booking-platform/internal/bookings"
	"github.com/serenity-spa/booking-platform/internal/catalog"
	appconfig "github.com/serenity-spa/booking-platform/internal/config"
	"github.com/serenity-spa/booking-platform/internal/crm"
	"github.com/serenity-spa/booking-platform/internal/notify"
	"github.com/serenity-spa/booking-platform/internal/observability/metrics"
	"github.com/serenity-spa/booking-platform/internal/payments"
	"github.com/serenity-spa/booking-platform/pkg/logging"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Warn("running without redis, catalog reads go straight to postgres")
	}

	policy, err := bootstrap.BuildSchedulePolicy(cfg)
	if err != nil {
		logger.Error("invalid scheduling policy", "error", err)
		os.Exit(1)
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)

	catalogStore := catalog.NewStore(redisClient, catalog.NewRepository(pool))

	var emailSender notify.EmailSender
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		emailSender = sender
	} else {
		logger.Warn("SENDGRID_API_KEY not set, booking emails are logged only")
		emailSender = notify.NewStubEmailSender(logger)
	}
	notifiers := []bookings.Notifier{
		notify.NewEmailNotifier(emailSender, storeNamer{store: catalogStore}, logger),
	}
	if crmNotifier := crm.NewNotifier(cfg.CRMWebhookURL, cfg.CRMWebhookTimeout, logger); crmNotifier != nil {
		notifiers = append(notifiers, crmNotifier)
	}

	bookingService := bookings.NewService(
		bookings.NewRepository(pool),
		catalogStore,
		policy,
		bookingMetrics,
		logger,
		notifiers...,
	)

	var paymentWebhook *payments.WebhookHandler
	if cfg.PaymentWebhookSecret != "" {
		paymentWebhook = payments.NewWebhookHandler(
			cfg.PaymentWebhookSecret,
			bookingService,
			payments.NewProcessedStore(pool),
			bookingMetrics,
			logger,
		)
	} else {
		logger.Warn("payment webhook disabled, bookings stay pending until confirmed manually")
	}

	routerCfg := &router.Config{
		Logger:            logger,
		BookingsHandler:   bookings.NewHandler(bookingService, logger),
		CatalogHandler:    catalog.NewHandler(catalogStore, logger),
		PaymentWebhook:    paymentWebhook,
		AdminAuthSecret:   cfg.AdminJWTSecret,
		MetricsHandler:    promhttp.Handler(),
		BookingRatePerSec: 5,
		BookingRateBurst:  10,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// storeNamer resolves service display names for email copy from the
// cached catalog.
type storeNamer struct {
	store *catalog.Store
}

func (s storeNamer) Service(id string) (catalog.Service, error) {
	cat, err := s.store.Get(context.Background())
	if err != nil {
		return catalog.Service{}, err
	}
	return cat.Service(id)
}
