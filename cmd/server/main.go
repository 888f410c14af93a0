package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"brandshot-backend/internal/billing"
	"brandshot-backend/internal/config"
	"brandshot-backend/internal/database"
	"brandshot-backend/internal/entitlement"
	"brandshot-backend/internal/handlers"
	"brandshot-backend/internal/notify"
	"brandshot-backend/internal/render"
	"brandshot-backend/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openEntitlementStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize entitlement store: %v", err)
	}
	defer closeStore()

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.SlackBotToken != "" {
		notifier = notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannelID)
	}

	rasterizer := render.Limit(render.NewRasterizer(render.NewFontSet()), cfg.MaxRenders)
	sessions := session.NewManager(cfg.SessionTTL, rasterizer, cfg.ExportSettleDelay)
	go sessions.Run(ctx, time.Minute)

	router := handlers.NewRouter(handlers.Dependencies{
		Config:       cfg,
		Sessions:     sessions,
		Entitlements: store,
		Rasterizer:   rasterizer,
		Checkout: billing.NewCheckoutService(
			billing.NewCatalog(cfg.StripePriceMonthly, cfg.StripePriceLifetime),
			billing.NewStripeSessionCreator(cfg.StripeSecretKey),
		),
		Verifier:  billing.NewWebhookVerifier(cfg.StripeWebhookSecret),
		Processor: billing.NewPaymentProcessor(store, notifier),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":         cfg.Port,
			"environment":  cfg.Environment,
			"entitlements": cfg.EntitlementStore,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func openEntitlementStore(ctx context.Context, cfg *config.Config) (entitlement.Store, func(), error) {
	switch cfg.EntitlementStore {
	case config.StorePostgres:
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.NewMigrator(db).Run(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logrus.Info("migrations completed successfully")
		return entitlement.NewPostgresStore(db), func() { db.Close() }, nil
	case config.StoreSupabase:
		store, err := entitlement.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		logrus.Warn("using in-memory entitlement store; grants are lost on restart")
		return entitlement.NewMemoryStore(), func() {}, nil
	}
}
