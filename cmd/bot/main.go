package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"xui-keys-bot/internal/config"
	"xui-keys-bot/internal/handlers"
	"xui-keys-bot/internal/jobs"
	"xui-keys-bot/internal/permissions"
	"xui-keys-bot/internal/services"
	"xui-keys-bot/internal/store"
	"xui-keys-bot/internal/web"
	"xui-keys-bot/pkg/telegrambot"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel)

	st, err := store.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Errorf("Failed to close database: %v", err)
		}
	}()

	// Initialize services
	registry := services.NewRegistry(cfg, logger)
	keyService := services.NewKeyService(registry, st, cfg, logger)
	deps := handlers.Dependencies{
		Keys:     keyService,
		Registry: registry,
		Store:    st,
		States:   services.NewUserStateService(logger),
		QR:       services.NewQRService(logger),
	}
	limiter := services.NewRateLimiter(time.Duration(cfg.Limits.RateLimitMs) * time.Millisecond)

	// Setup permission controller
	permController := permissions.NewController(cfg.Telegram.AdminIDs, st, logger)

	// Initialize bot
	bot, err := telegrambot.NewBot(cfg, deps, limiter, permController, logger)
	if err != nil {
		logger.Fatalf("Failed to create bot: %v", err)
	}

	// Background jobs
	sweep := jobs.NewSweepJob(st, keyService, bot, logger)
	report := jobs.NewReportJob(st, registry, bot, cfg.Telegram.AdminIDs, logger)
	scheduler, err := jobs.NewScheduler(cfg.Jobs, sweep, report, logger)
	if err != nil {
		logger.Fatalf("Failed to schedule jobs: %v", err)
	}
	scheduler.Start()

	var statusServer *web.Server
	if cfg.HTTP.Listen != "" {
		statusServer = web.NewServer(cfg.HTTP.Listen, registry, logger)
		go func() {
			if err := statusServer.Start(); err != nil {
				logger.Errorf("Status server failed: %v", err)
			}
		}()
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	logger.Infof("Starting key bot with %d servers", len(cfg.Servers))
	if err := bot.Start(ctx); err != nil {
		logger.Errorf("Bot failed: %v", err)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	scheduler.Stop(shutdownCtx)
	if statusServer != nil {
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Failed to stop status server: %v", err)
		}
	}
	logger.Info("Stopped")
}

// setupLogger sets up the logger
func setupLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level %s, defaulting to info", logLevel)
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	// Set formatter
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return logger
}
