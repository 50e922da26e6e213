package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/handlers"
	"wg-vpn-service/internal/permissions"
	"wg-vpn-service/internal/services"
	"wg-vpn-service/pkg/backendclient"
	"wg-vpn-service/pkg/telegrambot"
)

func main() {
	_ = godotenv.Load()

	logger := setupLogger()

	cfg, err := config.LoadBot()
	if err != nil {
		logger.Fatal("Failed to load configuration:", err)
	}

	// Initialize services
	svcs := handlers.Services{
		Backend:     backendclient.NewClient(cfg.Backend, logger),
		State:       services.NewUserStateService(logger),
		QR:          services.NewQRService(logger),
		Tokens:      services.NewCallbackTokenService(logger),
		LastPayment: services.NewLastPaymentService(logger),
		Validator:   services.NewTextValidator(logger),
	}

	permController := permissions.NewController(cfg.Telegram.AdminIDs, logger)

	bot, err := telegrambot.NewBot(cfg, svcs, permController, logger)
	if err != nil {
		logger.Fatal("Failed to create bot:", err)
	}

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

	logger.Info("Starting VPN Telegram bot")
	if err := bot.Start(ctx); err != nil {
		logger.Fatal("Bot failed:", err)
	}
}

// setupLogger sets up the logger
func setupLogger() *logrus.Logger {
	logger := logrus.New()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.Printf("Invalid log level %s, defaulting to info", logLevel)
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return logger
}
