package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/api"
	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/repository"
	"wg-vpn-service/internal/service"
	"wg-vpn-service/pkg/wgeasy"
)

func main() {
	_ = godotenv.Load()

	// Setup logger
	logger := setupLogger()

	// Load configuration
	cfg, err := config.LoadServer()
	if err != nil {
		logger.Fatal("Failed to load configuration:", err)
	}

	// Connect storage and apply schema
	repo, err := repository.New(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer repo.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelMigrate()
	if err := repo.Migrate(migrateCtx); err != nil {
		logger.Fatal("Failed to migrate database:", err)
	}

	// Wire services
	wgClient := wgeasy.NewClient(cfg.WGEasy, logger)
	userService := service.NewUserService(repo, logger)
	subscriptionService := service.NewSubscriptionService(repo, repo, repo, logger)
	peerService := service.NewPeerService(repo, repo, wgClient, cfg.VPN, logger)
	paymentService := service.NewPaymentService(repo, repo, repo, repo, logger)

	engine := api.NewRouter(api.Deps{
		Config:        cfg,
		Logger:        logger,
		DB:            repo,
		Users:         userService,
		Subscriptions: subscriptionService,
		Peers:         peerService,
		Payments:      paymentService,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown failed: %v", err)
		}
	}()

	logger.Infof("Starting VPN backend API on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed:", err)
	}
	logger.Info("Server stopped")
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
