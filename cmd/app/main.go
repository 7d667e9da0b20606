package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/patrickrooney09/tiba-update-user/docs"
	"github.com/patrickrooney09/tiba-update-user/internal/audit"
	"github.com/patrickrooney09/tiba-update-user/internal/auth"
	"github.com/patrickrooney09/tiba-update-user/internal/config"
	"github.com/patrickrooney09/tiba-update-user/internal/db"
	"github.com/patrickrooney09/tiba-update-user/internal/logger"
	"github.com/patrickrooney09/tiba-update-user/internal/monthly"
	"github.com/patrickrooney09/tiba-update-user/internal/server"
	"github.com/patrickrooney09/tiba-update-user/internal/smartpark"
	"github.com/patrickrooney09/tiba-update-user/internal/user"
)

// @title TIBA Monthly Admin API
// @version 1.0
// @description Internal admin backend for monthly parking accounts.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting monthly admin backend")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auditRepo := audit.NewRepository(database)
	retryWorker := audit.NewRetryWorker(redisClient, auditRepo)
	auditRepo.SetRetryQueue(retryWorker)
	go retryWorker.Start(ctx)

	spClient := smartpark.NewClient(smartpark.Config{
		BaseURL:      cfg.SmartPark.BaseURL,
		APIUsername:  cfg.SmartPark.APIUsername,
		APIPassword:  cfg.SmartPark.APIPassword,
		FacilityCode: cfg.SmartPark.FacilityCode,
		TerminalID:   cfg.SmartPark.TerminalID,
		ProviderID:   cfg.SmartPark.ProviderID,
		Username:     cfg.SmartPark.Username,
		Password:     cfg.SmartPark.Password,
		Timeout:      cfg.SmartPark.Timeout,
	}, nil)

	revoked := auth.NewRevocationStore(redisClient)
	userService := user.NewService(user.NewRepository(database), revoked, cfg.JWTSecret)
	monthlyService := monthly.NewService(spClient, auditRepo)

	srv := server.New(cfg, server.Deps{
		Users:   userService,
		Monthly: monthlyService,
		Audits:  auditRepo,
		Revoked: revoked,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
