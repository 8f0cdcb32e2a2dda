package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JohanDJ0/restapi-gastos/internal/cache"
	"github.com/JohanDJ0/restapi-gastos/internal/config"
	"github.com/JohanDJ0/restapi-gastos/internal/database"
	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/middleware"
	"github.com/JohanDJ0/restapi-gastos/internal/period"
	"github.com/JohanDJ0/restapi-gastos/internal/scheduler"
	"github.com/JohanDJ0/restapi-gastos/internal/server"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
	"github.com/JohanDJ0/restapi-gastos/internal/validator"

	_ "github.com/JohanDJ0/restapi-gastos/internal/docs" // Import swagger docs
)

// @title           Gastos API
// @version         1.0
// @description     Personal budgeting API: weekly, monthly and custom budgets, a transaction ledger, cycle summaries and categories.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity provider session token.

// @securityDefinitions.apikey AdminKey
// @in header
// @name X-API-Key
// @description Admin API key for maintenance endpoints.

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(os.Getenv("ENV"), "info")
		logger.Get().Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run(cfg *config.Config) error {
	log := logger.Get()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Redis is optional; without it entitlement reads go to the database.
	var entitlements services.EntitlementCache
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			log.Warnf("entitlement cache disabled: %v", err)
		} else {
			defer client.Close()
			entitlements = cache.NewEntitlementCache(client, cfg.EntitlementCacheTTL)
			log.Infof("Entitlement cache connected at %s", cfg.RedisAddr)
		}
	}

	verifier, err := middleware.NewTokenVerifier(cfg.AuthPublicKeyPEM, cfg.AuthSecret, cfg.AuthIssuerSuffix, cfg.AuthAudiences)
	if err != nil {
		return fmt.Errorf("failed to configure token verification: %w", err)
	}

	validator.Register()

	db := dbManager.DB()
	calc := period.NewInLocation(loc)
	archivalService := services.NewArchivalService(db, calc)
	transactionService := services.NewTransactionService(db)
	svc := server.Services{
		Users:          services.NewUserService(db),
		Budgets:        services.NewBudgetService(db, calc, archivalService),
		Transactions:   transactionService,
		CycleSummaries: services.NewCycleSummaryService(db, calc, transactionService),
		Categories:     services.NewCategoryService(db),
		Subscriptions: services.NewSubscriptionService(db, entitlements, cfg.PremiumPlanKey, services.Limits{
			MaxCategories: cfg.FreeMaxCategories,
			MaxBudgets:    cfg.FreeMaxBudgets,
		}),
		Archival: archivalService,
		Audit:    services.NewAuditService(db),
	}

	router := server.NewRouter(svc, server.Options{
		Verifier:    verifier,
		CORSOrigins: cfg.CORSOrigins,
		AdminAPIKey: cfg.AdminAPIKey,
		Location:    loc,
	})

	jobs, err := scheduler.New(cfg.ArchivalSweepSchedule, archivalService, loc)
	if err != nil {
		return err
	}
	jobs.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Gastos API on port %s", cfg.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-stop:
		log.Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	jobs.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
