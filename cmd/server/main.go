package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/amt/backend/internal/application/billing"
	ledgerapp "github.com/amt/backend/internal/application/ledger"
	"github.com/amt/backend/internal/infrastructure/config"
	"github.com/amt/backend/internal/infrastructure/logger"
	"github.com/amt/backend/internal/infrastructure/persistence"
	"github.com/amt/backend/internal/interfaces/http/handler"
	"github.com/amt/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting AMT backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	if cfg.App.Env == "development" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
		log.Info("Schema migrated")
	}

	// Repositories
	contractRepo := persistence.NewGormContractRepository(db.DB)
	lineRepo := persistence.NewGormBillingLineRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	allocationRepo := persistence.NewGormAllocationRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	ledgerRepo := persistence.NewGormAccountTransactionRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Application services
	contractService := billingapp.NewContractService(contractRepo, lineRepo, uow, log)
	scheduleService := billingapp.NewScheduleService(contractRepo, lineRepo, uow, log)
	paymentService := billingapp.NewPaymentService(
		contractRepo, lineRepo, paymentRepo, allocationRepo, accountRepo, ledgerRepo, uow, log)
	reversalService := billingapp.NewReversalService(
		lineRepo, paymentRepo, allocationRepo, accountRepo, ledgerRepo, uow, log)
	accountService := ledgerapp.NewAccountService(accountRepo, ledgerRepo, uow, log)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.SetupValidator()
	engine := gin.New()
	engine.Use(logger.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewContractHandler(contractService, scheduleService))
	r.Register(handler.NewBillingLineHandler(scheduleService, reversalService))
	r.Register(handler.NewPaymentHandler(paymentService, reversalService))
	r.Register(handler.NewAccountHandler(accountService))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server stopped")
}
