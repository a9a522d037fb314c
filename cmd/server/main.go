package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/credisol/crediledger/internal/adapter/http"
	"github.com/credisol/crediledger/internal/adapter/http/handler"
	"github.com/credisol/crediledger/internal/adapter/http/middleware"
	postgresRepo "github.com/credisol/crediledger/internal/adapter/repository/postgres"
	redisRepo "github.com/credisol/crediledger/internal/adapter/repository/redis"
	"github.com/credisol/crediledger/internal/infrastructure/accounting"
	"github.com/credisol/crediledger/internal/infrastructure/auth"
	"github.com/credisol/crediledger/internal/infrastructure/config"
	"github.com/credisol/crediledger/internal/infrastructure/logger"
	"github.com/credisol/crediledger/internal/infrastructure/logging"
	"github.com/credisol/crediledger/internal/infrastructure/metrics"
	"github.com/credisol/crediledger/internal/infrastructure/postgres"
	"github.com/credisol/crediledger/internal/infrastructure/redis"
	"github.com/credisol/crediledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx := context.Background()

	// Run migrations if requested
	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	creditRepo := postgresRepo.NewCreditRepository(pool)
	installmentRepo := postgresRepo.NewInstallmentRepository(pool)
	paymentRepo := postgresRepo.NewPaymentRepository(pool)
	suspenseRepo := postgresRepo.NewSuspenseRepository(pool)
	batchRepo := postgresRepo.NewBatchRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	scheduleCache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	creditUC := usecase.NewCreditUseCase(creditRepo, installmentRepo, scheduleCache, idGen)
	scheduleUC := usecase.NewScheduleUseCase(txManager, creditRepo, installmentRepo, outboxRepo, scheduleCache, idGen)
	appMetrics := metrics.New()
	retrier := postgresRepo.NewRetrier()
	paymentUC := usecase.NewPaymentUseCase(txManager, creditRepo, installmentRepo, paymentRepo, suspenseRepo, batchRepo, outboxRepo, scheduleCache, idGen, appMetrics).WithRetrier(retrier)
	suspenseUC := usecase.NewSuspenseUseCase(txManager, creditRepo, installmentRepo, paymentRepo, suspenseRepo, outboxRepo, scheduleCache, idGen)
	voidUC := usecase.NewVoidUseCase(txManager, creditRepo, installmentRepo, paymentRepo, suspenseRepo, batchRepo, outboxRepo, auditRepo, scheduleCache, idGen, appLogger).WithRetrier(retrier)
	consistencyUC := usecase.NewConsistencyUseCase(ledgerRepo)
	userUC := usecase.NewUserUseCase(userRepo)

	// Initialize handlers
	creditHandler := handler.NewCreditHandler(creditUC, scheduleUC, paymentUC, suspenseUC)
	paymentHandler := handler.NewPaymentHandler(paymentUC)
	batchHandler := handler.NewBatchHandler(paymentUC, voidUC)
	suspenseHandler := handler.NewSuspenseHandler(suspenseUC)
	ledgerHandler := handler.NewLedgerHandler(consistencyUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	routerCfg := httpAdapter.RouterConfig{
		CreditHandler:    creditHandler,
		PaymentHandler:   paymentHandler,
		BatchHandler:     batchHandler,
		SuspenseHandler:  suspenseHandler,
		LedgerHandler:    ledgerHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		Logger:           appLogger,
	}

	// Authentication is optional: without a secret the API runs open and
	// void actors come from the request body.
	if cfg.AuthEnabled && cfg.JWTSecret != "" {
		jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		routerCfg.JWTManager = jwtManager
		routerCfg.AuthHandler = handler.NewAuthHandler(userUC, jwtManager)
		log.Info().Msg("authentication enabled")
	}

	if cfg.RateLimitRPS > 0 {
		routerCfg.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	router := httpAdapter.NewRouter(routerCfg)

	// Start the accounting poster. It drains the outbox independently of
	// request handling and logs through its own slog-based worker logger.
	posterCtx, stopPoster := context.WithCancel(ctx)
	defer stopPoster()

	workerLogger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	poster := accounting.NewPoster(accounting.Config{
		OutboxRepo:    outboxRepo,
		Sink:          accounting.NewLogSink(workerLogger.Logger),
		Logger:        workerLogger.Logger,
		BatchSize:     cfg.OutboxBatchSize,
		Interval:      cfg.OutboxInterval,
		PostRetries:   cfg.OutboxPostRetries,
		RetryInterval: cfg.OutboxRetryInterval,
	})
	go func() {
		if err := poster.Start(posterCtx); err != nil && posterCtx.Err() == nil {
			log.Error().Err(err).Msg("accounting poster stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPoster()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
