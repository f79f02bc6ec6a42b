package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brickstay/stayhub/internal/app"
	"github.com/brickstay/stayhub/internal/clock"
	"github.com/brickstay/stayhub/internal/config"
	"github.com/brickstay/stayhub/internal/events"
	"github.com/brickstay/stayhub/internal/storage/postgres"
	transporthttp "github.com/brickstay/stayhub/internal/transport/http"
	"github.com/brickstay/stayhub/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Warn(".env not loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	dustPolicy, err := app.ParseDustPolicy(cfg.DustPolicy)
	if err != nil {
		logger.Error("parse dust policy", "error", err)
		os.Exit(1)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect to db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Error("db ping", "error", err)
		os.Exit(1)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Error("apply migrations", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventExchange)
		if err != nil {
			logger.Error("connect to amqp", "error", err)
			os.Exit(1)
		}
		publisher = amqpPub
	}
	defer func() { _ = publisher.Close() }()

	clk := clock.NewSystem()
	newID := app.NewUUID

	wallets := postgres.NewWalletRepository(pool)

	ledgerRepo := postgres.NewLedgerRepository(pool)
	ledgerSvc := app.NewLedgerService(ledgerRepo, clk, publisher)

	distributionRepo := postgres.NewDistributionRepository(pool)
	distributionSvc := app.NewDistributionService(distributionRepo, wallets, clk, publisher, newID, dustPolicy, cfg.EscrowAccount)

	listingRepo := postgres.NewListingRepository(pool)
	listingSvc := app.NewListingService(listingRepo, ledgerSvc, clk, publisher, newID)
	ledgerSvc.SetOwnershipChangeHandler(listingSvc)

	bookingRepo := postgres.NewBookingRepository(pool)
	bookingSvc := app.NewBookingService(bookingRepo, distributionSvc, wallets, clk, publisher, newID, cfg.PlatformFeeBps, cfg.FeeAccount)

	deviceRepo := postgres.NewDeviceRepository(pool)
	accessSvc := app.NewAccessService(deviceRepo, ledgerSvc, clk, cfg.AdminIdentity)

	router := transporthttp.NewRouter(transporthttp.RouterConfig{
		Ledger:         ledgerSvc,
		Distributor:    distributionSvc,
		Listings:       listingSvc,
		Bookings:       bookingSvc,
		Access:         accessSvc,
		PlatformFeeBps: cfg.PlatformFeeBps,
		FeeAccount:     cfg.FeeAccount,
	})
	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, router), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info("api listening", "port", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
