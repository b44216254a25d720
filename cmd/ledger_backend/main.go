package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	portsrepo "github.com/SscSPs/current_account_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/current_account_ledger/internal/core/services"
	"github.com/SscSPs/current_account_ledger/internal/handlers"
	"github.com/SscSPs/current_account_ledger/internal/middleware"
	"github.com/SscSPs/current_account_ledger/internal/platform/config"
	"github.com/SscSPs/current_account_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/current_account_ledger/internal/repositories/database/sqlite"
	"github.com/SscSPs/current_account_ledger/internal/repositories/memory"
	"github.com/SscSPs/current_account_ledger/pkg/database"
	"github.com/gin-gonic/gin"
)

// @title Current Account Ledger API
// @version 1.0
// @description Per-owner current accounts with credit limits and an append-only movement log.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openLedgerStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("Error closing ledger store", slog.String("error", cerr.Error()))
		}
	}()

	serviceContainer := services.NewServiceContainer(cfg, portsrepo.NewRepositoryProvider(store))

	if cfg.ReconcileInterval > 0 {
		reconciler := services.NewReconciler(store, serviceContainer.Balance,
			services.WithReconcileInterval(cfg.ReconcileInterval),
			services.WithReconcileBatchSize(cfg.ReconcileBatchSize),
			services.WithReconcilerLogger(logger),
		)
		go reconciler.Run(ctx)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer, store); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", slog.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// openLedgerStore builds the configured store, applying migrations first when enabled.
// Migrations run on their own handle since migrate closes it when done.
func openLedgerStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.LedgerStore, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory ledger store; data is lost on restart")
		return memory.NewStore(), nil

	case config.StoreDriverPostgres:
		if cfg.RunMigrations {
			migrationDB, err := database.OpenPostgresSQL(cfg.DatabaseURL)
			if err != nil {
				return nil, err
			}
			if err := database.RunMigrations(migrationDB, database.DialectPostgres, logger); err != nil {
				return nil, err
			}
		}
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		logger.Info("Database connection pool established.")
		return pgsql.NewLedgerStore(dbPool), nil

	case config.StoreDriverSQLite:
		if cfg.RunMigrations {
			migrationDB, err := database.OpenSQLite(cfg.SQLitePath)
			if err != nil {
				return nil, err
			}
			if err := database.RunMigrations(migrationDB, database.DialectSQLite, logger); err != nil {
				return nil, err
			}
		}
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("SQLite ledger store opened", slog.String("path", cfg.SQLitePath))
		return sqlite.NewLedgerStore(db), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
