package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/gtmhq/agreements-engine/pkg/config"
	"github.com/gtmhq/agreements-engine/pkg/database"
	"github.com/gtmhq/agreements-engine/pkg/handlers"
	"github.com/gtmhq/agreements-engine/pkg/middleware"
	"github.com/gtmhq/agreements-engine/pkg/models"
	"github.com/gtmhq/agreements-engine/pkg/repositories"
	"github.com/gtmhq/agreements-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("database_host", cfg.Database.Host))

	ctx := context.Background()

	if err := migrate(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	agreementRepo := repositories.NewAgreementRepository()
	poRepo := repositories.NewPORepository()
	historyRepo := repositories.NewStatusHistoryRepository()

	rates := models.DefaultRates()
	ledger := services.NewLedgerService(db, agreementRepo, poRepo, historyRepo, rates, time.Now, logger)
	analytics := services.NewAnalyticsService(db, agreementRepo, poRepo, rates, time.Now, logger)
	transfer := services.NewTransferService(ledger, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAgreementHandler(ledger, logger).RegisterRoutes(mux)
	handlers.NewPOHandler(ledger, logger).RegisterRoutes(mux)
	handlers.NewAnalyticsHandler(analytics, logger).RegisterRoutes(mux)
	handlers.NewTransferHandler(transfer, logger).RegisterRoutes(mux)

	handler := middleware.RequestID()(middleware.RequestLogger(logger)(mux))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting agreements-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// migrate runs pending SQL migrations over a short-lived database/sql
// connection; the pgx pool is opened afterwards.
func migrate(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	return database.RunMigrations(sqlDB, cfg.MigrationsPath, logger)
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
