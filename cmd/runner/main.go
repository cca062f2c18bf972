package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/evalpipe/evalpipe/internal/config"
	"github.com/evalpipe/evalpipe/internal/llm"
	"github.com/evalpipe/evalpipe/internal/pipeline"
	"github.com/evalpipe/evalpipe/internal/pkg/database"
	"github.com/evalpipe/evalpipe/internal/pkg/logger"
	chrepo "github.com/evalpipe/evalpipe/internal/repository/clickhouse"
	pgrepo "github.com/evalpipe/evalpipe/internal/repository/postgres"
	"github.com/evalpipe/evalpipe/internal/scoring"
	"github.com/evalpipe/evalpipe/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.WithContext()
	log.Info("starting evaluation runner")

	// Initialize crash reporting
	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Server.Env,
		}); err != nil {
			log.Warn("failed to initialize sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Initialize dependencies
	deps, cleanup, err := initDependencies(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer cleanup()

	// Create worker server
	workerServer, err := worker.NewServer(log, cfg, deps)
	if err != nil {
		log.Fatal("failed to create worker server", zap.Error(err))
	}

	// Start worker in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- workerServer.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down runner...")
		workerServer.Stop()
	case err := <-errCh:
		if err != nil {
			log.Error("worker server error", zap.Error(err))
		}
	}

	log.Info("runner stopped")
}

// initDependencies initializes runner dependencies
func initDependencies(cfg *config.Config, log *zap.Logger) (*worker.Dependencies, func(), error) {
	ctx := context.Background()

	// Initialize PostgreSQL for the evaluator catalog
	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	// Separate sqlx handle for the audit log
	sqlxDB, err := database.NewSQLX(cfg.Postgres)
	if err != nil {
		pgDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize audit database handle: %w", err)
	}

	// Initialize ClickHouse for traces and evaluation records
	chDB, err := database.NewClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		pgDB.Close()
		sqlxDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize ClickHouse: %w", err)
	}

	// Verify the task queue backend is reachable before serving
	redisDB, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		pgDB.Close()
		sqlxDB.Close()
		chDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// Initialize repositories
	catalogRepo := pgrepo.NewCatalogRepository(pgDB)
	auditRepo := pgrepo.NewAuditRepository(sqlxDB)
	traceRepo := chrepo.NewTraceRepository(chDB)
	evalRepo := chrepo.NewEvaluationRepository(chDB)

	// Initialize scoring
	llmClient := llm.NewClient(cfg.LLM)
	dispatcher := scoring.NewDispatcher(scoring.DefaultRegistry(llmClient), cfg.Pipeline.InvokeTimeout())

	// Initialize the batch runner
	runner := pipeline.NewRunner(
		catalogRepo,
		evalRepo,
		auditRepo,
		dispatcher,
		pipeline.NewSampler(),
		cfg.Pipeline.UnitConcurrency,
	)

	deps := &worker.Dependencies{
		Runner:      runner,
		TraceSource: traceRepo,
		AuditPruner: auditRepo,
	}

	// Cleanup function
	cleanup := func() {
		pgDB.Close()
		sqlxDB.Close()
		chDB.Close()
		redisDB.Close()
	}

	return deps, cleanup, nil
}
