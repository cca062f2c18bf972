package worker

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/evalpipe/evalpipe/internal/config"
	"github.com/evalpipe/evalpipe/internal/pipeline"
)

// Server is the worker server
type Server struct {
	logger    *zap.Logger
	config    *config.Config
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	client    *asynq.Client
}

// Dependencies holds dependencies for workers
type Dependencies struct {
	Runner      *pipeline.Runner
	TraceSource TraceSource
	AuditPruner AuditPruner
}

// NewServer creates a new worker server
func NewServer(
	logger *zap.Logger,
	cfg *config.Config,
	deps *Dependencies,
) (*Server, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	// Create asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				cfg.Worker.QueueCritical: 6,
				cfg.Worker.QueueDefault:  3,
				cfg.Worker.QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task processing failed",
					zap.String("type", task.Type()),
					zap.Error(err),
				)
				if cfg.Sentry.Enabled {
					sentry.CaptureException(err)
				}
			}),
			Logger: &asynqLogger{logger: logger},
		},
	)

	// Create workers
	evalWorker := NewEvalWorker(logger, deps.TraceSource, deps.Runner)
	cleanupWorker := NewCleanupWorker(logger, deps.AuditPruner)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBatchEvaluation, evalWorker.ProcessBatchTask)
	mux.HandleFunc(TypeAuditCleanup, cleanupWorker.ProcessTask)

	// Create scheduler for periodic tasks
	scheduler := asynq.NewScheduler(redisOpt, nil)

	// Create client for enqueuing tasks
	client := asynq.NewClient(redisOpt)

	return &Server{
		logger:    logger,
		config:    cfg,
		server:    server,
		mux:       mux,
		scheduler: scheduler,
		client:    client,
	}, nil
}

// Start starts the worker server
func (s *Server) Start() error {
	// Register scheduled tasks
	if err := s.registerScheduledTasks(); err != nil {
		return fmt.Errorf("failed to register scheduled tasks: %w", err)
	}

	// Start scheduler
	go func() {
		if err := s.scheduler.Run(); err != nil {
			s.logger.Error("scheduler stopped", zap.Error(err))
		}
	}()

	// Start server
	s.logger.Info("starting worker server",
		zap.Int("concurrency", s.config.Worker.Concurrency),
	)

	return s.server.Run(s.mux)
}

// Stop stops the worker server
func (s *Server) Stop() {
	s.server.Shutdown()
	s.scheduler.Shutdown()
	s.client.Close()
}

// Client returns the asynq client for enqueuing tasks
func (s *Server) Client() *asynq.Client {
	return s.client
}

// registerScheduledTasks registers periodic tasks with the scheduler
func (s *Server) registerScheduledTasks() error {
	// Daily audit retention at 3 AM UTC
	_, err := s.scheduler.Register(
		"0 3 * * *",
		asynq.NewTask(TypeAuditCleanup, []byte(`{}`)),
		asynq.Queue(s.config.Worker.QueueLow),
	)
	if err != nil {
		return fmt.Errorf("failed to register audit cleanup task: %w", err)
	}

	return nil
}

// asynqLogger adapts zap.Logger to asynq.Logger
type asynqLogger struct {
	logger *zap.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}

// EnqueueBatchEvaluation enqueues a batch evaluation task
func EnqueueBatchEvaluation(client *asynq.Client, queue string, payload *BatchEvaluationPayload) error {
	task, err := NewBatchEvaluationTask(payload)
	if err != nil {
		return err
	}
	_, err = client.Enqueue(task, asynq.Queue(queue))
	return err
}
