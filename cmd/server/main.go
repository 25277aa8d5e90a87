package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/bookkeeper/internal/adapter/http"
	"github.com/iho/bookkeeper/internal/adapter/http/handler"
	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/bookkeeper/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bookkeeper/internal/adapter/repository/redis"
	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/auth"
	"github.com/iho/bookkeeper/internal/infrastructure/config"
	"github.com/iho/bookkeeper/internal/infrastructure/eventpublisher"
	"github.com/iho/bookkeeper/internal/infrastructure/logger"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
	"github.com/iho/bookkeeper/internal/infrastructure/postgres"
	"github.com/iho/bookkeeper/internal/infrastructure/redis"
	"github.com/iho/bookkeeper/internal/jobs"
	"github.com/iho/bookkeeper/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Error().Err(err).Msg("server exited with error")
		stop()
		os.Exit(1)
	}
	l.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, l zerolog.Logger) error {
	tolerance, err := cfg.Tolerance()
	if err != nil {
		return err
	}
	scale, err := cfg.AmountScale()
	if err != nil {
		return err
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	l.Info().Msg("connected to postgres")

	if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, l).Up(); err != nil {
		return err
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, l)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	movementRepo := postgresRepo.NewMovementRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	// Use cases
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, movementRepo, outboxRepo, idGen).
		WithAudit(auditRepo).
		WithMetrics(m)
	if redisClient != nil {
		accountUC.WithCache(redisRepo.NewCache(redisClient, "bookkeeper:path:"), cfg.PathCacheTTL)
	}
	entryUC := usecase.NewEntryUseCase(txManager, accountRepo, entryRepo, movementRepo, outboxRepo, idGen).
		WithTolerance(tolerance).
		WithAmountScale(scale).
		WithRetrier(postgresRepo.NewRetrier(l)).
		WithAudit(auditRepo).
		WithMetrics(m).
		WithLogger(l)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo, tolerance)
	reconUC := usecase.NewReconciliationUseCase(accountRepo, movementRepo, ledgerUC).
		WithMetrics(m).
		WithLogger(l)

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		EntryHandler:       handler.NewEntryHandler(entryUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC, reconUC),
		HealthHandler:      handler.NewHealthHandler(healthChecks(pool, redisClient)),
		StaticPrincipal:    domain.Principal{OwnerID: cfg.StaticOwnerID, Role: domain.RoleAdmin},
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Production:         cfg.Production,
		Metrics:            m,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:             l,
	}
	if routerCfg.Verifier, err = tokenVerifier(cfg); err != nil {
		return err
	}
	if redisClient != nil {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	publisher, closePublisher, err := newPublisher(cfg, l)
	if err != nil {
		return err
	}
	defer closePublisher()

	outbox := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Logger:     l,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	server := newHTTPServer(cfg, httpAdapter.NewRouter(routerCfg))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info().Str("addr", server.Addr).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return ignoreCanceled(outbox.Start(gctx))
	})

	if cfg.WorkerEnabled && redisClient != nil {
		worker, err := newWorker(cfg, reconUC, l)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return ignoreCanceled(worker.Run(gctx))
		})
	}

	return g.Wait()
}

func healthChecks(pool handler.Pinger, client *goredis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"postgres": pool}
	if client != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	return checks
}

// tokenVerifier returns nil when authentication is disabled.
func tokenVerifier(cfg *config.Config) (middleware.TokenVerifier, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("AUTH_ENABLED requires JWT_SECRET")
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), nil
}

func newPublisher(cfg *config.Config, l zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		l.Info().Msg("AMQP_URL not set: outbox events are logged")
		return eventpublisher.NewLogPublisher(l), func() {}, nil
	}
	p, err := eventpublisher.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, nil, err
	}
	l.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing outbox events to amqp")
	return p, func() { _ = p.Close() }, nil
}

func newWorker(cfg *config.Config, reconciler jobs.Reconciler, l zerolog.Logger) (*jobs.Worker, error) {
	opts, err := jobs.ParseRedisURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	wcfg := jobs.WorkerConfig{
		RedisOpts:   opts,
		Concurrency: cfg.WorkerConcurrency,
		Logger:      l,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeReconcile, Handler: jobs.NewReconcileHandler(reconciler, l)},
		},
	}
	if cfg.ReconcileCron != "" {
		task, err := jobs.NewReconcileTask(jobs.ReconcilePayload{})
		if err != nil {
			return nil, err
		}
		wcfg.Cron = append(wcfg.Cron, jobs.CronRegistration{
			Spec:    cfg.ReconcileCron,
			Task:    task,
			Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)},
		})
	}
	return jobs.NewWorker(wcfg)
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
