package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/CrownAlter/task-management-api/internal/audit"
	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/di"
	"github.com/CrownAlter/task-management-api/internal/handler"
	"github.com/CrownAlter/task-management-api/internal/middleware"
	"github.com/CrownAlter/task-management-api/internal/repository"
	"github.com/CrownAlter/task-management-api/pkg/config"
	"github.com/CrownAlter/task-management-api/pkg/database"
	"github.com/CrownAlter/task-management-api/pkg/kafka"
	"github.com/CrownAlter/task-management-api/pkg/logger"
	"github.com/CrownAlter/task-management-api/pkg/redis"
	"github.com/CrownAlter/task-management-api/pkg/telemetry"
)

func main() {
	envFile := pflag.String("env-file", "", "path to an env file; defaults to ./.env when present")
	pflag.Parse()

	if err := run(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "task-api: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Development: cfg.App.Environment == "development",
		OutputPath:  cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		MaxRetries:      cfg.Database.MaxRetries,
		RetryInterval:   cfg.Database.RetryInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, db.Pool()); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		log.Info("database schema is up to date")
	}

	checks := map[string]handler.HealthChecker{"postgres": db}

	var throttle auth.LoginThrottle
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, &redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()
		throttle = auth.NewRedisThrottle(rdb, cfg.Auth.MaxLoginAttempts, cfg.Auth.LoginWindow)
		checks["redis"] = rdb
	} else {
		log.Warn("redis disabled, login throttling is per instance")
		throttle = auth.NewMemoryThrottle(cfg.Auth.MaxLoginAttempts, cfg.Auth.LoginWindow)
	}

	auditRepo := repository.NewPostgresAuditRepository(db.Pool())
	sink, closeSink, err := auditSink(ctx, cfg, auditRepo)
	if err != nil {
		return err
	}
	defer closeSink()

	recorder := audit.NewRecorder(audit.Config{
		BufferSize:    cfg.Audit.BufferSize,
		BatchSize:     cfg.Audit.BatchSize,
		FlushInterval: cfg.Audit.FlushInterval,
	}, sink, log)
	// flush pending entries before the sink goes away
	defer func() {
		if err := recorder.Close(); err != nil {
			log.Warn("audit recorder close failed", zap.Error(err))
		}
	}()

	corsCfg := middleware.DefaultCORSConfig(cfg.Tenant.Header)
	corsCfg.AllowOrigins = cfg.Server.AllowedOrigins

	container := di.NewContainer(&di.ContainerConfig{
		Logger:     log,
		TenantRepo: repository.NewPostgresTenantRepository(db.Pool()),
		UserRepo:   repository.NewPostgresUserRepository(db.Pool()),
		TaskRepo:   repository.NewPostgresTaskRepository(db.Pool()),
		AuditRepo:  auditRepo,
		Tx:         db,
		Tokens: auth.NewTokenService(auth.TokenConfig{
			Secret:          cfg.JWT.Secret,
			Issuer:          cfg.JWT.Issuer,
			AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
			RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
		}),
		Hasher:          auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Throttle:        throttle,
		Audit:           recorder,
		Version:         cfg.App.Version,
		TenantHeader:    cfg.Tenant.Header,
		CORS:            corsCfg,
		HealthChecks:    checks,
		ReloadPrincipal: true,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      container.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("audit_sink", cfg.Audit.Sink),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func loadConfig(envFile string) (*config.Config, error) {
	if envFile != "" {
		return config.LoadWithPath(envFile)
	}
	return config.Load()
}

// auditSink builds the sink named by AUDIT_SINK. The returned func releases
// any producer the sink owns.
func auditSink(ctx context.Context, cfg *config.Config, store audit.EntryStore) (audit.Sink, func(), error) {
	noop := func() {}
	if cfg.Audit.Sink == "postgres" {
		return audit.NewStoreSink(store), noop, nil
	}

	producer, err := kafka.NewProducer(ctx, &kafka.Config{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: cfg.Kafka.ClientID,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	kafkaSink := audit.NewKafkaSink(producer, cfg.Audit.Topic)
	if cfg.Audit.Sink == "kafka" {
		return kafkaSink, producer.Close, nil
	}
	return audit.MultiSink{audit.NewStoreSink(store), kafkaSink}, producer.Close, nil
}
