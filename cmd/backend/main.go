package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/app"
	"github.com/Freeeeeet/learnifyr/internal/auth"
	"github.com/Freeeeeet/learnifyr/internal/botevents"
	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/Freeeeeet/learnifyr/internal/config"
	"github.com/Freeeeeet/learnifyr/internal/controller/api"
	"github.com/Freeeeeet/learnifyr/internal/metrics"
	"github.com/Freeeeeet/learnifyr/internal/notification"
	"github.com/Freeeeeet/learnifyr/internal/repository"
	"github.com/Freeeeeet/learnifyr/internal/repository/base"
	"github.com/Freeeeeet/learnifyr/internal/service"
	"github.com/Freeeeeet/learnifyr/internal/storage"
	"github.com/Freeeeeet/learnifyr/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadBackend()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, "backend")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Backend stopped with error", zap.Error(err))
	}
	logger.Info("Backend stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DBDSN)
	if err != nil {
		return err
	}
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("Connected to database")

	if cfg.DBAutoMigrate {
		migrator, err := app.NewMigrator(pool, migrations.FS, ".", logger)
		if err != nil {
			return err
		}
		err = migrator.Run(ctx)
		migrator.Close()
		if err != nil {
			return err
		}
	}

	// Redis streams
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	streams := bus.NewStreams(rdb, cfg.StreamMaxLen, cfg.StreamBlock)

	// Репозитории
	db := base.NewRepository(pool)
	tx := base.NewTxManager(pool)

	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	subjects := repository.NewSubjectRepository(db)
	apps := repository.NewApplicationRepository(db)
	matches := repository.NewMatchRepository(db)
	reviews := repository.NewReviewRepository(db)
	tokens := repository.NewTokenRepository(db)
	outbox := repository.NewOutboxRepository(db)

	notifier := notification.NewNotifier(outbox, cfg.StreamFromBackend, logger)
	dispatcher := notification.NewDispatcher(tx, outbox, streams, cfg.OutboxBatch, cfg.OutboxMaxAttempts, logger)

	avatars, err := storage.New(ctx, storage.Config{
		Endpoint:       cfg.MinioEndpoint,
		PublicEndpoint: cfg.MinioPublicEndpoint,
		AccessKey:      cfg.MinioUser,
		SecretKey:      cfg.MinioPassword,
		Region:         cfg.MinioRegion,
		Bucket:         cfg.MinioBucket,
	}, logger)
	if err != nil {
		return err
	}
	if err := avatars.EnsureBucket(ctx); err != nil {
		return err
	}

	issuer := auth.NewIssuer(cfg.JWTSecretKey, cfg.JWTAccessTokenExpires, cfg.JWTRefreshExpires)

	// Сервисы
	authService := service.NewAuthService(tx, users, tokens, issuer, notifier, logger)
	applicationService := service.NewApplicationService(tx, apps, matches, subjects, students, teachers, notifier, logger)
	matchService := service.NewMatchService(tx, matches, students, teachers, notifier, logger)
	reviewService := service.NewReviewService(tx, reviews, matches, students, teachers, notifier, logger)
	profileService := service.NewProfileService(service.ProfileDeps{
		Tx:       tx,
		Users:    users,
		Students: students,
		Teachers: teachers,
		Subjects: subjects,
		Reviews:  reviews,
		Matches:  matches,
		Apps:     apps,
		Tokens:   tokens,
		Avatars:  avatars,
	}, logger)
	subjectService := service.NewSubjectService(subjects)

	// Фоновые задачи: outbox → поток backend→bot
	scheduler := app.NewScheduler(logger, app.Task{
		Name:     "outbox_dispatch",
		Interval: cfg.OutboxInterval,
		Run:      dispatcher.Drain,
	})
	scheduler.Start(ctx)

	// События от бота
	consumer := bus.NewConsumer(streams, cfg.StreamToBackend, cfg.BackendPollInterval, logger)
	botevents.NewListener(authService, reviewService, notifier, logger).Register(consumer)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		consumer.Run(ctx)
	}()

	metrics.MustRegister()

	server := api.NewServer(api.Config{
		CORSOrigins:   cfg.CORSOrigins,
		CookieSecure:  cfg.CookieSecure,
		AccessCookie:  cfg.JWTCookieAccessName,
		RefreshCookie: cfg.JWTCookieRefreshName,
		AccessTTL:     cfg.JWTAccessTokenExpires,
		RefreshTTL:    cfg.JWTRefreshExpires,
	}, api.Services{
		Auth:         authService,
		Applications: applicationService,
		Matches:      matchService,
		Reviews:      reviewService,
		Profiles:     profileService,
		Subjects:     subjectService,
	}, issuer, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	scheduler.Stop(cfg.ShutdownTimeout)
	<-consumerDone

	return nil
}
