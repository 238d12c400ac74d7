package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campushub/campushub/internal/app"
	"github.com/campushub/campushub/internal/auth"
	"github.com/campushub/campushub/internal/authz"
	"github.com/campushub/campushub/internal/club"
	"github.com/campushub/campushub/internal/event"
	"github.com/campushub/campushub/internal/flag"
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/membership"
	"github.com/campushub/campushub/internal/moderation"
	"github.com/campushub/campushub/internal/notify"
	"github.com/campushub/campushub/internal/observability"
	"github.com/campushub/campushub/internal/platform/cache"
	"github.com/campushub/campushub/internal/platform/db"
	"github.com/campushub/campushub/internal/shared"
	"github.com/campushub/campushub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "campushub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()

	identityRepo := identity.NewRepository(dbpool)
	resolver := identity.NewResolver(identityRepo)
	principal := authz.Middleware{Resolver: resolver, Logger: logger}
	identityHandler := identity.NewHandler(logger, resolver)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, resolver)
	authHandler := auth.NewHandler(logger, authService, resolver, sessionManager)

	modlog := moderation.NewRecorder(dbpool, logger, metrics.CountModerationLogFailure)
	moderationRepo := moderation.NewRepository(dbpool)
	moderationService := moderation.NewService(moderationRepo)
	moderationHandler := moderation.NewHandler(logger, moderationService)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	notifier := notify.NewEmailNotifier(dbpool, jobsClient, logger)

	clubRepo := club.NewRepository(dbpool)
	clubService := club.NewService(clubRepo, modlog,
		club.WithNotifier(notifier),
		club.WithConflictCounter(metrics.CountDecisionConflict))
	clubHandler := club.NewHandler(logger, clubService)

	membershipRepo := membership.NewRepository(dbpool)
	membershipService := membership.NewService(clubRepo, membershipRepo,
		membership.WithConflictCounter(metrics.CountDecisionConflict))
	membershipHandler := membership.NewHandler(logger, membershipService)

	eventRepo := event.NewRepository(dbpool)
	eventService := event.NewService(clubRepo, membershipRepo, eventRepo)
	eventHandler := event.NewHandler(logger, eventService)

	flagService := flag.NewService(clubRepo, eventRepo, flag.NewRepository(dbpool), modlog,
		flag.WithConflictCounter(metrics.CountDecisionConflict))
	flagHandler := flag.NewHandler(logger, flagService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		IdentityHandler:   identityHandler,
		ClubHandler:       clubHandler,
		MembershipHandler: membershipHandler,
		EventHandler:      eventHandler,
		FlagHandler:       flagHandler,
		ModerationHandler: moderationHandler,
		JobHandler:        jobHandler,
		Principal:         principal,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
