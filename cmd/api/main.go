package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civic-request-service/internal/api/http"
	"github.com/spec-kit/civic-request-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-request-service/internal/auth"
	"github.com/spec-kit/civic-request-service/internal/config"
	"github.com/spec-kit/civic-request-service/internal/events"
	"github.com/spec-kit/civic-request-service/internal/notify"
	"github.com/spec-kit/civic-request-service/internal/observability"
	"github.com/spec-kit/civic-request-service/internal/persistence"
	"github.com/spec-kit/civic-request-service/internal/repository"
	"github.com/spec-kit/civic-request-service/internal/service"
	"github.com/spec-kit/civic-request-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisConn := persistence.NewRedis(cfg.Redis, logger)
	defer redisConn.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	updateRepo := repository.NewUpdateRepository(pool)
	txManager := repository.NewTxManager(pool)

	dispatcher := events.NewInMemoryDispatcher()

	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo:      requestRepo,
		UserRepo:         userRepo,
		CategoryRepo:     categoryRepo,
		UpdateRepo:       updateRepo,
		Tx:               txManager,
		Dispatcher:       dispatcher,
		Policy:           service.PolicyFromConfig(cfg.Lifecycle.StrictTransitions),
		FallbackSLAHours: cfg.Lifecycle.FallbackSLAHours,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		RequestRepo:    requestRepo,
		AssignmentRepo: assignmentRepo,
		UserRepo:       userRepo,
		UpdateRepo:     updateRepo,
		Tx:             txManager,
		Dispatcher:     dispatcher,
	})
	dashboardService := service.NewDashboardService(requestRepo, categoryRepo, redisConn.Client, logger, cfg.Lifecycle.DashboardCacheTTL)
	authService := service.NewAuthService(*cfg, userRepo)

	var notifier service.Notifier
	if emailNotifier := notify.NewEmailNotifier(cfg.Notification); emailNotifier != nil {
		notifier = emailNotifier
	}
	notificationService := service.NewNotificationService(dispatcher, notifier, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisConn),
		Requests:       handlers.NewRequestsHandler(requestService),
		Admin:          handlers.NewAdminHandler(requestService, assignmentService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
