package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/helpdesk-internal/chamados-service/internal/api/http"
	"github.com/helpdesk-internal/chamados-service/internal/api/http/handlers"
	"github.com/helpdesk-internal/chamados-service/internal/auth"
	"github.com/helpdesk-internal/chamados-service/internal/config"
	"github.com/helpdesk-internal/chamados-service/internal/events"
	"github.com/helpdesk-internal/chamados-service/internal/observability"
	"github.com/helpdesk-internal/chamados-service/internal/persistence"
	"github.com/helpdesk-internal/chamados-service/internal/repository"
	"github.com/helpdesk-internal/chamados-service/internal/sequence"
	"github.com/helpdesk-internal/chamados-service/internal/service"
	"github.com/helpdesk-internal/chamados-service/internal/worker"
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

	pool := pg.PoolHandle()
	if pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisConn := persistence.NewRedis(cfg.Redis, logger)
	defer redisConn.Close()

	var (
		ticketRepo  repository.TicketRepository
		accountRepo repository.AccountRepository
		counters    sequence.CounterStore
	)
	if pool != nil {
		ticketRepo = repository.NewTicketRepository(pool, logger)
		accountRepo = repository.NewAccountRepository(pool)
		counters = repository.NewCounterRepository(pool)
	} else {
		ticketRepo = repository.NewMemoryTicketRepository()
		accountRepo = repository.NewMemoryAccountRepository()
		counters = repository.NewMemoryCounterStore()
	}

	sequencer := sequence.New(counters, logger)

	dispatcher := events.NewAsyncDispatcher(events.Options{
		QueueSize:      cfg.Notification.QueueSize,
		MaxAttempts:    cfg.Notification.MaxAttempts,
		AttemptTimeout: cfg.Notification.AttemptTimeout(),
		RetryBackoff:   cfg.Notification.RetryBackoff(),
	}, logger)
	defer dispatcher.Close()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		AccountRepo: accountRepo,
		Sequencer:   sequencer,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	accountService := service.NewAccountService(cfg.Auth, accountRepo, sequencer, logger)

	if cfg.Auth.SeedDefaultAccounts {
		if err := accountService.SeedDefaults(ctx); err != nil {
			logger.Fatal("failed to seed default accounts", zap.Error(err))
		}
	}

	notificationService := service.NewNotificationService(
		dispatcher,
		service.LogSender{Logger: logger},
		redisConn.Client,
		logger,
		cfg.Notification,
	)
	worker.StartNotificationWorker(notificationService)

	metrics := observability.NewMetrics()
	authMiddleware := auth.NewMiddleware(accountService.TokenManager(), accountRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisConn),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Accounts:       handlers.NewAccountsHandler(accountService),
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
