package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/ayachi01/FixItWeb/internal/api/http"
	"github.com/ayachi01/FixItWeb/internal/api/http/handlers"
	"github.com/ayachi01/FixItWeb/internal/auth"
	"github.com/ayachi01/FixItWeb/internal/config"
	"github.com/ayachi01/FixItWeb/internal/events"
	"github.com/ayachi01/FixItWeb/internal/observability"
	"github.com/ayachi01/FixItWeb/internal/persistence"
	"github.com/ayachi01/FixItWeb/internal/relay"
	"github.com/ayachi01/FixItWeb/internal/repository"
	"github.com/ayachi01/FixItWeb/internal/roles"
	"github.com/ayachi01/FixItWeb/internal/service"
	"github.com/ayachi01/FixItWeb/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	codeRepo := repository.NewCodeRepository(pool)
	inviteRepo := repository.NewInviteRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	locationRepo := repository.NewLocationRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)

	registry, err := loadRegistry(ctx, roleRepo, cfg.Accounts.FallbackRole, logger)
	if err != nil {
		logger.Fatal("failed to load role catalog", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()

	auditService := service.NewAuditService(service.AuditDependencies{
		AuditRepo:             auditRepo,
		Logger:                logger,
		RetentionDays:         cfg.Audit.RetentionDays,
		HighSensRetentionDays: cfg.Audit.HighSensRetentionDays,
	})
	accountService := service.NewAccountService(*cfg, service.AccountDependencies{
		UserRepo:   userRepo,
		CodeRepo:   codeRepo,
		Registry:   registry,
		Dispatcher: dispatcher,
		Audit:      auditService,
		Tx:         pg,
	})
	inviteService := service.NewInviteService(*cfg, service.InviteDependencies{
		InviteRepo: inviteRepo,
		UserRepo:   userRepo,
		Registry:   registry,
		Dispatcher: dispatcher,
		Audit:      auditService,
		Tx:         pg,
	})
	ticketService := service.NewTicketService(*cfg, service.TicketDependencies{
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		LocationRepo: locationRepo,
		Registry:     registry,
		Dispatcher:   dispatcher,
		Audit:        auditService,
		Tx:           pg,
	})
	locationService := service.NewLocationService(locationRepo)

	notificationService := service.NewNotificationService(dispatcher, redis.Client, cfg.Relay.Channel, logger)
	notificationService.RegisterHandlers()

	authMiddleware := auth.NewAuthMiddleware(accountService.TokenManager(), userRepo, registry)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Accounts:       handlers.NewAccountsHandler(accountService),
		Invites:        handlers.NewInvitesHandler(inviteService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Locations:      handlers.NewLocationsHandler(locationService),
		Audit:          handlers.NewAuditHandler(auditService),
		Roles:          handlers.NewRolesHandler(registry),
		AuthMiddleware: authMiddleware,
	})

	scheduler := worker.NewScheduler(worker.SchedulerConfig{
		SweepInterval:   cfg.Escalation.SweepInterval(),
		CleanupInterval: time.Duration(cfg.Audit.CleanupIntervalHours) * time.Hour,
		OTPTTL:          cfg.Accounts.OTPTTL(),
		ResetCodeTTL:    cfg.Accounts.ResetCodeTTL(),
	}, ticketService, auditService, codeRepo, logger)
	scheduler.Start(ctx)

	relayServer := relay.NewServer(cfg.Relay, accountService.TokenManager(), redis.Client, logger)
	relayServer.Start(ctx)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("api listening", zap.String("addr", cfg.App.Addr()))

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = app.Shutdown()
	relayServer.Stop(shutdownCtx)
	scheduler.Stop()
}

// loadRegistry reads the role catalog from the database, falling back to the
// built-in seed when the tables are empty (first boot before the seed
// migration has run).
func loadRegistry(ctx context.Context, roleRepo repository.RoleRepository, fallbackRole string, logger *zap.Logger) (*roles.Registry, error) {
	catalog, err := roleRepo.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	mappings, err := roleRepo.LoadDomainMappings(ctx)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		logger.Warn("role catalog empty, using built-in seed")
		catalog = roles.SeedCatalog()
		mappings = roles.SeedDomainMappings()
	}
	return roles.NewRegistry(catalog, mappings, fallbackRole), nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
