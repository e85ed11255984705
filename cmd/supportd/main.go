package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/curadesk/support-platform/internal/api/http"
	"github.com/curadesk/support-platform/internal/api/http/handlers"
	"github.com/curadesk/support-platform/internal/archive"
	"github.com/curadesk/support-platform/internal/auth"
	"github.com/curadesk/support-platform/internal/authclient"
	"github.com/curadesk/support-platform/internal/config"
	"github.com/curadesk/support-platform/internal/events"
	"github.com/curadesk/support-platform/internal/observability"
	"github.com/curadesk/support-platform/internal/persistence"
	"github.com/curadesk/support-platform/internal/repository"
	"github.com/curadesk/support-platform/internal/ticket"
)

const version = "1.0.0"

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

	pg, err := persistence.NewPostgres(ctx, cfg.SupportPostgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.SupportPostgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.SupportPostgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	registerAuditLog(dispatcher, logger)

	ticketService := ticket.NewService(ticket.Dependencies{
		TicketRepo:     ticketRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		Archiver:       archive.NewArchiver(cfg.Archive),
		Dispatcher:     dispatcher,
		Logger:         logger,
	})

	identityClient := authclient.NewClient(cfg.IdentityClient, metrics, logger)
	authMiddleware := auth.NewMiddleware(identityClient, logger)

	app := fiber.New(fiber.Config{AppName: cfg.Support.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.Support.RequestTimeout())

	ticketsHandler := handlers.NewTicketsHandler(ticketService)
	httptransport.RegisterSupportRoutes(app, httptransport.SupportRouteConfig{
		Health:         handlers.NewHealthHandler(cfg.Support.Name, version, pg, nil),
		Tickets:        ticketsHandler,
		AdminTickets:   handlers.NewAdminTicketsHandler(ticketService, ticketsHandler),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.Support.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// registerAuditLog wires the event stream into the structured log. Events
// carry ids and roles only, so logging them whole is safe.
func registerAuditLog(dispatcher events.Dispatcher, logger *zap.Logger) {
	audit := func(_ context.Context, event events.Event) error {
		logger.Info("audit",
			zap.String("event", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Int64("actor_user_id", event.ActorUserID),
			zap.String("actor_role", string(event.ActorRole)),
			zap.Any("payload", event.Payload),
		)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStateChanged,
		events.EventCommentAdded,
		events.EventBundleStored,
	} {
		dispatcher.Subscribe(eventType, audit)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
