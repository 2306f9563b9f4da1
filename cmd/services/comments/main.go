package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/qolzam/telar/apps/comments/comments"
	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/comments/events"
	"github.com/qolzam/telar/apps/comments/comments/handlers"
	"github.com/qolzam/telar/apps/comments/comments/repository"
	"github.com/qolzam/telar/apps/comments/comments/rpc"
	"github.com/qolzam/telar/apps/comments/comments/services"
	"github.com/qolzam/telar/apps/comments/comments/subscribers"
	"github.com/qolzam/telar/apps/comments/internal/broker"
	"github.com/qolzam/telar/apps/comments/internal/cache"
	"github.com/qolzam/telar/apps/comments/internal/database/postgres"
	"github.com/qolzam/telar/apps/comments/internal/observability"
	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
	platformconfig "github.com/qolzam/telar/apps/comments/internal/platform/config"
)

func main() {
	if err := run(); err != nil {
		stdlog.Fatalf("Comments service stopped: %v", err)
	}
}

func run() error {
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.SetLevel(log.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.HealthCheck{}

	commentRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	checks["database"] = commentRepo.Ping

	cacheService, err := cache.NewServiceFromPlatform(cfg.Cache)
	if err != nil {
		log.Warn("Cache unavailable, continuing without it: %v", err)
		cacheService = nil
	}
	metrics := observability.NewMetrics()
	if cacheService != nil && cacheService.IsEnabled() {
		defer cacheService.Close()
		checks["cache"] = cacheService.Ping
		metrics.RegisterCacheStats(func() (int64, int64) {
			stats := cacheService.GetStats()
			return stats.Hits, stats.Misses
		})
	}

	var conn *broker.Connection
	var publisher events.Publisher = events.LogPublisher{}
	if cfg.Broker.Enabled {
		conn, err = broker.Dial(ctx, broker.DialConfig{URI: cfg.Broker.URI})
		if err != nil {
			return err
		}
		defer conn.Close()
		checks["broker"] = conn.HealthCheck

		amqpPublisher, err := events.NewAMQPPublisher(conn, cfg.Broker.Exchange)
		if err != nil {
			return err
		}
		publisher = amqpPublisher
	} else {
		log.Info("Broker disabled, events go to the debug log and RPC is not served")
	}
	defer publisher.Close()

	notifier := events.NewAsyncNotifier(publisher, metrics, events.NotifierConfig{
		Buffer:           cfg.Events.Buffer,
		MaxRetries:       cfg.Events.MaxRetries,
		RetryMaxInterval: cfg.Events.RetryMaxInterval,
	})

	commentService := services.NewCommentService(commentRepo, notifier, nil, cacheService, metrics)

	app := fiber.New(fiber.Config{
		AppName:               "comments",
		DisableStartupMessage: !cfg.Server.Debug,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(fiber.Map{
					"statusCode": fiberErr.Code,
					"message":    fiberErr.Message,
					"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
				})
			}
			return commentErrors.HandleServiceError(c, err)
		},
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, X-User-Id, X-Is-Moderator, X-Request-Id",
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))

	comments.RegisterRoutes(app, &comments.CommentsHandlers{
		CommentHandler: handlers.NewCommentHandler(commentService),
		HealthHandler:  handlers.NewHealthHandler(checks),
	}, cfg, metrics)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting Comments Service on %s", cfg.Server.Address())
		return app.Listen(cfg.Server.Address())
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down Comments Service")
		return app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout)
	})

	if conn != nil {
		rpcServer := rpc.NewServer(conn, rpc.ServerConfig{
			Exchange: cfg.Broker.Exchange,
			Prefetch: cfg.Broker.Prefetch,
		}, rpc.NewHandler(commentService, metrics))
		g.Go(func() error {
			return rpcServer.Run(gctx)
		})

		postEvents := subscribers.NewPostEvents(commentService)
		g.Go(func() error {
			return postEvents.Run(gctx, conn, cfg.Broker.PostsExchange)
		})
	}

	runErr := g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := notifier.Close(drainCtx); err != nil {
		log.Warn("Event queue not fully drained: %v", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// openStore returns the configured comment store and a function that releases it
func openStore(ctx context.Context, cfg *platformconfig.Config) (repository.CommentRepository, func(), error) {
	if cfg.Database.Backend == "memory" {
		log.Warn("Using the in-memory comment store, data is lost on restart")
		return repository.NewMemoryCommentRepository(), func() {}, nil
	}

	client, err := postgres.NewClient(ctx, cfg.Database.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if cfg.Database.Postgres.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := repository.Migrate(migrateCtx, client.DB()); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to migrate comment schema: %w", err)
		}
		log.Info("Comment schema is up to date")
	}

	return repository.NewPostgresCommentRepository(client), func() { client.Close() }, nil
}
