package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"feedpulse/internal/config"
	"feedpulse/internal/handler"
	"feedpulse/internal/middleware"
	"feedpulse/internal/pkg/logger"
	"feedpulse/internal/repository"
	"feedpulse/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logger.Init(cfg.Environment)
	defer logger.Sync()

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redis, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, redis, cfg)
	handlers := handler.NewHandlers(services)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Ingest-Token",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	setupRoutes(app, handlers, cfg)

	go func() {
		logger.L().Info("server starting", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.L().Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.L().Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.L().Error("http shutdown failed", zap.Error(err))
	}
	// Drain in-flight fan-outs after the listener stops accepting events.
	if err := services.Fanout.Stop(ctx); err != nil {
		logger.L().Error("fan-out drain timed out", zap.Error(err))
	}
}

func setupRoutes(app *fiber.App, h *handler.Handlers, cfg *config.Config) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	events := v1.Group("/events", middleware.IngestRequired(cfg.IngestToken))
	events.Post("/retract", h.Event.Retract)
	events.Post("/subject-deleted", h.Event.SubjectDeleted)
	events.Post("/:kind", h.Event.Ingest)

	notifications := v1.Group("/notifications", middleware.ViewerRequired(cfg.JWTSecret))
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.UnreadCount)
	notifications.Post("/mark-read", h.Notification.MarkRead)
}
