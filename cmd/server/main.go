package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ctchen222/bookshelf/internal/api/controller"
	"ctchen222/bookshelf/internal/api/middleware"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/api/service"
	"ctchen222/bookshelf/internal/config"
	"ctchen222/bookshelf/internal/db"
	"ctchen222/bookshelf/internal/events"
	"ctchen222/bookshelf/internal/logger"
	"ctchen222/bookshelf/internal/server"
	"ctchen222/bookshelf/internal/telemetry"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize telemetry before the logger so the otel log bridge picks up
	// the configured provider.
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	gin.SetMode(gin.ReleaseMode)

	// Initialize SQLite DB
	DB, err := db.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to initialize sqlite db: %v", err)
	}
	defer DB.Close()

	// Redis is optional; without it tokens are resolved from the database
	// and no change events are published.
	tokenCache := repository.NewNopTokenCache()
	var publisher events.Publisher = events.NopPublisher{}
	var subscriber events.Subscriber
	if cfg.RedisAddr != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("failed to initialize redis: %v", err)
		}
		defer rdb.Close()

		broker := events.NewRedisBroker(rdb)
		tokenCache = repository.NewTokenCache(rdb)
		publisher = broker
		subscriber = broker
	} else {
		slog.WarnContext(ctx, "REDIS_CONNSTRING not set, running without token cache and list item events")
	}

	// Create repositories
	userRepo := repository.NewUserRepository(DB)
	bookRepo := repository.NewBookRepository(DB)
	listItemRepo := repository.NewListItemRepository(DB)

	// Create services
	issuer := service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(userRepo, tokenCache, issuer, cfg.Auth.BcryptCost)
	listItemService := service.NewListItemService(listItemRepo, bookRepo, publisher)

	srv := server.NewServer(server.Options{
		Guard:      middleware.NewGuard(authService, listItemRepo),
		Auth:       controller.NewAuthController(authService),
		ListItems:  controller.NewListItemController(listItemService),
		Books:      controller.NewBookController(bookRepo),
		Subscriber: subscriber,
		HealthCheck: func(ctx context.Context) error {
			return DB.PingContext(ctx)
		},
	})

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server started", "http.addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	slog.InfoContext(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "Server forced to shutdown", "error", err)
	}

	slog.InfoContext(ctx, "Server exiting")
}
