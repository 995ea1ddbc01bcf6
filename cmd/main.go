package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/accounts-api/internal/command"
	"github.com/eaglebank/accounts-api/internal/config"
	"github.com/eaglebank/accounts-api/internal/handler"
	"github.com/eaglebank/accounts-api/internal/logger"
	"github.com/eaglebank/accounts-api/internal/query"
	"github.com/eaglebank/accounts-api/internal/repository"
	"github.com/eaglebank/accounts-api/migrations"
	"github.com/eaglebank/accounts-api/shared/events"
	"github.com/eaglebank/accounts-api/shared/middleware"
	redisClient "github.com/eaglebank/accounts-api/shared/redis"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	if err := start(cfg); err != nil {
		log.Fatal().Err(err).Msg("Accounts API stopped")
	}
}

func start(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (source of truth)
	db, err := repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return run(ctx, cfg, db)
}

// run owns db from here on and closes it before returning, whether startup
// fails or the server shuts down after ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, db *sql.DB) error {
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to disconnect from database")
			return
		}
		log.Info().Msg("Disconnected from database")
	}()

	if cfg.DBMigrate {
		if err := migrations.AutoMigrate(ctx, db, 5); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info().Msg("Database schema is up to date")
	}

	// Redis connection (list cache + event stream), optional
	var rdb *goredis.Client
	var publisher *events.Publisher
	if cfg.RedisEnabled {
		redis, err := redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer redis.Close()
		rdb = redis.Client
		publisher = events.NewPublisher(rdb)
	} else {
		log.Warn().Msg("Redis disabled: list cache and account events are off")
	}

	// --- CQRS wiring ---
	writeRepo := repository.NewAccountWriteRepository(db)
	readRepo := repository.NewAccountReadRepository(db, rdb, cfg.CacheTTL)

	commandSvc := command.NewAccountCommandService(writeRepo, readRepo, publisher)
	querySvc := query.NewAccountQueryService(readRepo)

	accountHandler := handler.NewAccountHandler(commandSvc, querySvc, cfg.DBQueryTimeout)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(db, accountHandler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Accounts API starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shut down: %w", err)
	}
	return nil
}

func newRouter(db handler.Pinger, accountHandler *handler.AccountHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.LoggingMiddleware())

	router.GET("/health", handler.Health(db))

	accounts := router.Group("/accounts")
	{
		accounts.GET("", accountHandler.ListAccounts)
		accounts.POST("", accountHandler.CreateAccount)
		accounts.DELETE("", accountHandler.DeleteAccount)
	}
	return router
}
