package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/pokemon-roulette/internal/auth"
	"github.com/iliyamo/pokemon-roulette/internal/config"
	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/handler"
	"github.com/iliyamo/pokemon-roulette/internal/middleware"
	"github.com/iliyamo/pokemon-roulette/internal/queue"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
	"github.com/iliyamo/pokemon-roulette/internal/router"
	"github.com/iliyamo/pokemon-roulette/internal/schema"
	"github.com/iliyamo/pokemon-roulette/internal/service"
	"github.com/iliyamo/pokemon-roulette/internal/worker"
)

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Dev() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func main() {
	_ = godotenv.Load() // .env is optional

	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, dialect, err := database.OpenConfig(cfg)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := schema.Default().Apply(ctx, db, dialect); err != nil {
		log.Fatalf("schema: %v", err)
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable, cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	cache := middleware.NewRedisCache(cacheCfg, rdb)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	events := service.NewRabbitPublisher(cfg.RabbitMQURL, logger)

	authAdapter := auth.NewAdapter(db, cfg.BcryptCost)
	catalog := service.NewCatalogService(db)
	roulette := service.NewRouletteService(db, events, logger)
	expeditions := service.NewExpeditionService(db, events, logger)
	purge := func(ctx context.Context) error { return middleware.PurgeCache(ctx, rdb, cacheCfg.Prefix) }

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logger.Error("request", append(attrs, "err", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, authAdapter, events, logger), cfg.JWTSecret, limit)
	router.RegisterPublic(e, handler.NewCatalogHandler(catalog), limit, cache)
	router.RegisterPlayer(e, handler.NewPlayerHandler(
		repository.NewCurrencyRepo(db),
		repository.NewInventoryRepo(db),
		roulette,
		expeditions,
	), cfg.JWTSecret, limit)
	router.RegisterAdmin(e, handler.NewAdminHandler(
		catalog,
		repository.NewUserRepo(db),
		repository.NewCurrencyRepo(db),
		roulette,
		purge,
		logger,
	), cfg.JWTSecret, limit)

	if strings.TrimSpace(cfg.RabbitMQURL) != "" {
		consumer := queue.NewActivityConsumer(cfg.RabbitMQURL, cfg.LogDir, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("activity consumer stopped", "err", err)
			}
		}()
	}

	janitor := worker.NewJanitor(db, logger)
	if err := janitor.Start(config.LoadJanitorConfig()); err != nil {
		log.Fatalf("janitor: %v", err)
	}

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "dialect", dialect.String())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	janitor.Stop(shutdownCtx)
}
