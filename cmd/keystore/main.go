// Package main запускает HTTP-сервер магазина ключей.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/keystore/internal/auth"
	"github.com/mmeshcher/keystore/internal/cache"
	"github.com/mmeshcher/keystore/internal/config"
	"github.com/mmeshcher/keystore/internal/events"
	"github.com/mmeshcher/keystore/internal/handler"
	"github.com/mmeshcher/keystore/internal/middleware"
	"github.com/mmeshcher/keystore/internal/repository"
	"github.com/mmeshcher/keystore/internal/service"
)

func newLogger(development bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openRepository(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (service.Repository, error) {
	if cfg.DatabaseURI == "" {
		sugar.Warn("DATABASE_URI is not set, using in-memory storage")
		return repository.NewMemoryRepository(), nil
	}
	return repository.NewPostgresRepository(ctx, cfg.DatabaseURI)
}

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Development())
	defer logger.Sync()

	sugar := logger.Sugar()

	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	var sliceCache service.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.Connect(ctx, cfg.RedisAddr, "keystore:", cfg.CacheTTL)
		if err != nil {
			sugar.Fatalw("cache initialization error", "error", err.Error())
		}
		defer redisCache.Close()
		sliceCache = redisCache
	}

	var publisher service.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	if cfg.JWTSecret == "" {
		sugar.Warn("JWT_SECRET is not set, tokens will not survive a restart")
	}
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpire)

	svc := service.NewService(repo, tokens, sliceCache, publisher, logger)
	defer svc.Close()

	if err := svc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		sugar.Fatalw("admin bootstrap error", "error", err.Error())
	}

	authMiddleware := middleware.NewAuthMiddleware(svc, logger)
	h := handler.NewHandler(svc, logger, authMiddleware, cfg.Development())

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting keystore server", "addr", cfg.RunAddress, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
