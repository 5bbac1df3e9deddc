package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/api-sage/pix-ledger-service/src/internal/adapter/http/controller"
	"github.com/api-sage/pix-ledger-service/src/internal/adapter/http/middleware"
	"github.com/api-sage/pix-ledger-service/src/internal/adapter/http/router"
	"github.com/api-sage/pix-ledger-service/src/internal/adapter/repository/memory"
	"github.com/api-sage/pix-ledger-service/src/internal/adapter/repository/postgres"
	"github.com/api-sage/pix-ledger-service/src/internal/adapter/repository/redis"
	"github.com/api-sage/pix-ledger-service/src/internal/config"
	"github.com/api-sage/pix-ledger-service/src/internal/domain"
	"github.com/api-sage/pix-ledger-service/src/internal/logger"
	"github.com/api-sage/pix-ledger-service/src/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accountRepo, err := buildAccountRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("initialize account store: %v", err)
	}

	accountService := services.NewAccountService(accountRepo)
	transferService := services.NewTransferService(accountRepo)

	accountController := controller.NewAccountController(accountService)
	transferController := controller.NewTransferController(transferService)

	mux := router.New(accountController, transferController, middleware.RequestID())

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", logger.Fields{
			"addr":    cfg.HTTPAddr,
			"backend": string(cfg.StoreBackend),
		})
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("server shutdown: %v", err)
		}
		logger.Info("http server stopped", nil)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}
}

func buildAccountRepository(ctx context.Context, cfg config.Config) (domain.AccountRepository, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := postgres.RunMigrations(initCtx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
			return nil, err
		}

		db, err := postgres.Open(initCtx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return postgres.NewAccountRepository(db), nil
	case config.StoreBackendRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, err
		}
		return redis.NewAccountRepository(client), nil
	default:
		return memory.NewAccountRepository(), nil
	}
}
