package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KirkDiggler/pf2e-sheet/internal/config"
	"github.com/KirkDiggler/pf2e-sheet/internal/engine"
	"github.com/KirkDiggler/pf2e-sheet/internal/repositories/characters"
	"github.com/KirkDiggler/pf2e-sheet/internal/rulebook"
	"github.com/KirkDiggler/pf2e-sheet/internal/server"
	charactersvc "github.com/KirkDiggler/pf2e-sheet/internal/services/character"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the character sheet HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := rulebook.LoadDir(ctx, cfg.Content.Dir)
	if err != nil {
		return err
	}
	log.Info("rulebook content loaded", zap.String("dir", cfg.Content.Dir), zap.Int("items", store.Len()))

	repo := buildRepository(ctx, cfg, log)

	svc := charactersvc.NewService(&charactersvc.ServiceConfig{
		Engine:     engine.New(store, log),
		Repository: repo,
		Logger:     log,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(&server.Config{Service: svc, Logger: log}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildRepository connects to Redis when it is reachable and falls back
// to the in-memory repository otherwise.
func buildRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) charactersvc.Repository {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, using in-memory persistence", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		return characters.NewInMemoryRepository()
	}

	log.Info("using redis persistence", zap.String("addr", cfg.Redis.Addr))
	return characters.NewRedisRepository(&characters.RedisRepoConfig{Client: client})
}
