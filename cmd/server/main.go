package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colletr/colletr/backend/internal/api"
	"github.com/colletr/colletr/backend/internal/catalog"
	"github.com/colletr/colletr/backend/internal/config"
	"github.com/colletr/colletr/backend/internal/logger"
	"github.com/colletr/colletr/backend/internal/persist"
	"github.com/colletr/colletr/backend/internal/services"
	"github.com/colletr/colletr/backend/internal/storage"
	"github.com/colletr/colletr/backend/internal/valuation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blobStore, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open storage", logger.Error(err))
	}
	defer blobStore.Close()
	log.Info("storage ready", logger.String("backend", cfg.StorageBackend))

	adapter := persist.NewAdapter(blobStore)
	loaded, err := adapter.Load(ctx)
	if err != nil {
		// A corrupt snapshot is not silently discarded; the operator
		// decides whether to repair or wipe the blob.
		log.Fatal("failed to load catalog state", logger.Error(err))
	}
	switch {
	case loaded.FirstRun:
		log.Info("no stored state found, starting fresh")
	case loaded.Migrated:
		log.Info("legacy single-collection data migrated",
			logger.Int("items", len(loaded.Collections[0].Items)))
	default:
		log.Info("catalog state loaded",
			logger.Int("collections", len(loaded.Collections)))
	}

	categories, err := adapter.LoadCategories(ctx)
	if err != nil {
		log.Fatal("failed to load custom categories", logger.Error(err))
	}

	store := catalog.NewStore(log, catalog.ChangeHooks{
		Collections: adapter.SaveCollections,
		Categories:  adapter.SaveCategories,
	})
	store.Bootstrap(loaded.Collections, categories)

	gateway := valuation.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiRequestsPerMinute, log)
	worker := services.NewAlertWorker(store, gateway, cfg.AlertCheckInterval, log)

	// Alert worker with panic recovery; a crash restarts it after 30s
	// instead of taking the server down.
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Error("alert worker panicked, restarting in 30s",
							logger.String("panic", fmt.Sprint(r)))
					}
				}()
				worker.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return
			case <-time.After(30 * time.Second):
			}
		}
	}()

	router := api.SetupRouter(cfg, store, gateway, worker)
	srv := &http.Server{
		Addr:    cfg.ListenPort,
		Handler: router,
	}

	go func() {
		log.Info("server listening", logger.String("addr", cfg.ListenPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", logger.Error(err))
	}
	log.Info("server exited")
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		return storage.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewSQLiteStore(cfg.SQLitePath)
	}
}
