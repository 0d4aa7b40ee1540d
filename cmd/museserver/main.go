// Command museserver wires the core up for a single process: load config,
// open storage, construct the aggregator, register the reference in-memory
// library and a null player backend, start the sync loop, and wait for
// SIGINT/SIGTERM (following server.go's shape, minus the GraphQL/HTTP layer
// that is an out-of-scope frontend here).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daedal00/muse/internal/aggregator"
	"github.com/daedal00/muse/internal/cache"
	"github.com/daedal00/muse/internal/config"
	"github.com/daedal00/muse/internal/extension"
	"github.com/daedal00/muse/internal/library"
	"github.com/daedal00/muse/internal/player"
	"github.com/daedal00/muse/internal/player/backend"
	"github.com/daedal00/muse/internal/player/bus"
	"github.com/daedal00/muse/internal/storage"
	"github.com/daedal00/muse/internal/storage/postgres"
)

func main() {
	log.Println("🚀 Starting Muse core...")

	log.Println("[CONFIG] Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ERROR] failed to load configuration: %v", err)
	}
	log.Printf("[CONFIG] environment=%s sync_interval=%s extension_dir=%s", cfg.Environment, cfg.SyncInterval, cfg.ExtensionDir)

	ctx := context.Background()

	opener, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("[ERROR] failed to open storage: %v", err)
	}
	defer opener.Close()
	log.Println("[STORAGE] ✅ collection storage ready")

	lib := library.NewMemStore()
	defer lib.Close()
	log.Println("[LIBRARY] ✅ in-memory library store ready")

	art, err := cache.New(ctx, opener, 24*time.Hour)
	if err != nil {
		log.Fatalf("[ERROR] failed to construct cover-art cache: %v", err)
	}

	host, err := extension.NewHost(ctx, lib, opener)
	if err != nil {
		log.Fatalf("[ERROR] failed to construct extension host: %v", err)
	}
	log.Println("[EXTENSION] ✅ host ready")

	if cfg.ExtensionDir != "" {
		if _, err := os.Stat(cfg.ExtensionDir); err == nil {
			if err := host.Discover(ctx, cfg.ExtensionDir); err != nil {
				log.Printf("[ERROR] extension discovery: %v", err)
			}
		} else {
			log.Printf("[EXTENSION] extension_dir %s does not exist, skipping discovery", cfg.ExtensionDir)
		}
	}

	agg := aggregator.New(lib, host, art, cfg.SyncInterval)

	defaultComp := player.New("default", func(b *bus.Bus) backend.Backend {
		return backend.NewNullBackend(b)
	}, agg)
	agg.AddPlayer("default", defaultComp, true)
	log.Println("[PLAYER] ✅ default player registered (null backend)")

	agg.StartSyncLoop()
	log.Printf("🚀 Muse core ready, syncing every %s", cfg.SyncInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down...")

	agg.Stop()
	if err := defaultComp.Close(); err != nil {
		log.Printf("[ERROR] closing default player: %v", err)
	}
	log.Println("✅ Muse core exited")
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Opener, error) {
	if cfg.DatabaseURL != "" {
		log.Println("[STORAGE] using Postgres-backed collection storage")
		return postgres.NewOpener(ctx, cfg.DatabaseURL)
	}
	if cfg.RedisURL != "" && cfg.Environment != "development" {
		log.Println("[STORAGE] using Redis-backed collection storage")
		return storage.NewRedisOpener(cfg.RedisURL)
	}
	log.Println("[STORAGE] using in-memory collection storage (development default)")
	return storage.NewMemoryOpener(), nil
}
