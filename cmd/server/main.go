package main

import (
	"context"

	"github.com/sparkmatch/discovery/internal/app"
	"github.com/sparkmatch/discovery/internal/cache"
	"github.com/sparkmatch/discovery/internal/config"
	"github.com/sparkmatch/discovery/internal/db"
	"github.com/sparkmatch/discovery/internal/logger"
	"github.com/sparkmatch/discovery/internal/server"
	"github.com/sparkmatch/discovery/internal/service/discovery"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// In-process page cache with its sweeper; lifecycle owned here.
	memCache := cache.NewMemoryCache()
	memCache.StartSweeper(cfg.Cache.SweepInterval)
	defer memCache.Stop()

	appCtx := app.New(database, memCache, redisCache, log, cfg)

	registrars := []server.Registrar{
		discovery.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
