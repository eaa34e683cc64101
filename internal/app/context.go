package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/sparkmatch/discovery/internal/cache"
	"github.com/sparkmatch/discovery/internal/config"
)

// AppContext holds shared dependencies (DB, caches, logger, config).
type AppContext struct {
	DB         *gorm.DB
	Cache      *cache.MemoryCache
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Config     *config.Config
}

// New creates a new AppContext.
func New(db *gorm.DB, mem *cache.MemoryCache, rdb *cache.RedisCache, logger *slog.Logger, cfg *config.Config) *AppContext {
	return &AppContext{
		DB:         db,
		Cache:      mem,
		RedisCache: rdb,
		Logger:     logger,
		Config:     cfg,
	}
}
