// Package appbuilder wires the engine, cache, repository, and game service
// together from application configuration.
package appbuilder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmelim/matebot/internal/config"
	"github.com/dmelim/matebot/internal/engine"
	"github.com/dmelim/matebot/internal/server"
	"github.com/dmelim/matebot/internal/service/cache"
	svcgame "github.com/dmelim/matebot/internal/service/game"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Deps struct {
	Service *svcgame.Service
	Engine  *engine.Engine
	Cache   *cache.CacheService
	Repo    svcgame.Repository
	Hub     *server.WatchHub

	db *sql.DB
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	hub := server.NewWatchHub()
	eng := engine.NewEngine(
		engine.WithLogger(logger),
		engine.WithProgress(hub.Publish),
	)
	if cfg.EngineSeed != 0 {
		eng.SetRandomSeed(cfg.EngineSeed)
	}

	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required for game sessions")
	}
	ropts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	cacheSvc, err := cache.NewCacheService(redis.NewClient(ropts), logger)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	var (
		repo svcgame.Repository
		db   *sql.DB
	)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		repo = svcgame.NewRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repository")
		repo = svcgame.NewMemoryRepository()
	}

	svcCfg := svcgame.Config{
		DefaultPreset: cfg.DefaultPreset,
		SessionTTL:    time.Duration(cfg.SessionTTLSec) * time.Second,
		HistoryLimit:  cfg.HistoryLimit,
	}
	service, err := svcgame.NewService(eng, cacheSvc, repo, svcCfg, logger)
	if err != nil {
		return nil, err
	}

	return &Deps{
		Service: service,
		Engine:  eng,
		Cache:   cacheSvc,
		Repo:    repo,
		Hub:     hub,
		db:      db,
	}, nil
}

func (d *Deps) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
