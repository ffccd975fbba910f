package main

import (
	"context"

	"github.com/emberdate/engine/internal/app"
	"github.com/emberdate/engine/internal/cache"
	"github.com/emberdate/engine/internal/config"
	"github.com/emberdate/engine/internal/db"
	"github.com/emberdate/engine/internal/discovery"
	"github.com/emberdate/engine/internal/logger"
	"github.com/emberdate/engine/internal/matching"
	"github.com/emberdate/engine/internal/repository"
	"github.com/emberdate/engine/internal/server"
	"github.com/emberdate/engine/internal/session"
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

	appCtx := app.New(database, redisCache, log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	users := repository.NewUserRepository(database)
	blocks := repository.NewBlockRepository(database)
	selector := discovery.NewSelector(database)
	matchingSvc := matching.NewService(appCtx)
	controller := session.NewController(users, selector, matchingSvc, log)

	srv := server.New(appCtx, controller, matchingSvc, blocks, users)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := srv.Run(addr); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
