package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gameroomgo/internal/config"
	"gameroomgo/internal/database/db_client"
	"gameroomgo/internal/http/http_server"
	"gameroomgo/internal/redis/redis_client"
	"gameroomgo/internal/room"
	"gameroomgo/internal/syncaudit"
	"gameroomgo/internal/syncstats"
	"gameroomgo/internal/ws"

	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Lifecycle feed + room registry
	feed := room.NewFeed()
	registry := room.NewRegistry(feed)

	// 4. Optional: Redis room-stats mirror
	if cfg.RedisHost != "" {
		redisClient, err := redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		syncstats.Run(ctx, redisClient, registry, time.Duration(cfg.StatsSyncSeconds)*time.Second)
	}

	// 5. Optional: Postgres lifecycle audit trail
	if cfg.PostgresHost != "" {
		pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
		if err != nil {
			Log.Fatal("pg-open", zap.Error(err))
		}
		defer pgDb.Close()
		syncaudit.Run(ctx, pgDb, feed)
	}

	// 6. WS server: the per-connection bridge into rooms
	wsSrv := ws.NewWsServer(registry)

	// 7. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, registry)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
