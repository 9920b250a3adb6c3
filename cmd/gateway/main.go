package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/avolkov/sentinel-gateway/internal/cache"
	"github.com/avolkov/sentinel-gateway/internal/cache/cellindex"
	"github.com/avolkov/sentinel-gateway/internal/cache/redisstore"
	"github.com/avolkov/sentinel-gateway/internal/core/config"
	"github.com/avolkov/sentinel-gateway/internal/core/httpclient"
	"github.com/avolkov/sentinel-gateway/internal/core/observability"
	"github.com/avolkov/sentinel-gateway/internal/core/server"
	"github.com/avolkov/sentinel-gateway/internal/evalscript"
	"github.com/avolkov/sentinel-gateway/internal/gateway"
	"github.com/avolkov/sentinel-gateway/internal/invalidation/kafkaconsumer"
	"github.com/avolkov/sentinel-gateway/internal/logger"
	h3mapper "github.com/avolkov/sentinel-gateway/internal/mapper/h3"
	"github.com/avolkov/sentinel-gateway/internal/provider/sentinelhub"
	"github.com/avolkov/sentinel-gateway/internal/snapshot"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "gateway",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	if err != nil {
		appLog.Error("configuration error", "err", err)
		return 1
	}

	if err := evalscript.Validate(); err != nil {
		appLog.Error("evalscript validation failed", "err", err)
		return 1
	}

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting gateway",
		"addr", cfg.Addr,
		"version", Version,
		"provider", cfg.ProviderURL,
		"cache_enabled", cfg.CacheEnabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outbound := httpclient.NewOutbound()
	authed := httpclient.NewAuthenticated(outbound, cfg.ClientID, cfg.ClientSecret, cfg.TokenURL)
	provider, err := sentinelhub.New(appLog, authed, cfg.ProviderURL)
	if err != nil {
		appLog.Error("provider client setup failed", "err", err)
		return 1
	}

	snaps := snapshot.New(cfg.SnapshotPath)

	var cc gateway.CacheConfig
	if cfg.CacheEnabled {
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis setup failed", "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()

		store, err := cache.NewTiered(rc, cfg.CacheLRUSize)
		if err != nil {
			appLog.Error("cache setup failed", "err", err)
			return 1
		}
		cc = gateway.CacheConfig{
			Store: store,
			Index: cellindex.NewRedisIndex(rc),
			TTL:   cfg.CacheTTL,
			Res:   cfg.CellRes,
		}

		if cfg.Invalidation.Enabled {
			consumer := kafkaconsumer.New(
				kafkaconsumer.FromGateway(cfg.Invalidation.Brokers, cfg.Invalidation.Topic, cfg.Invalidation.GroupID),
				appLog, store, cc.Index, h3mapper.New(), cfg.CellRes)
			go func() {
				if err := consumer.Start(ctx); err != nil {
					appLog.Error("acquisition consumer exited", "err", err)
				}
			}()
		}
	} else if cfg.Invalidation.Enabled {
		appLog.Warn("invalidation enabled without render cache; ignoring")
	}

	gw := gateway.New(appLog, provider, snaps, cc)

	deps := server.Deps{Render: gw, Snapshots: snaps, Ready: gw}
	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
