package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fernwall/tenant-gateway/internal/api"
	snapshotcfg "github.com/fernwall/tenant-gateway/internal/infrastructure/config"
	"github.com/fernwall/tenant-gateway/internal/pkg/config"
	"github.com/fernwall/tenant-gateway/internal/proxy"
	"github.com/fernwall/tenant-gateway/pkg/logger"
)

func main() {
	settings := config.Load()

	log := logger.Init(logger.Options{
		Level:  settings.LogLevel,
		Pretty: settings.Env == "development",
	})

	snapshot, err := snapshotcfg.Load(settings.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", settings.ConfigFile).Msg("loading configuration snapshot failed")
	}
	log.Info().
		Int("routes", len(snapshot.Proxy)).
		Int("tenants", len(snapshot.Tenants)).
		Int("users", len(snapshot.Users)).
		Msg("configuration snapshot loaded")

	// One pooled client for all forwarded requests, closed at shutdown.
	client := proxy.NewClient(settings.Upstream)

	e := api.NewRouter(settings, snapshot, client, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(":" + settings.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()
	log.Info().Str("port", settings.Port).Msg("gateway listening")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	client.CloseIdleConnections()
	log.Info().Msg("gateway stopped")
}
