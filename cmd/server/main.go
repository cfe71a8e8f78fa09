package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Breakout/internal/adapters/http"
	"github.com/dkeye/Breakout/internal/adapters/notify"
	"github.com/dkeye/Breakout/internal/adapters/store"
	"github.com/dkeye/Breakout/internal/adapters/twilio"
	"github.com/dkeye/Breakout/internal/app"
	"github.com/dkeye/Breakout/internal/config"
	"github.com/dkeye/Breakout/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	var rdb redis.UniversalClient
	if cfg.Store.Driver == config.StoreRedis {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable")
		}
	}

	var hierarchy core.HierarchyStore = store.NewMemory()
	if rdb != nil {
		hierarchy = store.NewRedis(rdb, cfg.Redis.Prefix)
	}

	hub := notify.NewHub(notify.HubOptions{
		QueueSize:  cfg.Notify.QueueSize,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	})
	go hub.Run(ctx)

	var notifier core.Notifier = hub
	if rdb != nil {
		relay := notify.NewRedisRelay(rdb, cfg.Notify.Channel, hub)
		go func() {
			if err := relay.Run(ctx, nil); err != nil {
				log.Error().Err(err).Str("module", "notify.redis").Msg("relay stopped")
			}
		}()
		notifier = relay
	}

	rc := twilio.NewRestClient(cfg.Twilio)
	provider := twilio.NewProvider(rc, cfg.Twilio)

	coord := &app.Coordinator{
		Provider:  provider,
		Store:     hierarchy,
		Notifier:  notifier,
		Conflicts: app.PolicyFor(cfg.Coordinator.ConflictRetries),
		ListLimit: cfg.Provider.ListLimit,
	}

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Coordinator: coord,
		Hub:         hub,
		Tokens:      twilio.NewTokenIssuer(cfg.Twilio),
		ICE:         provider,
		Limiter:     router.NewRoomRateLimiter(cfg.RateLimit.CreateLimit, cfg.RateLimit.CreateWindow),
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.Store.Driver).Msg("Breakout server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
