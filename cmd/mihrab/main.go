package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mihrab-app/mihrab/internal/api"
	"github.com/mihrab-app/mihrab/internal/config"
	"github.com/mihrab-app/mihrab/internal/content"
	"github.com/mihrab-app/mihrab/internal/countdown"
	"github.com/mihrab-app/mihrab/internal/engine"
	"github.com/mihrab-app/mihrab/internal/geo"
	"github.com/mihrab-app/mihrab/internal/healthcheck"
	"github.com/mihrab-app/mihrab/internal/logging"
	"github.com/mihrab-app/mihrab/internal/metrics"
	"github.com/mihrab-app/mihrab/internal/notify"
	"github.com/mihrab-app/mihrab/internal/offline"
	"github.com/mihrab-app/mihrab/internal/provider"
	"github.com/mihrab-app/mihrab/internal/server"
	"github.com/mihrab-app/mihrab/internal/store"
	"github.com/mihrab-app/mihrab/internal/tracker"
	"github.com/mihrab-app/mihrab/internal/web"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New()
		fallback.Fatal().Err(err).Msg("configuration failed")
	}

	logger := logging.NewWithLevel(cfg.LogLevel)
	logger.Info().Msg("mihrab starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("store setup failed")
	}

	locator := buildLocator(cfg)

	client := provider.NewClient(cfg.APITimeout,
		providerOptions(cfg)...)
	src := provider.New(client, st, logger)

	cd := countdown.New(logger,
		countdown.WithTickInterval(cfg.TickInterval),
		countdown.WithExpiryDelay(cfg.ExpiryDelay),
	)

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier setup failed")
	}

	collector := metrics.New()
	health := healthcheck.NewTracker()

	eng := engine.New(logger, locator, src, cd, notifier,
		engine.WithRetryInterval(cfg.RetryInterval),
		engine.WithMetrics(collector),
		engine.WithHealthTracker(health),
	)

	library, err := content.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("content load failed")
	}

	origin := web.Origin(library)
	static, err := buildOfflineHandler(ctx, cfg, logger, origin)
	if err != nil {
		logger.Fatal().Err(err).Msg("offline cache setup failed")
	}

	daily := tracker.New(st, logger)
	ctl := api.NewController(logger, eng, daily, library)
	router := api.NewRouter(ctl, static)

	server.Start(ctx, logger, health, collector, cfg.HealthPort, cfg.MetricsPort)

	go func() {
		if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("engine stopped")
		}
	}()

	if err := server.Serve(ctx, logger, cfg.ListenAddr, router); err != nil {
		logger.Fatal().Err(err).Msg("app server failed")
	}
	logger.Info().Msg("mihrab stopped")
}

func buildStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		rs := store.NewRedisStore(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, "mihrab", logger)
		if err := rs.Ping(ctx); err != nil {
			return nil, err
		}
		return rs, nil
	default:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return store.NewFileStore(cfg.DataDir, logger), nil
	}
}

func buildLocator(cfg config.Config) geo.Locator {
	if cfg.Latitude != nil && cfg.Longitude != nil {
		return geo.Fixed{Location: geo.Location{
			Latitude:  *cfg.Latitude,
			Longitude: *cfg.Longitude,
			City:      cfg.City,
		}}
	}
	return geo.NewIPLocator(cfg.GeoURL, cfg.GeoTimeout)
}

func providerOptions(cfg config.Config) []provider.ClientOption {
	opts := []provider.ClientOption{provider.WithMethod(cfg.CalcMethod)}
	if cfg.APIBaseURL != "" {
		opts = append(opts, provider.WithBaseURL(cfg.APIBaseURL))
	}
	return opts
}

func buildNotifier(cfg config.Config, logger zerolog.Logger) (notify.Notifier, error) {
	if cfg.DryRun {
		return notify.NewDryRunNotifier(logger), nil
	}

	var notifiers []notify.Notifier
	if cfg.SlackWebhookURL != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(logger, cfg.SlackWebhookURL))
	}
	if cfg.WebhookURL != "" {
		wh, err := notify.NewWebhookNotifier(logger, cfg.WebhookURL, cfg.WebhookTemplate)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, wh)
	}
	if len(notifiers) == 0 {
		return notify.NewNoop(logger, "no notifiers configured"), nil
	}
	return notify.NewMultiNotifier(notifiers...), nil
}

func buildOfflineHandler(ctx context.Context, cfg config.Config, logger zerolog.Logger, origin http.Handler) (http.Handler, error) {
	manifest := offline.DefaultManifest()
	if cfg.ManifestPath != "" {
		loaded, err := offline.LoadManifest(cfg.ManifestPath)
		if err != nil {
			return nil, err
		}
		manifest = loaded
	}

	bucket := offline.NewBucketStore(filepath.Join(cfg.DataDir, "offline"), logger)
	cache := offline.New(logger, bucket, manifest)
	if err := cache.Prime(ctx, manifest, origin); err != nil {
		logger.Warn().Err(err).Msg("offline cache priming failed; serving without precached assets")
	}
	return cache.Handler(origin), nil
}
