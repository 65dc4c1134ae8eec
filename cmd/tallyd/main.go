package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/tally/pkg/api"
	"github.com/platinummonkey/tally/pkg/cache"
	"github.com/platinummonkey/tally/pkg/config"
	"github.com/platinummonkey/tally/pkg/definitions"
	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/snapshots"
	"github.com/platinummonkey/tally/pkg/stats"
	"github.com/platinummonkey/tally/pkg/storage/sqlstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tallyd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"host":     cfg.Server.Host,
		"port":     cfg.Server.Port,
		"manifest": cfg.Manifest.Path,
	}).Info("Starting tally statistics service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	db, err := sqlstore.Open(cfg.Storage)
	if err != nil {
		return err
	}

	manifest, err := definitions.Load(cfg.Manifest.Path)
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}

	// The redis layer is rebuilt on manifest reload; the health check and
	// shutdown hook always talk to the current one.
	var activeRedis atomic.Pointer[cache.Redis]

	source, redisLayer, err := buildSource(cfg, manifest, db, metrics)
	if err != nil {
		return err
	}
	activeRedis.Store(redisLayer)
	logger.WithField("statistics", len(source.Names())).Info("Manifest loaded")

	health := observability.NewHealthChecker(cfg.Observability.OTelServiceVersion)
	health.AddCheck("database", observability.DatabaseCheck(db))
	if cfg.Storage.CacheEnabled && cfg.Storage.RedisURL != "" {
		health.AddOptionalCheck("redis", func(ctx context.Context) error {
			if r := activeRedis.Load(); r != nil {
				return r.Ping(ctx)
			}
			return nil
		})
	}

	history := snapshots.NewRecorder(db, source)
	server := api.NewServer(source, history, health, metrics)

	var watcher *definitions.Watcher
	if cfg.Manifest.Watch {
		onReload := func(m *definitions.Manifest) {
			defer observability.RecoverPanic(logger, "manifest reload")

			newSource, newRedis, err := buildSource(cfg, m, db, metrics)
			if err != nil {
				if metrics != nil {
					metrics.ReloadsTotal.WithLabelValues("error").Inc()
				}
				logger.WithError(err).Error("Manifest reload failed, keeping previous definitions")
				return
			}

			server.Swap(newSource)
			if old := activeRedis.Swap(newRedis); old != nil {
				old.Close()
			}
			if metrics != nil {
				metrics.ReloadsTotal.WithLabelValues("success").Inc()
			}
			logger.WithField("statistics", len(newSource.Names())).Info("Manifest reloaded")
		}

		watcher, err = definitions.NewWatcher(cfg.Manifest.Path, onReload, newWatcherLogger(cfg.Observability.LogLevel))
		if err != nil {
			return fmt.Errorf("failed to start manifest watcher: %w", err)
		}
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      buildHandler(server, logger, metrics, cfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, srv, cfg.Server.ShutdownTimeout)
	shutdown.Register("database", func(ctx context.Context) error {
		return db.Close()
	})
	if cfg.Storage.CacheEnabled && cfg.Storage.RedisURL != "" {
		shutdown.Register("redis", func(ctx context.Context) error {
			if r := activeRedis.Load(); r != nil {
				return r.Close()
			}
			return nil
		})
	}
	if watcher != nil {
		shutdown.Register("manifest-watcher", func(ctx context.Context) error {
			return watcher.Close()
		})
	}
	if providers != nil {
		shutdown.Register("opentelemetry", func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	if metrics != nil {
		go metrics.CollectDBStats(ctx, db, 15*time.Second)
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("Tally API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	return shutdown.WaitForShutdown()
}

// buildSource compiles a manifest into the serving chain: the evaluator at
// the core, redis around it when configured, and the in-process LRU on the
// outside so the hottest lookups never leave the process.
func buildSource(cfg *config.Config, manifest *definitions.Manifest, db *sql.DB, metrics *observability.Metrics) (stats.Source, *cache.Redis, error) {
	registry, table, err := manifest.Build(db)
	if err != nil {
		return nil, nil, err
	}

	evaluator := stats.NewEvaluator(registry, table)
	if metrics != nil {
		evaluator.SetObserver(metrics)
	}

	var source stats.Source = evaluator
	var redisLayer *cache.Redis
	if cfg.Storage.CacheEnabled && cfg.Storage.RedisURL != "" {
		redisLayer, err = cache.NewRedis(source, cache.RedisConfig{
			Addr:     cfg.Storage.RedisURL,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			PoolSize: cfg.Storage.RedisPoolSize,
			TTL:      cfg.Storage.CacheTTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build redis cache layer: %w", err)
		}
		if metrics != nil {
			redisLayer.SetRecorder(metrics)
		}
		source = redisLayer
	}
	if cfg.Storage.CacheEnabled {
		memory := cache.NewMemory(source, cfg.Storage.LocalCacheSize, cfg.Storage.CacheTTL)
		if metrics != nil {
			memory.SetRecorder(metrics)
		}
		source = memory
	}

	return source, redisLayer, nil
}

// buildHandler wraps the API router in the middleware stack, innermost last:
// recovery closest to the handlers, then request logging, request id
// assignment and logger injection, with metrics and tracing outside the lot.
func buildHandler(server *api.Server, logger *observability.Logger, metrics *observability.Metrics, cfg *config.Config) http.Handler {
	handler := httputil.Chain(
		httputil.LoggerInjectionMiddleware(logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware,
		httputil.RecoveryMiddleware,
	)(server)

	if metrics != nil {
		handler = metrics.HTTPMetricsMiddleware(handler)
	}
	if cfg.Observability.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "tally.api")
	}
	return handler
}

// newWatcherLogger builds the logrus logger the definitions watcher expects,
// matched to the service log level.
func newWatcherLogger(level observability.LogLevel) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{})
	switch level {
	case observability.DebugLevel:
		log.SetLevel(logrus.DebugLevel)
	case observability.WarnLevel:
		log.SetLevel(logrus.WarnLevel)
	case observability.ErrorLevel:
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
