// Package main is the entrypoint for the Travel Wallet API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/travelwallet/travelwallet/internal/activity"
	"github.com/travelwallet/travelwallet/internal/auth"
	"github.com/travelwallet/travelwallet/internal/cache"
	"github.com/travelwallet/travelwallet/internal/config"
	"github.com/travelwallet/travelwallet/internal/handler"
	"github.com/travelwallet/travelwallet/internal/metrics"
	"github.com/travelwallet/travelwallet/internal/middleware"
	"github.com/travelwallet/travelwallet/internal/mongostore"
	"github.com/travelwallet/travelwallet/internal/repository"
	"github.com/travelwallet/travelwallet/internal/server"
	"github.com/travelwallet/travelwallet/internal/service"
	"github.com/travelwallet/travelwallet/internal/store"
	"github.com/travelwallet/travelwallet/internal/store/memory"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Metrics
	recorder, metricsHandler := initMetrics(cfg)

	// Store
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("driver", cfg.StoreDriver),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.MongoURI)),
		)
		os.Exit(1)
	}

	// Cache and activity feed. Redis is optional.
	var (
		tourCache   service.TourCache
		limiter     middleware.RateLimiter
		cacheHealth handler.HealthChecker
		feed        activity.Feed
		cacheClient *cache.Cache
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL, cfg.TourCacheTTL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			_ = st.Close(ctx)
			os.Exit(1)
		}
		logger.Info("connected to Redis")
		tourCache = cacheClient
		limiter = cacheClient
		cacheHealth = cacheClient
		feed = activity.NewRedisFeed(cacheClient.Client(), cfg.ActivityStreamLen, logger, recorder)
	} else {
		logger.Warn("REDIS_URL not set; tour cache and rate limiting disabled, activity kept in memory")
		feed = activity.NewMemoryFeed(int(cfg.ActivityStreamLen))
	}

	// Services
	tourService := service.NewTourService(st, tourCache, feed, recorder, logger)
	userService := service.NewUserService(st, auth.NewHasher(auth.DefaultParams), logger)

	// Handlers
	deps := routerDeps{
		root:    handler.New(),
		health:  handler.NewHealthHandler(cfg.StoreDriver, st, cacheHealth),
		tours:   handler.NewTourHandler(tourService, logger),
		users:   handler.NewUserHandler(userService, logger),
		metrics: metricsHandler,
		limiter: limiter,
	}
	r := setupRouter(deps, cfg, logger)

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Closed in reverse order: cache first, then the store.
	srv.OnShutdown("store", st.Close)
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"metrics", cfg.MetricsBackend,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
// LOG_FORMAT=text selects the colored tint handler for local development.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		h = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  cfg.IsDevelopment(),
		})
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initMetrics builds the recorder and the /metrics handler for the configured backend.
func initMetrics(cfg *config.Config) (metrics.Recorder, http.Handler) {
	if cfg.MetricsBackend == config.MetricsMemory {
		rec := metrics.NewInMemory()
		return rec, handler.NewMetricsHandler(rec)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewPrometheus(reg)
	return rec, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// openStore connects to the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.DBAutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				_ = repo.Close(ctx)
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		logger.Info("connected to database", slog.String("database_url", redactURL(cfg.DatabaseURL)))
		return repo, nil

	case config.StoreMongo:
		ms, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if cfg.DBAutoMigrate {
			if err := ms.Migrate(ctx); err != nil {
				_ = ms.Close(ctx)
				return nil, fmt.Errorf("migrate mongo: %w", err)
			}
		}
		logger.Info("connected to MongoDB",
			slog.String("mongodb_uri", redactURL(cfg.MongoURI)),
			slog.String("database", cfg.MongoDatabase),
		)
		return ms, nil

	default:
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
