package main

import (
	"context"
	"database/sql"
	"expvar"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/KamilDonda/MovieRecommender/internal/cache"
	"github.com/KamilDonda/MovieRecommender/internal/config"
	"github.com/KamilDonda/MovieRecommender/internal/data"
	"github.com/KamilDonda/MovieRecommender/internal/mailer"
	"github.com/KamilDonda/MovieRecommender/internal/poster"
	"github.com/KamilDonda/MovieRecommender/internal/session"

	_ "github.com/lib/pq"
)

const version = "1.0.0"

// emailSender is the slice of the mailer the handlers need. It exists for
// the same reason the models are interfaces: handler tests swap in a
// recording fake.
type emailSender interface {
	Send(recipient, templateFile string, data any) error
}

// application holds the dependencies shared by the HTTP handlers, helpers
// and middleware.
type application struct {
	config      *config.Config
	logger      zerolog.Logger
	models      data.Models
	mailer      emailSender
	broadcaster *session.Broadcaster
	posters     *poster.Fetcher
	wg          sync.WaitGroup
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The configured logger doesn't exist yet, so fail through a bare one.
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("cannot load configuration")
	}

	logger := newLogger(cfg)

	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Env,
			Release:     version,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot initialize sentry")
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := openDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot open database connection pool")
	}
	defer db.Close()

	logger.Info().Msg("database connection pool established")

	posterCache, err := openCache(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot build poster cache")
	}
	defer posterCache.Close()

	posterTimeout, err := time.ParseDuration(cfg.Poster.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid poster.timeout")
	}

	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("database", expvar.Func(func() any {
		return db.Stats()
	}))
	expvar.Publish("timestamp", expvar.Func(func() any {
		return time.Now().Unix()
	}))

	app := &application{
		config:      cfg,
		logger:      logger,
		models:      data.NewModels(db),
		mailer:      mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender),
		broadcaster: session.NewBroadcaster(),
		posters: poster.NewFetcher(poster.Config{
			Cache:     posterCache,
			Timeout:   posterTimeout,
			MaxBytes:  cfg.Poster.MaxBytes,
			UserAgent: cfg.Poster.UserAgent,
			Logger:    logger,
		}),
	}

	expvar.Publish("session_subscribers", expvar.Func(func() any {
		return app.broadcaster.Subscribers()
	}))

	if err := app.serve(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// newLogger builds the process logger: human-readable console output during
// development, JSON elsewhere, at the level named in the configuration.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(level).With().Timestamp().Logger()
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)

	duration, err := time.ParseDuration(cfg.DB.MaxIdleTime)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxIdleTime(duration)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// openCache builds the poster cache from the configured provider. The
// "posters" group label puts hit/miss/eviction counters on the Prometheus
// registry whether or not the metrics server is enabled.
func openCache(cfg *config.Config, logger zerolog.Logger) (cache.Cache, error) {
	ttl, err := time.ParseDuration(cfg.Cache.TTL)
	if err != nil {
		return nil, err
	}

	return cache.New(cfg.Cache.Provider, cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		TTL:           ttl,
		Logger:        cacheLogger{logger},
		RedisAddress:  cfg.Cache.Redis.Address,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		Group:         "posters",
	})
}

// cacheLogger adapts zerolog to the minimal logging surface the cache
// providers expect.
type cacheLogger struct {
	logger zerolog.Logger
}

func (l cacheLogger) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}
