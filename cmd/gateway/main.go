package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	api "github.com/virtlab-edu/virtlab/internal/api/http"
	"github.com/virtlab-edu/virtlab/internal/attempt"
	"github.com/virtlab-edu/virtlab/internal/auth"
	"github.com/virtlab-edu/virtlab/internal/config"
	"github.com/virtlab-edu/virtlab/internal/content"
	"github.com/virtlab-edu/virtlab/internal/db"
	"github.com/virtlab-edu/virtlab/internal/enrollment"
	"github.com/virtlab-edu/virtlab/internal/eventlog"
	"github.com/virtlab-edu/virtlab/internal/stats"
	"github.com/virtlab-edu/virtlab/internal/visibility"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("config load failed")
	}
	log := newLogger(cfg.Logging)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.Database.Driver), cfg.Database.DSN)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("db open failed")
	}
	dbh.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbh.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbh.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	dir := enrollment.NewSQLDirectory(dbh)
	catalog := content.NewSQLStore(dbh)
	attempts := attempt.NewSQLStore(dbh)
	statsStore := stats.NewSQLStore(dbh)
	events := eventlog.NewRepo(dbh)

	resolver := visibility.NewResolver(dir)
	aggregator := stats.NewAggregator(statsStore, log)
	engine := attempt.NewEngine(attempts, catalog, resolver, dir, aggregator, events, log)
	statsSvc := stats.NewService(statsStore, attempts, catalog, dir)
	authSvc := auth.NewService(cfg.Auth.HMACSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, dbh)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(api.RequestLogger(log))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	api.Mount(r, api.Deps{
		Auth:     authSvc,
		Catalog:  catalog,
		Resolver: resolver,
		Engine:   engine,
		Stats:    statsSvc,
		Dir:      dir,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.Address).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, shCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shCancel()
		return srv.Shutdown(shCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if cfg.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: cfg.NoColor})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}
