// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from a YAML file when one exists and from FMMS_*
// environment variables otherwise.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsg1/fmms/adapters/clock"
	apihttp "github.com/fsg1/fmms/adapters/http"
	"github.com/fsg1/fmms/adapters/idgen"
	"github.com/fsg1/fmms/adapters/metrics"
	"github.com/fsg1/fmms/app"
	"github.com/fsg1/fmms/config"
	"github.com/fsg1/fmms/docs/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 30 * time.Second

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Stores     *Stores
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	Curricula *app.CurriculumService
	Revisions *app.RevisionService

	holder *config.Holder // nil when configured from the environment
}

// Options provides optional configuration for application initialization.
type Options struct {
	// ConfigPath is the YAML file to load. When it does not exist the
	// configuration is read from the environment.
	ConfigPath string

	// Registerer receives the Prometheus collectors. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// LogOutput defaults to os.Stdout.
	LogOutput io.Writer
}

// New creates and initializes the application.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.LoadWithFallback(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(ctx, cfg, opts)
}

// NewWithConfig initializes the application from an already loaded config.
func NewWithConfig(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger := NewLogger(cfg.Logging, out)
	logger.Info().Str("driver", cfg.Database.Driver).Msg("initializing fmms")

	a := &App{Logger: logger, Config: cfg}

	if opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); err == nil {
			holder, err := config.NewHolder(opts.ConfigPath, logger)
			if err != nil {
				return nil, fmt.Errorf("config holder: %w", err)
			}
			a.holder = holder
		}
	}

	if cfg.Metrics.Enabled {
		reg := opts.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		a.Metrics = metrics.NewWithRegistry(reg)
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	stores, err := OpenStores(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}
	a.Stores = stores

	a.Curricula = app.NewCurriculumService(stores.Curricula, stores.Modules, a.Metrics, logger)
	a.Revisions = app.NewRevisionService(app.RevisionDeps{
		Store:   stores.Modules,
		Clock:   clock.Real{},
		IDGen:   idgen.UUID{},
		Metrics: a.Metrics,
		Logger:  logger,
	})

	a.initHTTPServer()
	a.watchConfig()
	return a, nil
}

func (a *App) initHTTPServer() {
	cfg := a.Config

	routerCfg := apihttp.RouterConfig{
		BasePath:       cfg.Server.BasePath,
		RequestTimeout: cfg.Server.RequestTimeout,
		Metrics:        a.Metrics,
		EnableOpenAPI:  cfg.OpenAPI.Enabled,
		IDGen:          idgen.UUID{},
	}
	if a.Metrics != nil {
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	if cfg.OpenAPI.Enabled {
		swagger.SwaggerInfo.BasePath = cfg.Server.BasePath
	}

	api := apihttp.NewAPIHandler(a.Curricula, a.Revisions, a.Logger)
	router := apihttp.NewRouter(api, apihttp.NewHealthHandler(a.Stores.Health), a.Logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// watchConfig applies reloadable settings when the config file changes.
func (a *App) watchConfig() {
	if a.holder == nil {
		return
	}

	a.holder.OnChange(func(cfg *config.Config) {
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
		if a.Metrics != nil {
			a.Metrics.ConfigReloads.Inc()
			a.Metrics.ConfigLastReload.SetToCurrentTime()
		}
	})
	a.holder.OnError(func(error) {
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
	})

	if err := a.holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch disabled")
	}
	a.holder.WatchSignals()
}

// Run serves HTTP until ctx is canceled, SIGINT or SIGTERM arrives, or the
// server fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Str("base_path", a.Config.Server.BasePath).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info().Msg("shutting down")
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	var errs []error
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			errs = append(errs, err)
		}
	}

	if a.Stores != nil {
		if err := a.Stores.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
			errs = append(errs, err)
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

// NewLogger builds the process logger and sets the global level.
func NewLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Str("service", "fmms").Logger()
}
