package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/target/mmk-user-module/config"
	redisadapter "github.com/target/mmk-user-module/internal/adapters/redis"
	"github.com/target/mmk-user-module/internal/adapters/sqlitestore"
	"github.com/target/mmk-user-module/internal/bridge"
	"github.com/target/mmk-user-module/internal/observability/statsd"
	"github.com/target/mmk-user-module/internal/pipeline"
	"github.com/target/mmk-user-module/internal/ports"
	"github.com/target/mmk-user-module/internal/service"
	"github.com/target/mmk-user-module/internal/session"
	"github.com/target/mmk-user-module/internal/usercache"
)

// ServiceContainer holds the API surface.
type ServiceContainer struct {
	Admin   *service.AdminUserService
	Profile *service.ProfileService
	Upload  *service.UploadService
}

// AppDeps overrides collaborators NewApp would otherwise build itself.
type AppDeps struct {
	Redis      redis.UniversalClient // used instead of dialing; not closed by App
	HTTPClient *http.Client
	Metrics    statsd.Sink
}

// AppOptions groups the inputs of NewApp.
type AppOptions struct {
	Config config.AppConfig
	Logger *slog.Logger
	Deps   AppDeps
}

// App is the wired user module for one process.
type App struct {
	Config   config.AppConfig
	Logger   *slog.Logger
	Metrics  statsd.Sink
	Session  *session.Store
	Pipeline *pipeline.Client
	Cache    *usercache.Cache
	Bridge   *bridge.Bridge
	Services ServiceContainer
	// Host is set when HOST_MODE=redis.
	Host *redisadapter.Host

	closers []func() error
}

// NewApp builds every component from configuration. Nothing talks to the backend yet;
// call Activate to attach the session bridge.
func NewApp(ctx context.Context, opts AppOptions) (_ *App, err error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			if cerr := app.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
	}()

	app.Metrics = buildMetrics(logger, cfg.Observability, opts.Deps.Metrics, app)

	rdb, err := app.redisClient(ctx, cfg, opts.Deps.Redis)
	if err != nil {
		return nil, err
	}

	kv, err := app.sessionBackend(ctx, cfg, rdb)
	if err != nil {
		return nil, err
	}
	app.Session = session.NewStore(kv, logger)

	app.Cache = usercache.New(usercache.Options{Size: cfg.Cache.UserCacheSize, Metrics: app.Metrics, Logger: logger})

	app.Pipeline, err = pipeline.New(pipeline.Options{
		Config: pipeline.Config{
			BaseURL:    cfg.API.BaseURL,
			Timeout:    cfg.API.Timeout,
			LoginPaths: cfg.API.LoginPaths,
			UserAgent:  cfg.API.UserAgent,
		},
		Session: app.Session,
		Deps: pipeline.Deps{
			HTTPClient: opts.Deps.HTTPClient,
			Metrics:    app.Metrics,
			Logger:     logger,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build request pipeline: %w", err)
	}

	app.Bridge = bridge.New(bridge.Options{
		Session:  app.Session,
		LoginURL: cfg.Host.LoginURL(),
		Logger:   logger,
	})

	// a rejected or ended session invalidates everything cached for it
	app.Pipeline.OnUnauthorized(func(context.Context) { app.Cache.Clear() })
	app.Bridge.OnLogout(func(context.Context) { app.Cache.Clear() })

	if cfg.Host.Mode == config.HostModeRedis {
		app.Host = redisadapter.NewHost(redisadapter.HostOptions{
			Client:  rdb,
			Key:     cfg.Host.StateKey,
			Channel: cfg.Host.StateChannel,
			Logger:  logger,
		})
	}

	app.Services = ServiceContainer{
		Admin: service.NewAdminUserService(service.AdminUserServiceOptions{
			Client: app.Pipeline,
			Cache:  app.Cache,
			Logger: logger,
		}),
		Profile: service.NewProfileService(service.ProfileServiceOptions{
			Client: app.Pipeline,
			Sync:   service.ProfileSync{Session: app.Session, Pusher: app.Bridge},
			Logger: logger,
		}),
		Upload: service.NewUploadService(service.UploadServiceOptions{
			Client: app.Pipeline,
			Logger: logger,
		}),
	}

	logger.DebugContext(ctx, "user module wired",
		"session_backend", string(cfg.Session.Backend),
		"host_mode", string(cfg.Host.Mode),
		"api", app.Pipeline.BaseURL(),
	)
	return app, nil
}

//nolint:ireturn // statsd.Sink lets tests inject a recorder.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityConfig, override statsd.Sink, app *App) statsd.Sink {
	if override != nil {
		return override
	}
	if !cfg.Metrics.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	app.closers = append(app.closers, client.Close)
	return client
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func (a *App) redisClient(ctx context.Context, cfg config.AppConfig, injected redis.UniversalClient) (redis.UniversalClient, error) {
	if !cfg.NeedsRedis() {
		return nil, nil
	}
	if injected != nil {
		return injected, nil
	}
	client, err := ConnectRedis(ctx, RedisOptions{Config: cfg.Redis, Logger: a.Logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	return client, nil
}

//nolint:ireturn // the backend is chosen by configuration.
func (a *App) sessionBackend(ctx context.Context, cfg config.AppConfig, rdb redis.UniversalClient) (ports.KVStore, error) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		return redisadapter.NewSessionStoreWithPrefix(rdb, cfg.Session.RedisPrefix), nil
	default:
		store, err := sqlitestore.Open(ctx, sqlitestore.Config{Path: cfg.Session.SQLitePath, Logger: a.Logger})
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	}
}

// HostProps returns what the configured host hands to the bridge; nil when standalone.
func (a *App) HostProps() *ports.HostProps {
	if a.Host == nil {
		return nil
	}
	return a.Host.Props(a.Config.Host.Name)
}

// Activate attaches the session bridge to the configured host.
func (a *App) Activate(ctx context.Context) (bridge.Status, error) {
	st, err := a.Bridge.Activate(ctx, a.HostProps())
	if err != nil {
		return st, fmt.Errorf("activate session bridge: %w", err)
	}
	return st, nil
}

// Close deactivates the bridge and releases connections in reverse order of creation.
func (a *App) Close() error {
	if a.Bridge != nil {
		a.Bridge.Deactivate()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
