package command

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/yndnr/timi-go/internal/cli/config"
	"github.com/yndnr/timi-go/internal/cli/connection"
	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/core/service"
	"github.com/yndnr/timi-go/internal/infra/shutdown"
	"github.com/yndnr/timi-go/internal/storage"
	"github.com/yndnr/timi-go/internal/storage/memory"
	"github.com/yndnr/timi-go/internal/telemetry/logger"
	"github.com/yndnr/timi-go/internal/telemetry/metric"
)

// Options are process-level inputs to NewRuntime.
type Options struct {
	Stdout      io.Writer
	Stderr      io.Writer
	ConfigPath  string
	MetricsFile string
	// KV replaces the configured engine (tests).
	KV storage.KVEngine
}

// Runtime holds everything a command needs. The session side (store,
// controller, services) is opened on first use so commands like
// "config show" never touch the store.
type Runtime struct {
	Config   *config.Config
	Logger   logger.Logger
	ClientID string
	Metrics  *metric.Registry
	Guard    *service.RouteGuard
	HTTP     *connection.HTTPClient
	Stdout   io.Writer
	Stderr   io.Writer

	configPath  string
	metricsFile string
	shutdown    *shutdown.Handler

	refs int

	openOnce   sync.Once
	openErr    error
	kv         storage.KVEngine
	store      *storage.TokenStore
	controller *service.SessionController
	auth       *service.AuthService
	tasks      *service.TaskService
}

// NewRuntime wires logging, metrics, the HTTP client and the route guard.
func NewRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	l, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: opts.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	clientID, err := domain.NewClientID()
	if err != nil {
		return nil, fmt.Errorf("generate client id: %w", err)
	}
	l = l.With("client_id", clientID)
	logger.SetDefault(l)

	metrics := metric.NewRegistry()
	httpClient := connection.NewHTTPClient(cfg.API.URL,
		connection.WithTimeout(cfg.API.Timeout),
		connection.WithClientID(clientID),
		connection.WithMetrics(metrics),
		connection.WithLogger(l.With("component", "http")),
	)

	rt := &Runtime{
		Config:      cfg,
		Logger:      l,
		ClientID:    clientID,
		Metrics:     metrics,
		Guard:       service.NewRouteGuard(cfg.RouteTable()),
		HTTP:        httpClient,
		Stdout:      opts.Stdout,
		Stderr:      opts.Stderr,
		configPath:  opts.ConfigPath,
		metricsFile: opts.MetricsFile,
		shutdown:    shutdown.NewHandler(shutdown.DefaultTimeout),
		refs:        1,
		kv:          opts.KV,
	}
	return rt, nil
}

// Context attaches the runtime logger and client ID to ctx.
func (rt *Runtime) Context(ctx context.Context) context.Context {
	ctx = logger.WithLogger(ctx, rt.Logger)
	return logger.WithClientID(ctx, rt.ClientID)
}

// Session opens the store and restores the saved session. The first call
// reports a discarded session on Stderr.
func (rt *Runtime) Session(ctx context.Context) (*service.SessionController, error) {
	rt.openOnce.Do(func() {
		rt.openErr = rt.open(ctx)
	})
	return rt.controller, rt.openErr
}

// Auth returns the auth service.
func (rt *Runtime) Auth(ctx context.Context) (*service.AuthService, error) {
	if _, err := rt.Session(ctx); err != nil {
		return nil, err
	}
	return rt.auth, nil
}

// Tasks returns the task service.
func (rt *Runtime) Tasks(ctx context.Context) (*service.TaskService, error) {
	if _, err := rt.Session(ctx); err != nil {
		return nil, err
	}
	return rt.tasks, nil
}

// Store returns the token store, or nil before Session.
func (rt *Runtime) Store() *storage.TokenStore {
	return rt.store
}

func (rt *Runtime) open(ctx context.Context) error {
	cfg := rt.Config

	// 1. Open the KV engine
	if rt.kv == nil {
		kv, err := rt.openKV()
		if err != nil {
			return err
		}
		rt.kv = kv
	}
	kv := rt.kv
	rt.shutdown.OnShutdown(func(context.Context) error {
		return kv.Close()
	})
	rt.Metrics.MustRegister(metric.NewCollector(cfg.Storage.Engine, func() (metric.StoreStats, error) {
		st, err := kv.Stats(context.Background())
		if err != nil {
			return metric.StoreStats{}, err
		}
		return metric.StoreStats{Keys: st.TotalKeys, Bytes: st.TotalSize}, nil
	}))

	// 2. Scope the token store to the backend origin
	origin, err := storage.Origin(cfg.API.URL)
	if err != nil {
		return err
	}
	rt.store = storage.NewTokenStore(kv, origin, logger.Slog(rt.Logger))

	// 3. Restore the session
	rt.controller = service.NewSessionController(rt.store,
		service.WithDecoder(service.NewJWTDecoder()),
		service.WithLogger(rt.Logger),
		service.WithMetrics(rt.Metrics),
	)
	state := rt.controller.Initialize(ctx)
	if notice := rt.controller.TakeNotice(); notice != nil {
		fmt.Fprintf(rt.Stderr, "Your saved session could not be restored and was cleared (%v).\n", notice)
	}
	rt.Logger.Debug("session restored", "state", state.Name(), "origin", origin)

	// 4. Services
	rt.auth = service.NewAuthService(
		connection.NewAuthClient(rt.HTTP),
		rt.controller,
		rt.store,
		service.AuthServiceConfig{
			AttemptsPerMinute: float64(cfg.Auth.Rate),
			Burst:             cfg.Auth.Burst,
		},
		rt.Logger,
	)
	rt.tasks = service.NewTaskService(connection.NewTaskClient(rt.HTTP), rt.controller, rt.Logger)
	return nil
}

func (rt *Runtime) openKV() (storage.KVEngine, error) {
	cfg := rt.Config.Storage
	if cfg.Engine == storage.EngineMemory {
		return memory.New(), nil
	}

	kvCfg := storage.DefaultKVConfig(cfg.Dir)
	kvCfg.Passphrase = cfg.Passphrase
	if cfg.GCInterval > 0 {
		kvCfg.Badger.GCInterval = cfg.GCInterval
	}
	engine, err := storage.NewBadgerEngine(kvCfg, logger.Slog(rt.Logger.With("component", "badger")))
	if err != nil {
		return nil, domain.ErrPersistence.WithDetails(cfg.Dir).WithCause(err)
	}
	engine.RegisterMetrics(rt.Metrics.Prometheus())
	return engine, nil
}

func (rt *Runtime) acquire() {
	rt.refs++
}

// release reports whether the last user is gone.
func (rt *Runtime) release() bool {
	rt.refs--
	return rt.refs <= 0
}

// OnShutdown registers a cleanup hook run by Close.
func (rt *Runtime) OnShutdown(hook func(context.Context) error) {
	rt.shutdown.OnShutdown(hook)
}

// Close writes the metrics file, then runs shutdown hooks.
func (rt *Runtime) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if rt.metricsFile != "" {
		if b, ok := rt.kv.(*storage.BadgerEngine); ok {
			b.RefreshMetrics()
		}
		if err := rt.Metrics.WriteToTextfile(rt.metricsFile); err != nil {
			rt.Logger.Warn("failed to write metrics file", "path", rt.metricsFile, "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, shutdown.DefaultTimeout)
	defer cancel()
	return rt.shutdown.Shutdown(ctx)
}

// bearerExpiry returns the token expiry and whether it has passed. The
// expiry is for display only; the backend decides validity.
func (rt *Runtime) bearerExpiry(controller *service.SessionController) (time.Time, bool) {
	token, err := controller.BearerToken()
	if err != nil {
		return time.Time{}, false
	}
	claims, err := service.NewJWTDecoder().Decode(token)
	if err != nil || claims.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return claims.ExpiresAt, claims.IsExpired(time.Now())
}
