package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
	"github.com/dmitrymomot/catalogsync/pkg/config"
	"github.com/dmitrymomot/catalogsync/pkg/environment"
	"github.com/dmitrymomot/catalogsync/pkg/logger"
	"github.com/dmitrymomot/catalogsync/pkg/mirror"
	"github.com/dmitrymomot/catalogsync/pkg/mongo"
	"github.com/dmitrymomot/catalogsync/pkg/pg"
	"github.com/dmitrymomot/catalogsync/pkg/redis"
	"github.com/dmitrymomot/catalogsync/pkg/snapshot"
)

// App runs catalogsync commands for one environment.
type App struct {
	cfg    Config
	env    environment.Environment
	log    *slog.Logger
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	provider catalog.Provider
	store    mirror.Store
	plans    []catalog.Plan
	s3opts   []snapshot.S3Option
	closers  []func()
}

// Option configures an App.
type Option func(*App)

// WithProvider replaces the provider selected by BILLING_PROVIDER.
func WithProvider(p catalog.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithStore replaces the store selected by DB_ADAPTER.
func WithStore(s mirror.Store) Option {
	return func(a *App) { a.store = s }
}

// WithPlans replaces the plans file.
func WithPlans(plans []catalog.Plan) Option {
	return func(a *App) { a.plans = plans }
}

// WithLogger replaces the logger built from Config.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// WithOutput sets where command results are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		if w != nil {
			a.out = w
		}
	}
}

// WithErrorOutput sets where logs and usage text go. Defaults to stderr.
func WithErrorOutput(w io.Writer) Option {
	return func(a *App) {
		if w != nil {
			a.errOut = w
		}
	}
}

// WithClock overrides the time source used for sync timestamps and export names.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// WithS3Options is passed through to the snapshot S3 sink.
func WithS3Options(opts ...snapshot.S3Option) Option {
	return func(a *App) { a.s3opts = append(a.s3opts, opts...) }
}

// New validates cfg and prepares an App. Connections are opened lazily.
func New(cfg Config, opts ...Option) (*App, error) {
	env, err := environment.Parse(cfg.Env)
	if err != nil {
		return nil, errors.Join(ErrUsage, err)
	}
	cfg.Env = env.String()
	cfg.Adapter = strings.ToLower(strings.TrimSpace(cfg.Adapter))
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Owner == "" {
		cfg.Owner = catalog.DefaultOwner
	}

	a := &App{
		cfg:    cfg,
		env:    env,
		out:    os.Stdout,
		errOut: os.Stderr,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = newLogger(cfg, env, a.errOut)
	}
	return a, nil
}

func newLogger(cfg Config, env environment.Environment, w io.Writer) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(env, "catalogsync"),
		logger.WithOutput(w),
		logger.WithContextExtractors(logger.RunExtractor(), environment.LoggerExtractor()),
	}
	if cfg.LogFormat != "" {
		opts = append(opts, logger.WithFormat(logger.ParseFormat(cfg.LogFormat)))
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	return logger.New(opts...)
}

// Environment is the resolved deployment environment.
func (a *App) Environment() environment.Environment { return a.env }

// Logger is the application logger.
func (a *App) Logger() *slog.Logger { return a.log }

// Close releases every connection opened by the App.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Provider returns the billing provider, building it on first use.
func (a *App) Provider() (catalog.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}

	switch a.cfg.Provider {
	case ProviderStripe:
		var sc catalog.StripeConfig
		if err := config.Load(&sc); err != nil {
			return nil, err
		}
		p, err := catalog.NewStripeProvider(sc)
		if err != nil {
			return nil, err
		}
		a.provider = p
	case ProviderPaddle:
		var pc catalog.PaddleConfig
		if err := config.Load(&pc); err != nil {
			return nil, err
		}
		p, err := catalog.NewPaddleProvider(pc)
		if err != nil {
			return nil, err
		}
		a.provider = p
	default:
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownProvider, a.cfg.Provider)
	}
	return a.provider, nil
}

// Store returns the local mirror store, connecting on first use.
func (a *App) Store(ctx context.Context) (mirror.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	switch a.cfg.Adapter {
	case AdapterMemory:
		a.store = mirror.NewMemoryStore()

	case AdapterPostgres:
		var pc pg.Config
		if err := config.Load(&pc); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pc)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := mirror.MigratePostgres(ctx, pool, pc, a.log); err != nil {
			return nil, err
		}
		a.store = mirror.NewPostgresStore(pool)

	case AdapterMySQL:
		var mc mirror.MySQLConfig
		if err := config.Load(&mc); err != nil {
			return nil, err
		}
		db, err := mirror.OpenMySQL(ctx, mc)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, func() { _ = sqlDB.Close() })
		}
		s, err := mirror.NewGormStore(ctx, db)
		if err != nil {
			return nil, err
		}
		a.store = s

	case AdapterMongo:
		var mc mongo.Config
		if err := config.Load(&mc); err != nil {
			return nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, mc)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Client().Disconnect(context.Background()) })
		s, err := mirror.NewMongoStore(ctx, db)
		if err != nil {
			return nil, err
		}
		a.store = s

	case AdapterRedis:
		var rc redis.Config
		if err := config.Load(&rc); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, rc)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.store = mirror.NewRedisStore(client, rc.KeyPrefix)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, a.cfg.Adapter)
	}

	a.log.DebugContext(ctx, "store ready", slog.String("adapter", a.cfg.Adapter))
	return a.store, nil
}

// Plans returns the validated plans, reading PLANS_FILE on first use.
func (a *App) Plans() ([]catalog.Plan, error) {
	if a.plans != nil {
		return a.plans, nil
	}
	plans, err := catalog.LoadPlans(a.cfg.PlansFile)
	if err != nil {
		return nil, fmt.Errorf("plans file %s: %w", a.cfg.PlansFile, err)
	}
	a.plans = plans
	return plans, nil
}
