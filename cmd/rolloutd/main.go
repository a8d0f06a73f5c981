// Command rolloutd serves the tracking-migration rollout controller over an
// admin HTTP API, backed by memory, Redis or Postgres.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrymomot/trackflag/pkg/adminapi"
	"github.com/dmitrymomot/trackflag/pkg/alert"
	"github.com/dmitrymomot/trackflag/pkg/audit"
	"github.com/dmitrymomot/trackflag/pkg/config"
	"github.com/dmitrymomot/trackflag/pkg/httpserver"
	"github.com/dmitrymomot/trackflag/pkg/logger"
	"github.com/dmitrymomot/trackflag/pkg/metrics"
	"github.com/dmitrymomot/trackflag/pkg/pg"
	"github.com/dmitrymomot/trackflag/pkg/redis"
	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

const (
	backendMemory   = "memory"
	backendRedis    = "redis"
	backendPostgres = "postgres"
)

type appConfig struct {
	Env             string `env:"APP_ENV" envDefault:"development"`
	Service         string `env:"SERVICE_NAME" envDefault:"rolloutd"`
	Backend         string `env:"ROLLOUT_BACKEND" envDefault:"memory"`
	AlertWebhookURL string `env:"ROLLOUT_ALERT_WEBHOOK_URL"`
	AlertSecret     string `env:"ROLLOUT_ALERT_SECRET"`
	SessionScope    string `env:"ROLLOUT_SESSION_SCOPE"`
}

var errUnknownBackend = errors.New("unknown rollout backend")

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var app appConfig
	if err := config.Load(&app); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(app.Env, app.Service),
		logger.WithContextExtractors(adminapi.LoggerExtractor()),
	)

	var (
		rolloutCfg rollout.Config
		envDefs    rollout.EnvDefaults
		httpCfg    httpserver.Config
		metricsCfg metrics.Config
	)
	if err := config.Load(&rolloutCfg); err != nil {
		return err
	}
	if err := config.Load(&envDefs); err != nil {
		return err
	}
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	if err := config.Load(&metricsCfg); err != nil {
		return err
	}
	if err := rollout.LoadDefaultsFile(&rolloutCfg); err != nil {
		return err
	}

	b, err := openBackend(ctx, app, log)
	if err != nil {
		return err
	}
	defer b.close()
	log.InfoContext(ctx, "rollout backend ready", logger.Backend(app.Backend))

	collector := metrics.NewCollector(metricsCfg)
	opts := []rollout.Option{
		rollout.WithLogger(log),
		rollout.WithEnvSource(envDefs),
		rollout.WithObserver(collector),
	}
	alerter, stopAlerts, err := newAlerter(app, log)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := stopAlerts(ctx); err != nil {
			log.Warn("pending alerts dropped", logger.Error(err))
		}
	}()
	opts = append(opts, rollout.WithAlerter(alerter))

	ctrl := rollout.New(ctx, rolloutCfg, b.overrides, b.sessions, b.sink, opts...)
	defer func() { _ = ctrl.Close() }()

	router := adminapi.Router(ctrl,
		adminapi.WithLogger(log),
		adminapi.WithHealthChecks(b.checks...),
		adminapi.WithMetrics(collector.Handler()),
		adminapi.WithSessionStore(b.sessions),
	)
	return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log)).Run(ctx, router)
}

type backend struct {
	overrides rollout.OverrideStore
	sessions  rollout.SessionStore
	sink      audit.Sink
	checks    []httpserver.Check
	closers   []io.Closer
}

func (b *backend) close() {
	for _, c := range b.closers {
		_ = c.Close()
	}
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// openBackend connects the configured storage. Sessions default to the
// X-Session-ID header; ROLLOUT_SESSION_SCOPE switches Redis deployments to a
// shared scoped identity for callers that send none.
func openBackend(ctx context.Context, app appConfig, log *slog.Logger) (*backend, error) {
	switch app.Backend {
	case backendMemory:
		return &backend{
			overrides: rollout.NewMemoryOverrideStore(nil),
			sessions:  rollout.ContextSessionStore{},
			sink:      audit.NewMemorySink(),
		}, nil

	case backendRedis:
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b := &backend{
			overrides: redis.NewOverrideStore(client, cfg.KeyPrefix),
			sessions:  rollout.ContextSessionStore{},
			sink:      redis.NewAuditSink(client, cfg.KeyPrefix),
			checks:    []httpserver.Check{{Name: backendRedis, Probe: redis.Healthcheck(client, cfg.KeyPrefix)}},
			closers:   []io.Closer{client},
		}
		if app.SessionScope != "" {
			b.sessions = redis.NewSessionStore(client, cfg.KeyPrefix, app.SessionScope, cfg.SessionTTL)
		}
		return b, nil

	case backendPostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
			pool.Close()
			return nil, err
		}
		return &backend{
			overrides: pg.NewOverrideStore(pool),
			sessions:  rollout.ContextSessionStore{},
			sink:      pg.NewAuditSink(pool),
			checks:    []httpserver.Check{{Name: backendPostgres, Probe: pg.Healthcheck(pool)}},
			closers:   []io.Closer{closerFunc(pool.Close)},
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBackend, app.Backend)
	}
}

// newAlerter always logs rollbacks and also posts them to the webhook when
// one is configured. Delivery runs in the background.
func newAlerter(app appConfig, log *slog.Logger) (rollout.Alerter, func(context.Context) error, error) {
	targets := []rollout.Alerter{alert.NewLogAlerter(log)}
	if app.AlertWebhookURL != "" {
		var opts []alert.WebhookOption
		if app.AlertSecret != "" {
			opts = append(opts, alert.WithSecret(app.AlertSecret))
		}
		hook, err := alert.NewWebhook(app.AlertWebhookURL, opts...)
		if err != nil {
			return nil, nil, err
		}
		targets = append(targets, hook)
	}

	a, stop := alert.NewAsync(alert.Multi(targets...), alert.AsyncOptions{Logger: log})
	return a, stop, nil
}
