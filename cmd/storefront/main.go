package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	billingmodule "github.com/vitalsupply/storefront/modules/billing"
	"github.com/vitalsupply/storefront/pkg/config"
	"github.com/vitalsupply/storefront/pkg/httpserver"
	"github.com/vitalsupply/storefront/pkg/logger"
	"github.com/vitalsupply/storefront/pkg/pg"
	"github.com/vitalsupply/storefront/pkg/redis"
	"github.com/vitalsupply/storefront/pkg/requestid"
	"github.com/vitalsupply/storefront/svc/billing"
	"github.com/vitalsupply/storefront/svc/catalog"
	"github.com/vitalsupply/storefront/svc/subscription"
	"github.com/vitalsupply/storefront/svc/webhook"
)

type appConfig struct {
	AppName string `env:"APP_NAME" envDefault:"storefront"`

	// StorageBackend selects the plan/subscription/order store: "postgres"
	// or "memory". LedgerBackend selects the processed-event ledger:
	// "postgres", "redis", or "memory". Memory variants lose state on
	// restart and exist for development.
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"postgres"`
	LedgerBackend  string `env:"LEDGER_BACKEND" envDefault:"postgres"`

	PlansFile string `env:"PLANS_FILE" envDefault:"plans.yaml"`

	// DevUsers seeds the in-memory user directory when the postgres backend
	// is off, e.g. DEV_USERS=u1:u1@example.com,u2:u2@example.com.
	DevUsers map[string]string `env:"DEV_USERS"`

	ProcessedEventTTL time.Duration `env:"PROCESSED_EVENT_TTL" envDefault:"720h"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	var logCfg logger.Config
	config.MustLoad(&logCfg)

	log := logger.New(
		logger.WithConfig(logCfg),
		logger.WithService(cfg.AppName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("storefront exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	var (
		plans     catalog.Store
		subs      subscription.Store
		orders    subscription.OrderStore
		users     billing.UserDirectory
		ledger    webhook.Ledger
		readiness []func(context.Context) error
	)

	if cfg.StorageBackend == "postgres" || cfg.LedgerBackend == "postgres" {
		var pgCfg pg.Config
		config.MustLoad(&pgCfg)

		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return err
		}
		readiness = append(readiness, pg.Healthcheck(pool))

		if cfg.StorageBackend == "postgres" {
			plans = catalog.NewPGStore(pool)
			subs = subscription.NewPGStore(pool)
			orders = subscription.NewPGOrderStore(pool)
			users = billing.NewPGDirectory(pool)
		}
		if cfg.LedgerBackend == "postgres" {
			ledger = webhook.NewPGLedger(pool)
		}
	}

	if cfg.LedgerBackend == "redis" {
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)

		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()

		readiness = append(readiness, redis.Healthcheck(client))
		ledger = webhook.NewRedisLedger(client, cfg.ProcessedEventTTL)
	}

	if plans == nil {
		plans = catalog.NewMemoryStore()
		subs = subscription.NewMemoryStore()
		orders = subscription.NewMemoryOrderStore()

		dir := make(billing.StaticDirectory, len(cfg.DevUsers))
		for id, email := range cfg.DevUsers {
			dir[id] = billing.User{ID: id, Email: email}
		}
		users = dir

		log.Warn("using in-memory storage, state is lost on restart")
	}
	if ledger == nil {
		ledger = webhook.NewMemoryLedger()
	}

	if cfg.PlansFile != "" {
		if err := catalog.Seed(ctx, plans, catalog.FileSource{Path: cfg.PlansFile}); err != nil {
			return err
		}
	}

	var stripeCfg billing.StripeConfig
	config.MustLoad(&stripeCfg)

	gateway, err := billing.NewStripeGateway(stripeCfg)
	if err != nil {
		return err
	}

	provisioner := billing.NewProvisioner(plans, gateway, log)
	checkout := billing.NewCheckoutOrchestrator(plans, users, provisioner, gateway, log)
	cancellation := billing.NewCancellationCoordinator(subs, gateway, log)
	events := webhook.NewProcessor(gateway, gateway, ledger, subs, orders, log)

	svc := billingmodule.NewService(billingmodule.ServiceOptions{
		Checkout:      checkout,
		Cancellation:  cancellation,
		Events:        events,
		Subscriptions: subs,
		Orders:        orders,
		Logger:        log,
	})

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Get("/health", httpserver.HealthCheckHandler(ctx, log, readiness...))
	r.Mount("/billing", svc.Handle())

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}
