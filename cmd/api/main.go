package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/marketplace-core/api/controllers"
	"github.com/angelmondragon/marketplace-core/api/middleware"
	"github.com/angelmondragon/marketplace-core/api/routes"
	"github.com/angelmondragon/marketplace-core/internal/auth"
	"github.com/angelmondragon/marketplace-core/internal/cart"
	"github.com/angelmondragon/marketplace-core/internal/catalog"
	"github.com/angelmondragon/marketplace-core/internal/checkout"
	"github.com/angelmondragon/marketplace-core/internal/events"
	"github.com/angelmondragon/marketplace-core/internal/payment"
	"github.com/angelmondragon/marketplace-core/internal/theme"
	"github.com/angelmondragon/marketplace-core/internal/users"
	"github.com/angelmondragon/marketplace-core/pkg/auth/session"
	"github.com/angelmondragon/marketplace-core/pkg/config"
	"github.com/angelmondragon/marketplace-core/pkg/db"
	"github.com/angelmondragon/marketplace-core/pkg/enums"
	"github.com/angelmondragon/marketplace-core/pkg/instance"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
	"github.com/angelmondragon/marketplace-core/pkg/metrics"
	"github.com/angelmondragon/marketplace-core/pkg/migrate"
	"github.com/angelmondragon/marketplace-core/pkg/pubsub"
	"github.com/angelmondragon/marketplace-core/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

// closer collects resources released in reverse order on shutdown.
type closer struct {
	fns []func() error
}

func (c *closer) add(fn func() error) {
	c.fns = append(c.fns, fn)
}

func (c *closer) close() error {
	var err error
	for i := len(c.fns) - 1; i >= 0; i-- {
		err = multierr.Append(err, c.fns[i]())
	}
	return err
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources := &closer{}
	readiness := map[string]controllers.Pinger{}

	var dbClient *db.Client
	if cfg.Cart.Store == config.CartStoreDB || cfg.FeatureFlags.UseSQLite || cfg.DB.DSN != "" {
		dbClient, err = db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		resources.add(dbClient.Close)
		readiness["database"] = dbClient

		if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		resources.add(redisClient.Close)
		readiness["redis"] = redisClient
	}

	var ordersPublisher events.Publisher = events.NewNoopPublisher(logg)
	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		resources.add(psClient.Close)
		readiness["pubsub"] = psClient
		psPublisher, err := events.NewPubSubPublisher(psClient.OrdersPublisher())
		if err != nil {
			logg.Error(ctx, "failed to create order publisher", err)
			os.Exit(1)
		}
		ordersPublisher = psPublisher
	}

	directory, err := buildDirectory(ctx, cfg, logg, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to build user directory", err)
		os.Exit(1)
	}

	var sessions *session.Manager
	if redisClient != nil {
		sessions, err = session.NewManager(redisClient, cfg.JWT)
	} else {
		sessions, err = session.NewMemoryManager(cfg.JWT)
	}
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cartRepo, err := buildCartRepository(cfg, redisClient, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to build cart repository", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Repository:    cartRepo,
		Async:         cfg.Cart.Async(),
		FlushInterval: cfg.Cart.FlushInterval,
		IdleTTL:       cfg.Cart.IdleTTL,
		Metrics:       metrics.NewCartMetrics(registry),
		Logger:        logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Directory:      directory,
		SessionManager: sessions,
		Carts:          cartService,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	staticCatalog, err := catalog.NewStaticCatalog(catalog.MockProducts())
	if err != nil {
		logg.Error(ctx, "failed to load catalog", err)
		os.Exit(1)
	}
	products, err := catalog.NewCachedReader(staticCatalog, cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL)
	if err != nil {
		logg.Error(ctx, "failed to build catalog cache", err)
		os.Exit(1)
	}

	provider, err := payment.NewFakeProvider(cfg.Payment.DeclineAbove)
	if err != nil {
		logg.Error(ctx, "failed to create payment provider", err)
		os.Exit(1)
	}
	currency, err := enums.ParseCurrency(cfg.Payment.Currency)
	if err != nil {
		logg.Error(ctx, "invalid payment currency", err)
		os.Exit(1)
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:           cartService,
		Payments:        provider,
		Events:          ordersPublisher,
		Metrics:         metrics.NewCheckoutMetrics(registry),
		Logger:          logg,
		DefaultCurrency: currency,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	var themeStore theme.Store = theme.NewMemoryStore()
	if redisClient != nil {
		themeStore, err = theme.NewRedisStore(redisClient)
		if err != nil {
			logg.Error(ctx, "failed to create theme store", err)
			os.Exit(1)
		}
	}
	themeService, err := theme.NewService(themeStore, logg)
	if err != nil {
		logg.Error(ctx, "failed to create theme service", err)
		os.Exit(1)
	}

	deps := routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Sessions:    sessions,
		Auth:        authService,
		Catalog:     products,
		Cart:        cartService,
		Checkout:    checkoutService,
		Theme:       themeService,
		Gatherer:    registry,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Readiness:   readiness,
	}
	// a nil *redis.Client must not reach the middleware as a non-nil interface
	var limiter middleware.RateLimiterStore
	if redisClient != nil {
		limiter = redisClient
	}
	deps.RateLimiter = limiter

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"instance":   instance.GetID(),
		"cart_store": cfg.Cart.Store,
		"cart_mode":  cfg.Cart.PersistMode,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return cartService.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(ctx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logg.Error(ctx, "api server stopped unexpectedly", runErr)
	}

	// the flusher drains on cancel; a final pass covers writes after its last tick
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := cartService.Flush(flushCtx); err != nil {
		logg.Error(ctx, "final cart flush failed", err)
	}
	cancel()

	if err := resources.close(); err != nil {
		logg.Error(ctx, "error releasing resources", err)
		os.Exit(1)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		os.Exit(1)
	}
}

func buildDirectory(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (users.Directory, error) {
	if dbClient == nil {
		return users.NewStaticDirectory(users.DefaultSeeds(), cfg.Password)
	}
	repo := users.NewRepository(dbClient.DB())
	if cfg.FeatureFlags.SeedDirectory {
		created, err := repo.SeedMissing(ctx, users.DefaultSeeds(), cfg.Password)
		if err != nil {
			return nil, err
		}
		if created > 0 {
			logg.Info(logg.WithField(ctx, "created", created), "seeded user directory")
		}
	}
	return repo, nil
}

func buildCartRepository(cfg *config.Config, redisClient *redis.Client, dbClient *db.Client) (cart.Repository, error) {
	switch cfg.Cart.Store {
	case config.CartStoreRedis:
		if redisClient == nil {
			return nil, errors.New("redis cart store selected but redis is not configured")
		}
		return cart.NewRedisRepository(redisClient, cfg.Cart.TTL)
	case config.CartStoreDB:
		if dbClient == nil {
			return nil, errors.New("db cart store selected but database is not configured")
		}
		return cart.NewGormRepository(dbClient.DB())
	default:
		return cart.NewMemoryRepository(), nil
	}
}
