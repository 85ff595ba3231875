package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	apiv1 "github.com/chromedash/chromedash/pkg/api/v1"
	"github.com/chromedash/chromedash/pkg/auth"
	"github.com/chromedash/chromedash/pkg/catalog"
	"github.com/chromedash/chromedash/pkg/common"
	"github.com/chromedash/chromedash/pkg/repository"
	"github.com/chromedash/chromedash/pkg/services"
	"github.com/chromedash/chromedash/pkg/types"
)

type Gateway struct {
	Config      types.AppConfig
	RedisClient *common.RedisClient
	BackendRepo *repository.FeaturePostgresRepository
	httpServer  *http.Server
	echo        *echo.Echo
	ctx         context.Context
	cancelFunc  context.CancelFunc

	baseRouteGroup *echo.Group

	eventBus      *common.EventBus
	features      repository.FeatureRepository
	featureCache  *repository.FeatureCacheRepository
	stars         repository.StarRepository
	subscriptions repository.SubscriptionRepository
	workers       repository.ServiceWorkerRepository
	sessions      *auth.SessionManager
	catalog       *catalog.Catalog
}

func NewGateway() (*Gateway, error) {
	configManager, err := common.NewConfigManager[types.AppConfig]()
	if err != nil {
		return nil, err
	}
	return NewGatewayWithConfig(configManager.GetConfig())
}

// NewGatewayWithConfig builds a gateway from an already loaded config.
func NewGatewayWithConfig(config types.AppConfig) (*Gateway, error) {
	if config.PrettyLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	if config.DebugMode {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	var redisClient *common.RedisClient
	var backendRepo *repository.FeaturePostgresRepository
	var err error

	if config.IsLocalMode() {
		log.Info().Msg("running in local mode - Redis and Postgres disabled")
	} else {
		redisClient, err = common.NewRedisClient(config.Database.Redis, common.WithClientName("ChromedashGateway"))
		if err != nil {
			return nil, err
		}

		// Postgres is optional, features fall back to memory without it
		if config.Database.Postgres.Host != "" {
			backendRepo, err = repository.NewFeaturePostgresRepository(config.Database.Postgres)
			if err != nil {
				log.Warn().Err(err).Msg("failed to connect to postgres, features will be kept in memory")
			} else if err := backendRepo.RunMigrations(); err != nil {
				log.Warn().Err(err).Msg("failed to run postgres migrations")
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		Config:      config,
		RedisClient: redisClient,
		BackendRepo: backendRepo,
		ctx:         ctx,
		cancelFunc:  cancel,
		sessions:    auth.NewSessionManager(config.Gateway.SessionSecret, config.Gateway.SessionTTL),
	}, nil
}

func (g *Gateway) initLock(name string) (func(), error) {
	// Skip locking in local mode (no Redis)
	if g.RedisClient == nil {
		return func() {}, nil
	}

	lockKey := common.Keys.GatewayInitLock(name)
	lock := common.NewRedisLock(g.RedisClient)

	if err := lock.Acquire(g.ctx, lockKey, common.RedisLockOptions{TtlS: 10, Retries: 1}); err != nil {
		return nil, err
	}

	return func() {
		if err := lock.Release(lockKey); err != nil {
			log.Error().Str("lock_key", lockKey).Err(err).Msg("failed to release init lock")
		}
	}, nil
}

func (g *Gateway) initRepositories() error {
	g.eventBus = common.NewEventBus(g.ctx, g.RedisClient)

	var backend repository.FeatureRepository
	if g.BackendRepo != nil {
		backend = g.BackendRepo
	} else {
		backend = repository.NewFeatureMemoryRepository()
	}

	cache, err := repository.NewFeatureCacheRepository(backend, g.eventBus, g.Config.Catalog.CacheSize, g.Config.Catalog.InvalidateLag)
	if err != nil {
		return fmt.Errorf("failed to create feature cache: %w", err)
	}
	g.featureCache = cache
	g.features = cache

	if g.RedisClient != nil {
		g.stars = repository.NewStarRedisRepository(g.RedisClient)
		g.subscriptions = repository.NewSubscriptionRedisRepository(g.RedisClient)
		g.workers = repository.NewServiceWorkerRedisRepository(g.RedisClient)
		log.Info().Msg("user state stored in redis")
	} else {
		g.stars = repository.NewStarMemoryRepository()
		g.subscriptions = repository.NewSubscriptionMemoryRepository()
		g.workers = repository.NewServiceWorkerMemoryRepository()
		log.Info().Msg("user state stored in memory")
	}

	go g.eventBus.Start()
	return nil
}

func (g *Gateway) initCatalog() error {
	store, err := catalog.NewObjectStore(g.Config.Catalog.S3)
	if err != nil {
		return fmt.Errorf("failed to create catalog store: %w", err)
	}
	if g.BackendRepo != nil {
		g.catalog = catalog.NewCatalog(store, g.features, g.RedisClient)
	} else {
		g.catalog = catalog.NewCatalog(store, g.features, g.RedisClient, catalog.WithPrivateRepository())
	}

	if g.Config.Catalog.SeedPath == "" {
		return nil
	}

	// Memory-backed gateways each hold their own copy, so every one seeds.
	if g.BackendRepo != nil {
		unlock, err := g.initLock("catalog")
		if err != nil {
			log.Info().Err(err).Msg("another gateway is seeding the catalog")
			return nil
		}
		defer unlock()
	}

	res, err := g.catalog.ImportIfExists(g.ctx, g.Config.Catalog.SeedPath)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	if res.Imported > 0 {
		g.eventBus.Emit(common.Event{Type: common.EventCatalogReloaded})
	}
	return nil
}

func (g *Gateway) initHTTP() error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())

	if g.Config.Gateway.HTTP.EnablePrettyLogs {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${method} ${uri} ${status} ${latency_human}\n",
		}))
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: g.Config.Gateway.HTTP.CORS.AllowedOrigins,
		AllowHeaders: g.Config.Gateway.HTTP.CORS.AllowedHeaders,
		AllowMethods: g.Config.Gateway.HTTP.CORS.AllowedMethods,
	}))

	e.Use(middleware.Recover())
	e.Use(auth.HTTPMiddleware(g.validator()))

	g.echo = e
	g.httpServer = &http.Server{
		Addr:    g.Addr(),
		Handler: e,
	}

	g.baseRouteGroup = e.Group(apiv1.HttpServerBaseRoute)
	apiv1.NewHealthGroup(g.baseRouteGroup.Group("/health"), g.RedisClient)

	return nil
}

// validator resolves session tokens for users. A local gateway without an
// admin token treats any other bearer token as admin. A remote gateway
// without one has no admin at all.
func (g *Gateway) validator() auth.TokenValidator {
	if g.Config.Gateway.AuthToken != "" {
		return auth.NewSessionValidator(g.Config.Gateway.AuthToken, g.sessions)
	}
	if g.Config.IsLocalMode() {
		log.Warn().Msg("no gateway auth token configured, any non-session token is admin")
		return auth.NewLocalValidator(g.sessions)
	}
	log.Warn().Msg("no gateway auth token configured, admin routes are disabled")
	return auth.NewSessionValidator("", g.sessions)
}

func (g *Gateway) registerServices() error {
	views, err := catalog.Views()
	if err != nil {
		return err
	}

	base := g.baseRouteGroup
	apiv1.NewFeaturesGroup(base.Group("/features"), g.features, g.catalog)
	apiv1.NewVersionsGroup(base.Group("/versions"), g.features)
	apiv1.NewLegendGroup(base.Group("/legend"), views)
	apiv1.NewSessionsGroup(base.Group("/sessions"), g.sessions)

	// Emails come from the request's session, so no fallback user is set
	apiv1.NewStarsGroup(base.Group("/stars"), services.NewStarService(g.stars, g.features, ""))
	if g.Config.Notifications.Enabled {
		notifications := services.NewNotificationService(g.subscriptions, g.features, g.Config.Notifications, "", types.PermissionGranted)
		apiv1.NewSubscriptionsGroup(base.Group("/subscriptions"), notifications)
	}
	apiv1.NewServiceWorkerGroup(base.Group("/service-worker"), services.NewServiceWorkerService(g.workers, ""), g.workers)

	log.Info().Int("views", len(views)).Bool("notifications", g.Config.Notifications.Enabled).Msg("api registered")
	return nil
}

// Handler returns the gateway's http handler. Valid after StartAsync or Init.
func (g *Gateway) Handler() http.Handler {
	return g.echo
}

// Init builds repositories, seeds the catalog and registers routes without
// listening.
func (g *Gateway) Init() error {
	if err := g.initRepositories(); err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}
	if err := g.initCatalog(); err != nil {
		return fmt.Errorf("failed to initialize catalog: %w", err)
	}
	if err := g.initHTTP(); err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}
	if err := g.registerServices(); err != nil {
		return fmt.Errorf("failed to register services: %w", err)
	}
	return nil
}

// StartAsync starts the gateway server without blocking.
func (g *Gateway) StartAsync() error {
	if err := g.Init(); err != nil {
		return err
	}

	lis, err := net.Listen("tcp", g.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on http: %w", err)
	}

	go func() {
		if err := g.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	log.Info().
		Str("host", g.Config.Gateway.HTTP.Host).
		Int("port", g.Config.Gateway.HTTP.Port).
		Str("mode", g.Config.Mode).
		Msg("gateway http server running")

	return nil
}

// Addr returns the gateway's listen address
func (g *Gateway) Addr() string {
	return fmt.Sprintf("%s:%d", g.Config.Gateway.HTTP.Host, g.Config.Gateway.HTTP.Port)
}

// Shutdown gracefully shuts down the gateway (exported for external use)
func (g *Gateway) Shutdown() {
	g.shutdown()
}

func (g *Gateway) Start() error {
	if err := g.StartAsync(); err != nil {
		return err
	}

	terminationSignal := make(chan os.Signal, 1)
	signal.Notify(terminationSignal, os.Interrupt, syscall.SIGTERM)
	<-terminationSignal

	log.Info().Msg("termination signal received. shutting down...")
	g.shutdown()

	return nil
}

func (g *Gateway) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), g.Config.Gateway.ShutdownTimeout)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	if g.httpServer != nil {
		eg.Go(func() error {
			return g.httpServer.Shutdown(ctx)
		})
	}

	if g.featureCache != nil {
		eg.Go(func() error {
			g.featureCache.Close()
			return nil
		})
	}

	if g.BackendRepo != nil {
		eg.Go(func() error {
			return g.BackendRepo.Close()
		})
	}

	g.cancelFunc()

	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("failed to shutdown gateway gracefully")
	}

	if g.RedisClient != nil {
		if err := g.RedisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}

	log.Info().Msg("gateway stopped")
}

// Features returns the gateway's feature repository
func (g *Gateway) Features() repository.FeatureRepository {
	return g.features
}

// Sessions returns the session manager used to mint user tokens
func (g *Gateway) Sessions() *auth.SessionManager {
	return g.sessions
}
