package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/bag"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/favorites"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/identity/firebase"
	identitymem "github.com/xenking/storefront/internal/identity/memory"
	"github.com/xenking/storefront/internal/imagehost"
	"github.com/xenking/storefront/internal/messaging"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/storage/redis"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// stores are the repositories selected by Storage.Driver.
type stores struct {
	products  product.Repository
	bags      bag.Repository
	favorites favorites.Repository
	coupons   coupon.Repository
	orders    order.Repository
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("sessions", cfg.Session.Driver),
		zap.String("identity", cfg.Identity.Driver),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	st, closeStores, err := openStores(ctx, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer closeStores()

	sessions, closeSessions, err := openSessions(ctx, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer closeSessions()

	// Outbound calls to the identity provider and image host are traced.
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	provider, err := newIdentityProvider(cfg.Identity, httpClient)
	if err != nil {
		return err
	}
	var images auth.ImageUploader
	if cfg.ImageHost.APIKey != "" {
		c, err := imagehost.New(imagehost.Config{
			Endpoint: cfg.ImageHost.Endpoint,
			APIKey:   cfg.ImageHost.APIKey,
			MaxBytes: cfg.ImageHost.MaxBytes,
		}, httpClient)
		if err != nil {
			return errors.Wrap(err, "create image host client")
		}
		images = c
	} else {
		lg.Warn("Image host API key not set, photo updates disabled")
	}
	tokens, err := auth.NewTokenIssuer([]byte(cfg.Session.Secret), cfg.Session.Issuer)
	if err != nil {
		return errors.Wrap(err, "create token issuer")
	}

	var messenger order.Messenger
	if cfg.Checkout.WhatsAppPhone != "" {
		wa, err := messaging.NewWhatsApp(cfg.Checkout.WhatsAppPhone)
		if err != nil {
			return errors.Wrap(err, "create whatsapp messenger")
		}
		messenger = wa
		lg.Info("WhatsApp ordering enabled", zap.String("phone", wa.Phone()))
	} else {
		lg.Warn("WhatsApp phone not set, whatsapp orders disabled")
	}

	// Domain services.
	fee, err := cfg.Checkout.Fee()
	if err != nil {
		return err
	}
	orderService, err := order.NewService(order.Config{
		DeliveryFee: fee,
		Currency:    cfg.Checkout.Currency,
	}, order.Deps{
		Bags:          st.bags,
		Products:      st.products,
		Coupons:       coupon.NewRepoValidator(st.coupons),
		Orders:        st.orders,
		Messenger:     messenger,
		MeterProvider: m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	h := handler.NewHandler(handler.Config{ImageBaseURL: cfg.ImageBaseURL}, handler.Deps{
		Products:  st.products,
		Bags:      bag.NewService(st.bags, st.products),
		Favorites: favorites.NewService(st.favorites, st.products),
		Orders:    orderService,
		Auth:      auth.NewService(provider, sessions, tokens, images, cfg.Session.TTL),
	})

	// Router: health endpoints + API routes on one server.
	router := mux.NewRouter()
	router.HandleFunc("/livez", healthSvc.LiveEndpoint).Methods(http.MethodGet)
	router.HandleFunc("/readyz", healthSvc.ReadyEndpoint).Methods(http.MethodGet)
	h.Register(router)
	routeFinder := httpmiddleware.MakeRouteFinder(router)

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", handler.DeviceIDHeader, httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// openStores connects the configured storage driver. The memory driver is
// loaded with the embedded catalog and the default promo codes; PostgreSQL is
// migrated and expected to be seeded by seed-db.
func openStores(ctx context.Context, cfg *Config, hs *health.Health) (*stores, func(), error) {
	switch cfg.Storage.Driver {
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		hs.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
		return &stores{
			products:  postgres.NewProductRepository(pool),
			bags:      postgres.NewBagRepository(pool),
			favorites: postgres.NewFavoritesRepository(pool),
			coupons:   postgres.NewCouponRepository(pool),
			orders:    postgres.NewOrderRepository(pool),
		}, pool.Close, nil
	default:
		products, err := product.DecodeCatalog(db.Catalog)
		if err != nil {
			return nil, nil, errors.Wrap(err, "load catalog")
		}
		zctx.From(ctx).Info("Loaded in-memory catalog", zap.Int("products", len(products)))
		return &stores{
			products:  memory.NewCatalog(products),
			bags:      memory.NewBagRepository(),
			favorites: memory.NewFavoritesRepository(),
			coupons:   memory.NewCouponRepository(coupon.Defaults()...),
			orders:    memory.NewOrderRepository(),
		}, func() {}, nil
	}
}

func openSessions(ctx context.Context, cfg *Config, hs *health.Health) (auth.SessionStore, func(), error) {
	if cfg.Session.Driver != DriverRedis {
		return memory.NewSessionStore(), func() {}, nil
	}
	client, err := redis.NewClient(ctx, cfg.Session.RedisURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect redis")
	}
	store := redis.NewSessionStore(client, "")
	hs.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(store))
	return store, func() {
		if err := client.Close(); err != nil {
			zctx.From(ctx).Warn("Close redis", zap.Error(err))
		}
	}, nil
}

func newIdentityProvider(cfg IdentityConfig, httpClient *http.Client) (auth.Provider, error) {
	if cfg.Driver != DriverFirebase {
		return identitymem.New(identitymem.WithAutoVerify(cfg.AutoVerify)), nil
	}
	c, err := firebase.New(firebase.Config{
		APIKey:   cfg.FirebaseAPIKey,
		Endpoint: cfg.FirebaseEndpoint,
	}, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "create firebase client")
	}
	return c, nil
}
