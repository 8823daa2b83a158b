package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/cache"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/config"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/events"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/health"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/metrics"
	repository "github.com/aaravmahajanofficial/juicebar-storefront/internal/repositories"
	service "github.com/aaravmahajanofficial/juicebar-storefront/internal/services"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/tracing"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/ws"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/zones"
	"github.com/aaravmahajanofficial/juicebar-storefront/pkg/storefront"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, cfg.Env)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Storage setup
	store, redisClient, closers, err := openStorage(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error opening storage", slog.String("driver", cfg.Storage.Driver), slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				slog.Error("⚠️ Error closing storage", slog.String("error", err.Error()))
			}
		}
	}()

	var catalogCache cache.Cache
	var loginLimiter repository.LoginLimiter
	if redisClient != nil {
		catalogCache = cache.NewRedisCache(redisClient, &cfg.Cache, cfg.Storage.KeyPrefix+":cache")
		loginLimiter = repository.NewRedisLoginLimiter(redisClient, cfg.Storage.KeyPrefix, cfg.LoginLimit.MaxAttempts, cfg.LoginLimit.Window)
	} else {
		catalogCache = cache.NewLRUCache(&cfg.Cache)
		loginLimiter = repository.NewMemoryLoginLimiter(cfg.LoginLimit.MaxAttempts, cfg.LoginLimit.Window)
	}

	zoneCatalog, err := zones.LoadFile(cfg.Zones.CatalogPath)
	if err != nil {
		slog.Error("❌ Error loading zone catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	bus := events.NewBus(logger)
	vault := service.NewTokenVault(store, bus, logger)

	backend := storefront.New(storefront.Config{
		BaseURL:            cfg.Backend.BaseURL,
		RequestTimeout:     cfg.Backend.RequestTimeout,
		RefreshTimeout:     cfg.Backend.RefreshTimeout,
		BreakerMaxFailures: cfg.Backend.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.Backend.BreakerOpenTimeout,
	}, vault, logger)

	cartStore := service.NewCartStore(backend, bus, cfg.Cart, logger)
	unsubscribeCart := cartStore.Subscribe()
	defer unsubscribeCart()

	zoneService := service.NewZoneService(zoneCatalog)
	catalogService := service.NewCatalogService(backend, catalogCache, cfg.Cache.DefaultTTL, logger)
	branchService := service.NewBranchService(store, catalogService, cartStore, bus, logger)
	sessionService := service.NewSessionService(backend, vault, logger)
	checkoutService := service.NewCheckoutService(backend, cartStore, branchService, zoneService, logger)
	orderService := service.NewOrderService(backend, logger)

	hub := ws.NewHub(logger)
	go hub.Run(ctx)
	unsubscribeHub := hub.Bridge(bus)
	defer unsubscribeHub()

	if err := branchService.Restore(ctx); err != nil {
		slog.Warn("⚠️ Could not restore the selected branch", slog.String("error", err.Error()))
	}

	// Restoring the session announces it, which starts the cart load.
	if _, err := sessionService.Restore(ctx); err != nil {
		slog.Warn("⚠️ Could not restore the session", slog.String("error", err.Error()))
	}

	healthHandler, err := health.NewHealthHandler(cfg, &health.Endpoints{BackendURL: cfg.Backend.BaseURL})
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sessionHandler := handlers.NewSessionHandler(sessionService, loginLimiter)
	cartHandler := handlers.NewCartHandler(cartStore, zoneService)
	zoneHandler := handlers.NewZoneHandler(zoneService)
	branchHandler := handlers.NewBranchHandler(catalogService, branchService, cartStore)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	orderHandler := handlers.NewOrderHandler(orderService)
	sessionGate := middleware.NewSessionMiddleware(sessionService)

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("driver", cfg.Storage.Driver), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/session/login", sessionHandler.Login())
	routerMux.HandleFunc("GET /api/v1/session", sessionHandler.Current())
	routerMux.HandleFunc("POST /api/v1/session/logout", sessionHandler.Logout())
	routerMux.HandleFunc("GET /api/v1/cart", sessionGate.RequireSession(cartHandler.GetCart()))
	routerMux.HandleFunc("POST /api/v1/cart/refresh", sessionGate.RequireSession(cartHandler.Refresh()))
	routerMux.HandleFunc("GET /api/v1/cart/summary", sessionGate.RequireSession(cartHandler.Summary()))
	routerMux.HandleFunc("POST /api/v1/cart/items", cartHandler.AddItem())
	routerMux.HandleFunc("PATCH /api/v1/cart/items/{productId}/quantity", cartHandler.ChangeQuantity())
	routerMux.HandleFunc("PUT /api/v1/cart/items/{productId}/instructions", cartHandler.UpdateInstructions())
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{productId}", cartHandler.RemoveItem())
	routerMux.HandleFunc("POST /api/v1/cart/coupon", cartHandler.ApplyCoupon())
	routerMux.HandleFunc("DELETE /api/v1/cart/coupon", cartHandler.RemoveCoupon())
	routerMux.HandleFunc("DELETE /api/v1/cart", cartHandler.Clear())
	routerMux.HandleFunc("GET /api/v1/zones", zoneHandler.ListZones())
	routerMux.HandleFunc("GET /api/v1/zones/{postalCode}", zoneHandler.ResolveZone())
	routerMux.HandleFunc("POST /api/v1/pricing/estimate", zoneHandler.Estimate())
	routerMux.HandleFunc("GET /api/v1/branches", branchHandler.ListBranches())
	routerMux.HandleFunc("GET /api/v1/branches/selected", branchHandler.Selected())
	routerMux.HandleFunc("GET /api/v1/branches/{id}/products", branchHandler.BranchProducts())
	routerMux.HandleFunc("POST /api/v1/branches/switch", branchHandler.Switch())
	routerMux.HandleFunc("GET /api/v1/categories", branchHandler.ListCategories())
	routerMux.HandleFunc("GET /api/v1/checkout/preview", sessionGate.RequireSession(checkoutHandler.Preview()))
	routerMux.HandleFunc("POST /api/v1/checkout", sessionGate.RequireSession(checkoutHandler.PlaceOrder()))
	routerMux.HandleFunc("GET /api/v1/orders", sessionGate.RequireSession(orderHandler.ListOrders()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", sessionGate.RequireSession(orderHandler.GetOrder()))
	routerMux.HandleFunc("DELETE /api/v1/orders/{id}", sessionGate.RequireSession(orderHandler.CancelOrder()))
	routerMux.HandleFunc("GET /api/v1/events", ws.Handler(hub, cfg.CORS.AllowedOrigins))
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	// Middleware chaining, innermost first
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "juicebar-storefront")
	handler = cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
	}).Handler(handler)

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Tracing shutdown encountered an issue", slog.String("error", err.Error()))
	}
}

// openStorage picks the key-value store for the configured driver. The redis client
// is returned for reuse by the catalog cache.
func openStorage(ctx context.Context, cfg *config.Config) (repository.KeyValueStore, *redis.Client, []io.Closer, error) {

	switch cfg.Storage.Driver {
	case config.StorageDriverRedis:
		client, err := repository.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewRedisStore(client, cfg.Storage.KeyPrefix), client, []io.Closer{client}, nil

	case config.StorageDriverPostgres:
		db, err := repository.OpenDatabase(cfg)
		if err != nil {
			return nil, nil, nil, err
		}

		store := repository.NewPostgresStore(db, cfg.Storage.KeyPrefix)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return store, nil, []io.Closer{store}, nil

	default:
		return repository.NewMemoryStore(), nil, nil, nil
	}
}
