package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/riversidefab/storefront-backend/api/routes"
	cartsvc "github.com/riversidefab/storefront-backend/internal/cart"
	"github.com/riversidefab/storefront-backend/internal/catalog"
	checkoutsvc "github.com/riversidefab/storefront-backend/internal/checkout"
	contentsvc "github.com/riversidefab/storefront-backend/internal/content"
	ordersvc "github.com/riversidefab/storefront-backend/internal/orders"
	paymentsvc "github.com/riversidefab/storefront-backend/internal/payments"
	"github.com/riversidefab/storefront-backend/internal/shipping"
	"github.com/riversidefab/storefront-backend/pkg/canadapost"
	"github.com/riversidefab/storefront-backend/pkg/config"
	"github.com/riversidefab/storefront-backend/pkg/db"
	"github.com/riversidefab/storefront-backend/pkg/logger"
	"github.com/riversidefab/storefront-backend/pkg/metrics"
	"github.com/riversidefab/storefront-backend/pkg/migrate"
	"github.com/riversidefab/storefront-backend/pkg/redis"
	"github.com/riversidefab/storefront-backend/pkg/square"
)

const shutdownGrace = 15 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create square client", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cartsvc.NewRepository(dbClient.DB())
	ordersRepo := ordersvc.NewRepository(dbClient.DB())

	catalogService, err := catalog.NewService(catalogRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	shippingService, err := newShippingService(cfg, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	paymentsService, err := paymentsvc.NewService(squareClient, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(cartRepo, ordersRepo, catalogRepo, paymentsService, dbClient, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := ordersvc.NewService(ordersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	contentService, err := contentsvc.NewService(contentsvc.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create content service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
		Catalog:  catalogService,
		Cart:     cartService,
		Carts:    cartRepo,
		Shipping: shippingService,
		Checkout: checkoutService,
		Orders:   ordersService,
		Payments: paymentsService,
		Content:  contentService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

// newShippingService wires the carrier client only when credentials are
// present. Without one the service prices every quote from the rate table.
func newShippingService(cfg *config.Config, logg *logger.Logger, m *metrics.CheckoutMetrics) (shipping.Service, error) {
	if !cfg.CanadaPost.Configured() {
		logg.Warn(context.Background(), "canada post credentials not set, using table rates")
		return shipping.NewService(nil, logg, m)
	}

	client, err := canadapost.NewClient(
		cfg.CanadaPost.Username,
		cfg.CanadaPost.Password,
		cfg.CanadaPost.CustomerNumber,
		canadapost.WithBaseURL(cfg.CanadaPost.BaseURL),
		canadapost.WithHTTPClient(&http.Client{Timeout: cfg.CanadaPost.Timeout}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create canada post client, using table rates", err)
		return shipping.NewService(nil, logg, m)
	}
	return shipping.NewService(client, logg, m)
}
