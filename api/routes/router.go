package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riversidefab/storefront-backend/api/controllers"
	"github.com/riversidefab/storefront-backend/api/middleware"
	cartsvc "github.com/riversidefab/storefront-backend/internal/cart"
	"github.com/riversidefab/storefront-backend/internal/catalog"
	checkoutsvc "github.com/riversidefab/storefront-backend/internal/checkout"
	contentsvc "github.com/riversidefab/storefront-backend/internal/content"
	ordersvc "github.com/riversidefab/storefront-backend/internal/orders"
	paymentsvc "github.com/riversidefab/storefront-backend/internal/payments"
	"github.com/riversidefab/storefront-backend/internal/shipping"
	"github.com/riversidefab/storefront-backend/pkg/config"
	"github.com/riversidefab/storefront-backend/pkg/logger"
	pkgredis "github.com/riversidefab/storefront-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Services groups everything the router mounts.
type Services struct {
	Catalog  catalog.Service
	Cart     cartsvc.Service
	Carts    *cartsvc.Repository
	Shipping shipping.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Payments paymentsvc.Service
	Content  contentsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database pinger,
	redisClient *pkgredis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	// A typed nil *redis.Client must not reach the pinger interface.
	var cache pinger
	if redisClient != nil {
		cache = redisClient
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, database, cache))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CartSession(cfg.App.IsProd()))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Get("/products", controllers.ListProducts(svcs.Catalog, logg))
		r.Get("/products/{idOrSlug}", controllers.GetProduct(svcs.Catalog, logg))
		r.Get("/categories", controllers.ListCategories(svcs.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(svcs.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
		})

		r.Post("/shipping/quote", controllers.ShippingQuote(svcs.Shipping, svcs.Carts, logg))
		r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))
		r.Get("/orders/{orderNumber}", controllers.OrderByNumber(svcs.Orders, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminPassword(cfg.Admin.PasswordHash, logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(svcs.Catalog, logg))
			r.Put("/{productId}", controllers.AdminUpdateProduct(svcs.Catalog, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(svcs.Catalog, logg))
		})
		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateCategory(svcs.Catalog, logg))
			r.Put("/{categoryId}", controllers.AdminUpdateCategory(svcs.Catalog, logg))
			r.Delete("/{categoryId}", controllers.AdminDeleteCategory(svcs.Catalog, logg))
		})
		r.Route("/content/{key}", func(r chi.Router) {
			r.Get("/", controllers.AdminGetContent(svcs.Content, logg))
			r.Put("/", controllers.AdminPutContent(svcs.Content, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.AdminGetOrder(svcs.Orders, logg))
			r.Post("/{orderId}/status", controllers.AdminUpdateOrderStatus(svcs.Orders, logg))
		})
		r.Route("/payments/{paymentId}", func(r chi.Router) {
			r.Get("/", controllers.AdminGetPayment(svcs.Payments, logg))
			r.Post("/refund", controllers.AdminRefundPayment(svcs.Payments, logg))
		})
	})

	return r
}
