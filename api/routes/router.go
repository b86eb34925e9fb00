package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Yuriltlef/ApexFlow-sub001/api/controllers"
	financecontrollers "github.com/Yuriltlef/ApexFlow-sub001/api/controllers/finance"
	inventorycontrollers "github.com/Yuriltlef/ApexFlow-sub001/api/controllers/inventory"
	ordercontrollers "github.com/Yuriltlef/ApexFlow-sub001/api/controllers/orders"
	"github.com/Yuriltlef/ApexFlow-sub001/api/middleware"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/inventory"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/ledger"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/orders"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/shipments"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/config"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/redis"
)

// Params carries everything the HTTP surface needs. Redis and Registry are
// optional; without redis, idempotency and write rate limiting are off.
type Params struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	Registry  *prometheus.Registry
	Orders    orders.Service
	Shipments shipments.Service
	Inventory inventory.Service
	Finance   ledger.Service
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	var (
		idempotencyStore redis.IdempotencyStore
		rateLimiter      redis.RateLimiter
		redisPinger      controllers.Pinger
		dbPinger         controllers.Pinger
	)
	if p.Redis != nil {
		idempotencyStore, rateLimiter, redisPinger = p.Redis, p.Redis, p.Redis
	}
	if p.DB != nil {
		dbPinger = p.DB
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"database": dbPinger,
			"redis":    redisPinger,
		}, logg))
	})
	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{Registry: p.Registry}))
	}

	writeLimit := middleware.WriteRateLimitPolicy{
		Window: cfg.RateLimit.WriteWindow,
		Limit:  cfg.RateLimit.WriteLimit,
	}
	idempotency := middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL, logg)
	pageSize := cfg.Orders.DefaultPageSize

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.WriteRateLimit(writeLimit, rateLimiter, logg))

		r.Route("/orders", func(r chi.Router) {
			// inline groups so idempotency sees the full route pattern
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(logg, enums.PermissionOrderView))
				r.Get("/", ordercontrollers.List(p.Orders, pageSize, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(p.Orders, logg))
				r.Get("/{orderId}/total", ordercontrollers.Total(p.Orders, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(logg, enums.PermissionOrderManage), idempotency)
				r.Post("/", ordercontrollers.Create(p.Orders, logg))
				r.Patch("/{orderId}", ordercontrollers.Update(p.Orders, logg))
				r.Put("/{orderId}/status", ordercontrollers.UpdateStatus(p.Orders, logg))
				r.Delete("/{orderId}", ordercontrollers.Delete(p.Orders, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(logg, enums.PermissionLogisticsView))
				r.Get("/{orderId}/shipment", ordercontrollers.Shipment(p.Shipments, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(logg, enums.PermissionLogisticsManage))
				r.Put("/{orderId}/shipment", ordercontrollers.UpdateShipment(p.Shipments, logg))
				r.Put("/{orderId}/shipment/status", ordercontrollers.UpdateShipmentStatus(p.Shipments, logg))
			})
		})

		r.Route("/shipments", func(r chi.Router) {
			r.Use(middleware.RequirePermission(logg, enums.PermissionLogisticsView))
			r.Get("/pending", ordercontrollers.PendingShipments(p.Shipments, pageSize, logg))
			r.Get("/in-transit", ordercontrollers.InTransitShipments(p.Shipments, pageSize, logg))
			r.Get("/stats", ordercontrollers.ShipmentStats(p.Shipments, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(logg, enums.PermissionInventoryView))
				r.Get("/products", inventorycontrollers.ListProducts(p.Inventory, pageSize, logg))
				r.Get("/products/search", inventorycontrollers.SearchProducts(p.Inventory, pageSize, logg))
				r.Get("/products/{productId}", inventorycontrollers.GetProduct(p.Inventory, logg))
				r.Get("/products/{productId}/ledger", inventorycontrollers.ProductLedger(p.Inventory, pageSize, logg))
				r.Get("/products/{productId}/ledger/verify", inventorycontrollers.VerifyLedger(p.Inventory, logg))
				r.Get("/ledger", inventorycontrollers.Ledger(p.Inventory, pageSize, logg))
				r.Get("/low-stock", inventorycontrollers.LowStock(p.Inventory, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(logg, enums.PermissionInventoryManage), idempotency)
				r.Post("/products", inventorycontrollers.CreateProduct(p.Inventory, logg))
				r.Patch("/products/{productId}", inventorycontrollers.UpdateProduct(p.Inventory, logg))
				r.Post("/products/{productId}/restock", inventorycontrollers.Restock(p.Inventory, logg))
				r.Post("/products/{productId}/adjust", inventorycontrollers.Adjust(p.Inventory, logg))
				r.Post("/products/{productId}/delist", inventorycontrollers.Delist(p.Inventory, logg))
				r.Post("/products/{productId}/relist", inventorycontrollers.Relist(p.Inventory, logg))
			})
		})

		r.Route("/finance", func(r chi.Router) {
			r.Use(middleware.RequirePermission(logg, enums.PermissionIncomeView))
			r.Get("/entries", financecontrollers.Entries(p.Finance, pageSize, logg))
			r.Get("/statistics", financecontrollers.Statistics(p.Finance, logg))
		})
	})

	return r
}
