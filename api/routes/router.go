package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/orderdesk/api/controllers"
	"github.com/angelmondragon/orderdesk/api/middleware"
	"github.com/angelmondragon/orderdesk/internal/auth"
	"github.com/angelmondragon/orderdesk/internal/clients"
	"github.com/angelmondragon/orderdesk/internal/orders"
	"github.com/angelmondragon/orderdesk/internal/products"
	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/metrics"
	pkgredis "github.com/angelmondragon/orderdesk/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs. Idempotency, Gatherer
// and HTTPMetrics are optional.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	ReadyChecks []controllers.ReadyCheck
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Auth     auth.Service
	Clients  clients.Service
	Products products.Service
	Orders   orders.Service
	Transfer controllers.TransferService
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger
	idempotent := middleware.Idempotency(p.Idempotency, middleware.DefaultIdempotencyTTL, logg)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.ReadyChecks...))
	})
	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.AuthLogin(p.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", controllers.ClientList(p.Clients, logg))
				r.With(idempotent).Post("/", controllers.ClientCreate(p.Clients, logg))
				r.Get("/suggest", controllers.ClientSuggest(p.Clients, logg))
				r.Get("/summary", controllers.ClientSummaryList(p.Orders, logg))
				r.Delete("/{clientId}", controllers.ClientDelete(p.Clients, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(p.Products, logg))
				r.With(idempotent).Post("/", controllers.ProductCreate(p.Products, logg))
				r.Get("/suggest", controllers.ProductSuggest(p.Products, logg))
				r.Delete("/{productId}", controllers.ProductDelete(p.Products, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(p.Orders, logg))
				r.With(idempotent).Post("/", controllers.OrderSubmit(p.Orders, logg))
				r.Get("/rollup", controllers.OrderRollup(p.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(p.Orders, logg))
				r.With(idempotent).Post("/{orderId}/advance", controllers.OrderAdvance(p.Orders, logg))
			})

			r.Route("/transfer", func(r chi.Router) {
				r.Get("/{kind}.csv", controllers.TransferExport(p.Transfer, logg))
				r.With(idempotent).Post("/{kind}", controllers.TransferImport(p.Transfer, logg))
				r.Post("/{kind}/backup", controllers.TransferBackup(p.Transfer, logg))
				r.With(idempotent).Post("/{kind}/restore", controllers.TransferRestore(p.Transfer, logg))
			})
		})
	})

	return r
}
