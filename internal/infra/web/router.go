package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"

	"github.com/DioGolang/GoStock/internal/infra/web/handler"
	"github.com/DioGolang/GoStock/internal/infra/web/middleware"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
)

type RouterConfig struct {
	ServiceName    string
	RequestTimeout time.Duration
	Orders         *handler.Order
	Products       *handler.Product
	Health         http.Handler
	Gatherer       prometheus.Gatherer
	RateLimiter    *middleware.IPDispatcher // optional
	Logger         logger.Logger
	Metrics        metrics.Metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(otelchi.Middleware(cfg.ServiceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.MetricsWrapper(cfg.Metrics))
	r.Use(chimiddleware.Recoverer)

	if cfg.Health != nil {
		r.Method(http.MethodGet, "/health", cfg.Health)
	}
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler(cfg.Logger))
		}
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}
		r.Route("/orders", cfg.Orders.Routes)
		r.Route("/products", cfg.Products.Routes)
	})

	return r
}
