package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/marketplace-core/api/controllers"
	authcontrollers "github.com/angelmondragon/marketplace-core/api/controllers/auth"
	cartcontrollers "github.com/angelmondragon/marketplace-core/api/controllers/cart"
	"github.com/angelmondragon/marketplace-core/api/middleware"
	"github.com/angelmondragon/marketplace-core/internal/auth"
	"github.com/angelmondragon/marketplace-core/internal/catalog"
	"github.com/angelmondragon/marketplace-core/pkg/auth/session"
	"github.com/angelmondragon/marketplace-core/pkg/config"
	"github.com/angelmondragon/marketplace-core/pkg/enums"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
	"github.com/angelmondragon/marketplace-core/pkg/metrics"
)

// Deps carries everything the router wires into handlers. Optional
// dependencies (RateLimiter, Gatherer, HTTPMetrics, Readiness) may be nil.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Sessions    session.AccessSessionChecker
	RateLimiter middleware.RateLimiterStore
	Auth        auth.Service
	Catalog     catalog.Reader
	Cart        cartcontrollers.Service
	Checkout    controllers.CheckoutService
	Theme       controllers.ThemeService
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	Readiness   map[string]controllers.Pinger
	CORSOrigins []string
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg, d.HTTPMetrics),
		middleware.CORS(d.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Readiness))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	loginThrottle := middleware.Throttle(middleware.LoginRateLimit{
		Name:     "login",
		Window:   cfg.RateLimit.LoginWindow,
		PerIP:    cfg.RateLimit.LoginIPLimit,
		PerEmail: cfg.RateLimit.LoginEmailLimit,
	}, d.RateLimiter, logg)
	authn := middleware.Auth(cfg.JWT, d.Sessions, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginThrottle).Post("/login", authcontrollers.AuthLogin(d.Auth, logg))
			r.With(authn).Post("/logout", authcontrollers.AuthLogout(d.Auth, logg))
			r.With(authn).Get("/me", authcontrollers.AuthMe(logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogList(d.Catalog, logg))
			r.Get("/products/{productId}", controllers.CatalogGet(d.Catalog, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Route("/theme", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg))
				r.Get("/", controllers.ThemeGet(d.Theme, logg))
				r.Put("/", controllers.ThemeSet(d.Theme, logg))
				r.Post("/toggle", controllers.ThemeToggle(d.Theme, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleCustomer))
				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cartcontrollers.CartFetch(d.Cart, logg))
					r.Delete("/", cartcontrollers.CartClear(d.Cart, logg))
					r.Post("/items", cartcontrollers.CartAddItem(d.Cart, d.Catalog, logg))
					r.Patch("/items/{lineId}", cartcontrollers.CartUpdateQuantity(d.Cart, logg))
					r.Delete("/items/{lineId}", cartcontrollers.CartRemoveItem(d.Cart, logg))
				})
				r.Post("/checkout", controllers.Checkout(d.Checkout, logg))
			})

			r.With(middleware.RequireRole(logg, enums.RoleAdmin)).Get("/admin/ping", controllers.RolePing("admin"))
			r.With(middleware.RequireRole(logg, enums.RoleVendor, enums.RoleAdmin)).Get("/vendor/ping", controllers.RolePing("vendor"))
			r.With(middleware.RequireRole(logg, enums.RoleRider, enums.RoleAdmin)).Get("/rider/ping", controllers.RolePing("rider"))
		})
	})

	return r
}
