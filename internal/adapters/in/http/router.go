package httpin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"optivista/internal/adapters/in/http/handlers"
	httpmw "optivista/internal/adapters/in/http/middleware"
	"optivista/internal/application/auth"
	"optivista/internal/application/live"
	usecase "optivista/internal/application/usecase"
)

// RouterDeps collects all usecases (and other dependencies) injected from the container.
type RouterDeps struct {
	Logger *zap.Logger

	Auth     *httpmw.AuthMiddleware
	Admin    *httpmw.AdminMiddleware
	Verifier auth.Verifier

	AuthUC     *usecase.AuthUsecase
	CatalogUC  *usecase.CatalogUsecase
	CartUC     *usecase.CartUsecase
	CheckoutUC *usecase.CheckoutUsecase
	ContactUC  *usecase.ContactUsecase
	DownloadUC *usecase.DownloadUsecase
	OrderUC    *usecase.OrderUsecase
	ProfileUC  *usecase.ProfileUsecase
	SettingsUC *usecase.SettingsUsecase

	// Live enables GET /live when its Source is set.
	Live        live.Deps
	MailChecker MailChecker

	// Gatherer backs /metrics; nil hides the endpoint.
	Gatherer prometheus.Gatherer

	AllowedOrigins []string
	SecureCookies  bool
}

// NewRouter sets up HTTP routing for all storefront endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(httpmw.AccessLog(logger))
	r.Use(httpmw.Recover(logger))
	r.Use(httpmw.CORS(deps.AllowedOrigins))

	// Health check (always on)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Mount only what has a usecase.
	if deps.CatalogUC != nil {
		r.Mount("/images", handlers.NewImageHandler(deps.CatalogUC, deps.DownloadUC, deps.Auth, logger))
	}

	if deps.CartUC != nil {
		r.With(httpmw.CartSession(deps.SecureCookies)).
			Mount("/cart", handlers.NewCartHandler(deps.CartUC, logger))
	}

	if deps.ContactUC != nil {
		r.Method(http.MethodPost, "/contact", handlers.NewContactHandler(deps.ContactUC, logger))
	}

	if deps.Live.Source != nil {
		var admins httpmw.AdminChecker
		if deps.Admin != nil {
			admins = deps.Admin
		}
		r.Handle("/live", handlers.NewLiveHandler(deps.Live, deps.Verifier, admins, handlers.LiveConfig{
			AllowedOrigins: deps.AllowedOrigins,
		}, logger))
	}

	if deps.Auth == nil {
		logger.Warn("auth middleware missing; signed-in routes are not mounted")
		return r
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Required)

		if deps.AuthUC != nil {
			r.Method(http.MethodPost, "/auth/bootstrap", handlers.NewAuthBootstrapHandler(deps.AuthUC, deps.Admin, logger))
		}
		if deps.CheckoutUC != nil {
			r.With(httpmw.CartSession(deps.SecureCookies)).
				Mount("/checkout", handlers.NewCheckoutHandler(deps.CheckoutUC, logger))
		}
		if deps.ProfileUC != nil {
			r.Mount("/profile", handlers.NewProfileHandler(deps.ProfileUC, deps.OrderUC, logger))
		}

		if deps.Admin == nil {
			return
		}
		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.Admin.Handler)
			r.Post("/mail/test", DebugSendGridHandler(deps.MailChecker, logger))
			r.Mount("/", handlers.NewAdminHandler(handlers.AdminDeps{
				Catalog:   deps.CatalogUC,
				Orders:    deps.OrderUC,
				Downloads: deps.DownloadUC,
				Settings:  deps.SettingsUC,
			}, logger))
		})
	})

	return r
}
