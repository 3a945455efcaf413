// Package kernel assembles the HTTP handler: global middleware, services,
// controllers and routes.
package kernel

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/rainbowartistery/atelier/app/controllers"
	"github.com/rainbowartistery/atelier/app/repositories"
	"github.com/rainbowartistery/atelier/app/routes"
	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/config"
	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/cache"
	"github.com/rainbowartistery/atelier/pkg/mail"
	"github.com/rainbowartistery/atelier/pkg/metrics"
	"github.com/rainbowartistery/atelier/pkg/middleware"
	"github.com/rainbowartistery/atelier/pkg/reqid"
	"github.com/rainbowartistery/atelier/pkg/response"
	"github.com/rainbowartistery/atelier/pkg/router"
	"github.com/rainbowartistery/atelier/pkg/session"
	"github.com/rainbowartistery/atelier/pkg/storage"
	"github.com/rainbowartistery/atelier/pkg/workerpool"
)

// Deps are the live connections the kernel wires into services. Zero
// values are tolerated so `route:list` can build the table offline.
type Deps struct {
	DB     *gorm.DB
	Cache  cache.Store
	Disk   storage.Disk
	Mailer mail.Mailer
	Pool   *workerpool.Pool
}

type HTTPKernel struct {
	router *router.Router
}

func NewHTTPKernel(d Deps) *HTTPKernel {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Mailer == nil {
		d.Mailer = mail.LogMailer{}
	}

	r := router.New()

	sessOpts := session.DefaultOptions()
	sessOpts.TTL = config.SessionTTL()
	sessOpts.Secure = config.IsProduction()
	sessions := session.NewManager(d.Cache, sessOpts)

	cors := middleware.DefaultCORSOptions()
	cors.AllowedOrigins = config.CORSAllowedOrigins()

	// Outermost first. The session must be loaded before AdminSession.
	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		sessions.Middleware(),
		middleware.AdminSession,
		middleware.CORS(cors),
		middleware.RateLimit(200, time.Minute),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/health", "health", health(d))
	if local, ok := d.Disk.(*storage.LocalDisk); ok {
		r.Mount("/storage", http.StripPrefix("/storage", http.FileServer(http.Dir(local.Root()))))
	}

	routes.RegisterAPI(r, buildControllers(d))
	return &HTTPKernel{router: r}
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Routes() []router.RouteInfo { return k.router.Routes() }

func buildControllers(d Deps) routes.Controllers {
	gate := auth.ContextGate{}
	timeout := config.CollaboratorTimeout()

	products := repositories.NewProductRepository(d.DB)

	catalog := services.NewCatalogService(products, d.Cache, gate, config.CacheTTL())
	writer := services.NewProductService(products, d.Cache, gate)
	content := services.NewContentService(
		repositories.NewTestimonialRepository(d.DB),
		repositories.NewAnnouncementRepository(d.DB),
		d.Cache, config.CacheTTL(),
	)
	enquiries := services.NewEnquiryService(repositories.NewEnquiryRepository(d.DB), products, gate, d.Mailer, d.Pool,
		services.EnquiryOptions{NotifyTo: config.EnquiryNotifyEmail(), Timeout: timeout})
	media := services.NewMediaService(d.Disk, gate, config.MediaMaxBytes(), timeout)
	signIn := services.NewAuthService(
		repositories.NewAdminRepository(d.DB),
		auth.NewSigner(config.JWTSecret(), services.MagicLinkTTL),
		d.Mailer,
		services.AuthOptions{
			Allowlist:       config.AdminEmails(),
			BaseURL:         config.AppURL(),
			CallbackOrigins: config.List("AUTH_CALLBACK_ORIGINS"),
			Timeout:         timeout,
		},
	)

	return routes.Controllers{
		Products:      controllers.NewProductController(catalog),
		AdminProducts: controllers.NewAdminProductController(catalog, writer),
		Media:         controllers.NewMediaController(media),
		Auth:          controllers.NewAuthController(signIn),
		Content:       controllers.NewContentController(content),
		Enquiries:     controllers.NewEnquiryController(enquiries),
		Gate:          gate,
	}
}

// health reports database reachability and the active cache and disk
// drivers.
func health(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"database": "ok", "cache": d.Cache.Driver()}
		if d.Disk != nil {
			status["storage"] = d.Disk.Name()
		}

		if d.DB == nil {
			response.Error(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		response.Success(w, status)
	}
}
