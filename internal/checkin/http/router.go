package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/service"
	"github.com/aussiebroadwan/checkin/internal/checkin/store"
	"github.com/aussiebroadwan/checkin/pkg/httpx"
	"github.com/aussiebroadwan/checkin/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/aussiebroadwan/checkin/api/checkin" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router serves the attendance API.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	trustProxy   bool

	store      store.Store
	Keys       KeyFeed
	Sessions   *service.SessionAuthorizer
	Attendance *service.AttendanceTracker
	Location   *time.Location
	Gatherer   prometheus.Gatherer
}

// NewRouter creates the attendance router. When trustProxy is set the
// client address is taken from X-Forwarded-For or X-Real-IP.
func NewRouter(buildVersion string, st store.Store, logger *slog.Logger, trustProxy bool) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		trustProxy:   trustProxy,
		store:        st,
		Location:     time.UTC,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerAttendance()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Checkin Attendance API
//	@version		0.1.0
//	@description	Device-bound attendance tracking. A student logs in with the 4-digit rotating key shown
//	@description	on the key display, which binds the student to the calling device. Check-in and check-out
//	@description	are only accepted from the bound device.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/checkin
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:6300
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	// Login and logout accept a 4-digit key, so guesses are limited per address.
	r.Mux.Handle("POST /api/login",
		httpx.Chain(&LoginHandler{Sessions: r.Sessions, TrustProxy: r.trustProxy},
			httpx.RateLimitByIP(httpx.StrictLimit, r.trustProxy),
		),
	)
	r.Mux.Handle("POST /api/logout",
		httpx.Chain(&LogoutHandler{Sessions: r.Sessions, TrustProxy: r.trustProxy},
			httpx.RateLimitByIP(httpx.StrictLimit, r.trustProxy),
		),
	)
}

func (r *Router) registerAttendance() {
	h := &AttendanceHandler{
		Attendance: r.Attendance,
		Location:   r.Location,
		TrustProxy: r.trustProxy,
	}

	public := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, httpx.RateLimitByIP(httpx.PublicLimit, r.trustProxy))
	}

	r.Mux.Handle("POST /api/checkin", public(h.HandleCheckIn))
	r.Mux.Handle("POST /api/checkout", public(h.HandleCheckOut))
	r.Mux.Handle("GET /api/status/{studentId}", public(h.HandleStatus))
	r.Mux.Handle("GET /api/history", public(h.HandleHistory))
	r.Mux.Handle("GET /api/reports/weekly", public(h.HandleWeeklyReport))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Keys))

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", MetricsHandler(r.Gatherer))
	}
}
