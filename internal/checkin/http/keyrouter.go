package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/checkin/pkg/httpx"
	"github.com/aussiebroadwan/checkin/pkg/slogx"
)

// KeyRouter serves the live rotating key to the key display.
type KeyRouter struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Keys KeyFeed
	// PingInterval keeps idle websocket feeds alive. Defaults to 30s.
	PingInterval time.Duration
}

func NewKeyRouter(buildVersion string, keys KeyFeed, logger *slog.Logger) *KeyRouter {
	r := &KeyRouter{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		Keys:         keys,
		PingInterval: 30 * time.Second,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(),
	}

	return r
}

func (r *KeyRouter) ApplyRoutes() {
	r.Mux.Handle("GET /api/dynamic-key", DynamicKeyHandler(r.Keys))
	r.Mux.Handle("GET /api/dynamic-key/ws", &KeyFeedHandler{Keys: r.Keys, PingInterval: r.PingInterval})
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
}

func (r *KeyRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}
