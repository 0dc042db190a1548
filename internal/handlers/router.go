package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/jooyeonthemaster/book/internal/platform/httpx"
)

const (
	apiPrefix      = "/api/v1"
	requestTimeout = 60 * time.Second
	corsMaxAge     = 300
)

// RouteRegistrar attaches one resource's routes to its subrouter.
type RouteRegistrar func(r chi.Router)

// Option configures NewRouter.
type Option func(*routerConfig)

type middlewares []func(http.Handler) http.Handler

// routeGroup is one resource under /api/v1. A group without a registrar answers 501.
type routeGroup struct {
	path     string
	register RouteRegistrar
	use      middlewares
}

type routerConfig struct {
	global  middlewares
	origins []string
	perMin  int
	health  *HealthHandlers
	groups  []*routeGroup
}

func (c *routerConfig) group(path string) *routeGroup {
	for _, g := range c.groups {
		if g.path == path {
			return g
		}
	}
	g := &routeGroup{path: path}
	c.groups = append(c.groups, g)
	return g
}

// NewRouter builds the HTTP surface: probes at the root and the rate-limited resource groups under /api/v1.
func NewRouter(opts ...Option) chi.Router {
	cfg := &routerConfig{
		global: middlewares{middleware.RequestID, middleware.RealIP, middleware.Timeout(requestTimeout)},
	}
	// Fixed order so unconfigured groups still answer 501.
	for _, path := range []string{"/recommendations", "/shares", "/internal"} {
		cfg.group(path)
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	if len(cfg.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"Location", "X-Request-Id"},
			MaxAge:         corsMaxAge,
		}))
	}
	applyMiddlewares(r, cfg.global)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", "no route for "+req.URL.Path, http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", req.Method+" is not allowed on "+req.URL.Path, http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Route(apiPrefix, func(api chi.Router) {
		if cfg.perMin > 0 {
			api.Use(httprate.Limit(cfg.perMin, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, req *http.Request) {
					httpx.WriteError(req.Context(), w, httpx.NewError("rate_limited", "too many requests", http.StatusTooManyRequests))
				}),
			))
		}
		for _, g := range cfg.groups {
			api.Route(g.path, func(sub chi.Router) {
				applyMiddlewares(sub, g.use)
				if g.register == nil {
					notImplemented(sub, g.path)
					return
				}
				g.register(sub)
			})
		}
	})
	return r
}

func applyMiddlewares(r chi.Router, mws middlewares) {
	for _, mw := range mws {
		if mw != nil {
			r.Use(mw)
		}
	}
}

func notImplemented(r chi.Router, path string) {
	h := func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", apiPrefix+path+" is not available", http.StatusNotImplemented))
	}
	r.HandleFunc("/", h)
	r.HandleFunc("/*", h)
	r.NotFound(h)
	r.MethodNotAllowed(h)
}

// WithMiddlewares runs mw after the request id, real ip and timeout middleware.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(c *routerConfig) { c.global = append(c.global, mw...) }
}

// WithHealthHandlers serves /healthz and /readyz from h.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(c *routerConfig) { c.health = h }
}

// WithAllowedOrigins turns on CORS for the given origins ("*" allows any).
func WithAllowedOrigins(origins ...string) Option {
	return func(c *routerConfig) { c.origins = append(c.origins, origins...) }
}

// WithRateLimit caps /api/v1 requests per client IP per minute. Zero disables the limit.
func WithRateLimit(perMinute int) Option {
	return func(c *routerConfig) { c.perMin = perMinute }
}

// WithRecommendationRoutes mounts reg at /api/v1/recommendations.
func WithRecommendationRoutes(reg RouteRegistrar) Option {
	return func(c *routerConfig) { c.group("/recommendations").register = reg }
}

// WithShareRoutes mounts reg at /api/v1/shares.
func WithShareRoutes(reg RouteRegistrar) Option {
	return func(c *routerConfig) { c.group("/shares").register = reg }
}

// WithInternalRoutes mounts reg at /api/v1/internal.
func WithInternalRoutes(reg RouteRegistrar) Option {
	return func(c *routerConfig) { c.group("/internal").register = reg }
}

// WithInternalMiddlewares guards /api/v1/internal, typically with auth.RequireInternalToken.
func WithInternalMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(c *routerConfig) {
		g := c.group("/internal")
		g.use = append(g.use, mw...)
	}
}
