package core

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// defaultRequestTimeout is the soft deadline applied to request contexts.
// Store reads and the weather fetch carry their own shorter timeouts; this is
// the outer bound that keeps a stuck handler from pinning a connection.
const defaultRequestTimeout = 29 * time.Second

// defaultRedactedHeaders lists header names whose values are masked in
// request logs.
var defaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
}

// MountRoutes registers the global middleware chain, the domain route groups,
// and the top-level operational routes (health, metrics, root status).
func (s *Server) MountRoutes() {
	s.registerGlobalMiddleware()

	for _, registrar := range s.RouteRegistrars {
		registrar(s.router)
	}

	// Root status route kept for firmware compatibility: the device-side
	// watchdog polls "/" and expects this exact payload.
	s.router.Get("/", s.HandleRoot)
	s.router.Get("/health", s.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// registerGlobalMiddleware applies middleware in strict order.
//
// Ordering rationale:
//  1. Recoverer        - outermost so all panics are caught.
//  2. ContextTimeout   - soft deadline before anything blocks.
//  3. RequestID        - correlation ID for tracing.
//  4. RequestLogger    - structured logging with redacted headers.
//  5. CORS             - browser security headers.
//  6. Metrics          - request latency and count recording.
func (s *Server) registerGlobalMiddleware() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(defaultRequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))
	s.router.Use(NewCORSMiddleware(s.corsAllowedOrigins()))
	s.router.Use(s.MetricsMiddleware)
}

// HandleRoot reports process liveness in the legacy shape. The rainfall path
// never loads the trained model bundle, so using_model is constantly false.
func (s *Server) HandleRoot(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, map[string]any{
		"status":      "ok",
		"using_model": false,
	})
}

// corsAllowedOrigins returns the CORS allowed origins from configuration.
func (s *Server) corsAllowedOrigins() []string {
	if s.Config != nil && len(s.Config.Server.CorsAllowedOrigins) > 0 {
		return s.Config.Server.CorsAllowedOrigins
	}
	return []string{"*"}
}
