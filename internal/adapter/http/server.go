package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/couchcryptid/seismic-data-api/internal/adapter/usgs"
	"github.com/couchcryptid/seismic-data-api/internal/auth"
	"github.com/couchcryptid/seismic-data-api/internal/config"
	"github.com/couchcryptid/seismic-data-api/internal/domain"
	"github.com/couchcryptid/seismic-data-api/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FeatureFetcher builds upstream URLs and fetches feature collections.
// It is implemented by *usgs.Client.
type FeatureFetcher interface {
	URL(q usgs.FeedQuery) string
	FetchFeatures(ctx context.Context, fullURL string) (domain.FeatureCollection, error)
}

// ContactPublisher hands contact messages to the downstream mailer.
type ContactPublisher interface {
	Publish(ctx context.Context, msg domain.ContactMessage) error
}

// ReadinessFunc adapts a function to sharedobs.ReadinessChecker.
type ReadinessFunc func(ctx context.Context) error

func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// Deps are the collaborators and settings the server routes to. Users and
// Contacts are optional; their routes are not registered when nil.
type Deps struct {
	Feed            FeatureFetcher
	Policy          config.QueryPolicy
	UpstreamTimeout time.Duration
	UpstreamLimit   int

	Users    domain.UserStore
	Tokens   *auth.Tokens
	Contacts ContactPublisher

	Ready          sharedobs.ReadinessChecker
	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies []netip.Prefix
	Metrics        *observability.Metrics
	Clock          clockwork.Clock
}

// Server exposes the earthquake API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	limiter    *clientLimiter
	logger     *slog.Logger
}

// NewServer creates an HTTP server with every API route registered.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Ready == nil {
		deps.Ready = ReadinessFunc(func(context.Context) error { return nil })
	}

	mux := http.NewServeMux()

	s := &Server{
		deps:    deps,
		limiter: newClientLimiter(deps.RateLimitRPS, deps.RateLimitBurst, deps.Clock),
		logger:  logger,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.instrument(s.rateLimit(mux)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: deps.UpstreamTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/earthquakes/recent", s.handleRecent)
	mux.HandleFunc("GET /api/v1/earthquakes/today", s.handleToday)
	mux.HandleFunc("GET /api/v1/earthquakes/last-week", s.handleLastWeek)
	mux.HandleFunc("GET /api/v1/earthquakes/month", s.handleMonth)
	mux.HandleFunc("GET /api/v1/earthquakes/region", s.handleRegion)
	mux.HandleFunc("GET /api/v1/earthquakes/depth", s.handleDepth)
	mux.HandleFunc("GET /api/v1/earthquakes/range", s.handleRange)
	mux.HandleFunc("GET /api/v1/earthquakes/magnitude", s.handleMagnitude)
	mux.HandleFunc("GET /api/v1/earthquakes/radius", s.handleRadius)
	mux.HandleFunc("GET /api/v1/earthquakes/{id}", s.handleByID)

	if deps.Users != nil && deps.Tokens != nil {
		mux.HandleFunc("POST /api/v1/users/register", s.handleRegister)
		mux.HandleFunc("POST /api/v1/users/login", s.handleLogin)
		mux.Handle("GET /api/v1/users/me", deps.Tokens.Require(http.HandlerFunc(s.handleMe), writeUnauthorized))
	}
	if deps.Contacts != nil {
		mux.HandleFunc("POST /api/v1/contacts", s.handleContact)
	}

	return s
}

// Start sweeps idle rate-limit entries until ctx is done and begins
// listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	go s.limiter.run(ctx)
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
