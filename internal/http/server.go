package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Accounts registers, authenticates and edits users.
type Accounts interface {
	Register(ctx context.Context, in services.Registration) (core.User, string, error)
	Login(ctx context.Context, email, password string) (core.User, string, error)
	Get(ctx context.Context, userID int64) (core.User, error)
	UpdateProfile(ctx context.Context, userID int64, patch services.ProfilePatch) (core.User, string, error)
}

// Ledger lists and mutates a user's transactions.
type Ledger interface {
	List(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error)
	Add(ctx context.Context, userID int64, in services.NewTransaction) (core.Transaction, error)
	Update(ctx context.Context, userID, id int64, patch services.TransactionPatch) (core.Transaction, error)
	Remove(ctx context.Context, userID, id int64) error
}

// Summarizer computes the dashboard.
type Summarizer interface {
	Summarize(ctx context.Context, userID int64) (core.Summary, error)
	BudgetStatus(sum core.Summary, budget core.Money) core.BudgetStatus
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Accounts     Accounts
	Transactions Ledger
	Summaries    Summarizer
	Tokens       auth.Verifier
	Store        Pinger
}

// Options tune the transport around the handlers.
type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	AuthRateLimit      int // requests per minute per client on /auth routes
	Detector           *security.Detector
	Logger             *log.Logger
}

type Server struct {
	http.Server
	deps Deps

	logger      *log.Logger
	detector    *security.Detector
	tracer      *trace.Middleware
	authLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(deps Deps, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	detector := opts.Detector
	if detector == nil {
		// no extra proxies, so this cannot fail
		detector, _ = security.NewDetector()
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		deps:     deps,
		logger:   logger.WithComponent(log.ComponentHTTP),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
		authLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.AuthRateLimit,
		}),
	}

	routes := s.routes()

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", routes))
	mux.Handle("/", routes)

	// Outermost first
	var handler http.Handler = mux
	handler = security.NewCORS(opts.CORSAllowedOrigins).Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestID)(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)
	s.Handler = handler

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	limited := s.authLimiter.Middleware(s.detector.ExtractClientIP, s.rateLimited)
	gate := auth.NewGate(s.deps.Tokens, s.unauthenticated)
	protected := func(h http.HandlerFunc) http.Handler {
		return gate.Middleware(h)
	}

	mux.Handle("POST /auth/register", limited(http.HandlerFunc(s.handleRegister)))
	mux.Handle("POST /auth/login", limited(http.HandlerFunc(s.handleLogin)))

	mux.Handle("GET /user/me", protected(s.handleMe))
	mux.Handle("PUT /user/update", protected(s.handleUpdateProfile))

	mux.Handle("GET /transaction", protected(s.handleListTransactions))
	mux.Handle("POST /transaction", protected(s.handleAddTransaction))
	mux.Handle("PUT /transaction/{id}", protected(s.handleUpdateTransaction))
	mux.Handle("DELETE /transaction/{id}", protected(s.handleDeleteTransaction))

	mux.Handle("GET /dashboard/summary", protected(s.handleDashboardSummary))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	return mux
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.authLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics aggregates the counters of the middleware stack.
type Metrics struct {
	Requests  trace.Metrics
	RateLimit ratelimit.Metrics
	Security  security.DetectionMetrics
}

func (s *Server) GetMetrics() Metrics {
	return Metrics{
		Requests:  s.tracer.GetMetrics(),
		RateLimit: s.authLimiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
	}
}

func (s *Server) unauthenticated(w http.ResponseWriter, r *http.Request, _ error) {
	UnauthorizedError("Not authorized, token failed").Write(w)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	TooManyRequestsError("Too many requests, please try again later").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			NewJSONResponse().
				Status(http.StatusServiceUnavailable).
				Body(map[string]string{"status": "unavailable"}).
				Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
