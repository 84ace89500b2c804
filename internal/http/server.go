package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/singleflight"

	"finanzas/internal/auth"
	"finanzas/internal/cache"
	"finanzas/internal/log"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/middleware/trace"
	"finanzas/internal/services"
)

var errNoStore = errors.New("store not configured")

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API needs. Limiter and SummaryCache are
// optional.
type Deps struct {
	Transactions *services.TransactionService
	Simulations  *services.SimulationService
	Store        Pinger
	Verifier     *auth.Verifier
	Limiter      *ratelimit.Limiter
	SummaryCache cache.Cache[SummaryResponse]
	Logger       *log.Logger
}

type Server struct {
	http.Server

	tx       *services.TransactionService
	sims     *services.SimulationService
	store    Pinger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	logger   *log.Logger

	summaries cache.Cache[SummaryResponse]
	inflight  singleflight.Group
	started   time.Time

	genMu       sync.Mutex
	generations map[string]uint64
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		tx:        deps.Transactions,
		sims:      deps.Simulations,
		store:     deps.Store,
		limiter:   deps.Limiter,
		detector:  security.NewDetector(),
		logger:    logger,
		summaries: deps.SummaryCache,
		started:   time.Now(),

		generations: make(map[string]uint64),
	}

	notFound := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ErrorResponse(req, http.StatusNotFound, "not_found", "route not found").Write(w)
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ErrorResponse(req, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed").Write(w)
	})

	r := mux.NewRouter()
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = methodNotAllowed

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = methodNotAllowed
	api.Use(auth.Middleware(deps.Verifier, logger, func(w http.ResponseWriter, req *http.Request, err error) {
		writeError(w, req, err, log.OpValidate)
	}))

	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", s.handleGetTransaction).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", s.handleUpdateTransaction).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/suggestions", s.handleSuggestions).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)

	api.HandleFunc("/loans/simulate", s.handleSimulateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans", s.handleListLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans", s.handleSaveLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id}", s.handleDeleteLoan).Methods(http.MethodDelete)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.edge(r),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// edge wraps the whole router so unmatched routes get the same tracing,
// headers, scanner rejection and rate limiting as matched ones. mux only runs
// Use middleware on a full match.
func (s *Server) edge(next http.Handler) http.Handler {
	h := next
	if s.limiter != nil {
		h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, req *http.Request) {
			ErrorResponse(req, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded").Write(w)
		})(h)
	}
	h = s.detector.Middleware(func(w http.ResponseWriter, req *http.Request) {
		ErrorResponse(req, http.StatusBadRequest, "suspicious_request", "request rejected").Write(w)
	})(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware(h)
}

// owner returns the authenticated owner. The auth middleware guarantees one
// on every /api route.
func owner(r *http.Request) string {
	id, _ := auth.OwnerFromContext(r.Context())
	return id
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "HTTP server shutting down", log.FieldOperation, log.OpShutdown)
	return s.Server.Shutdown(ctx)
}

// Run serves on l until ctx is done, then shuts down and waits up to
// shutdownTimeout for in-flight requests. Serve returns as soon as shutdown
// starts, so Run waits on the shutdown itself.
func (s *Server) Run(ctx context.Context, l net.Listener, shutdownTimeout time.Duration) error {
	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		stopped <- s.Shutdown(shutdownCtx)
	}()

	if err := s.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}

// storeReady pings the store with a bounded timeout.
func (s *Server) storeReady(ctx context.Context) error {
	if s.store == nil {
		return errNoStore
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.store.Ping(ctx)
}
