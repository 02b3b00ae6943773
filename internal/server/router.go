package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/credentials"
	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
	"github.com/HSousa1987/Lavandaria-sub001/internal/logging"
	gwmiddleware "github.com/HSousa1987/Lavandaria-sub001/internal/middleware"
	"github.com/HSousa1987/Lavandaria-sub001/internal/policy"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
	"github.com/HSousa1987/Lavandaria-sub001/internal/sessions"
	"github.com/HSousa1987/Lavandaria-sub001/internal/telemetry"
)

// RouterOptions controls the construction of the gateway router. Sessions,
// Routes and Verifier are required; nil repositories leave their routes
// answering 500.
type RouterOptions struct {
	Sessions *sessions.Manager
	Routes   *policy.Table
	Verifier *credentials.Verifier

	Staff    repository.StaffRepository
	Clients  repository.ClientRepository
	Jobs     repository.JobRepository
	Payments repository.PaymentRepository

	Readiness      []ReadinessCheck
	Cookie         auth.CookieConfig
	CORSOptions    *cors.Options
	Logger         logging.Logger
	ServerMetrics  *telemetry.ServerMetrics
	GatewayMetrics *telemetry.GatewayMetrics
	// Now is the clock for date defaults in finance routes.
	Now func() time.Time
}

// DefaultCORSOptions returns the development CORS policy for the web front end.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:3000",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		ExposedHeaders:   []string{envelope.HeaderCorrelationID},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewRouter assembles the chi router: correlation, logging, recovery, CORS
// and the gateway run in that order ahead of every handler, including the
// not-found and method-not-allowed fallbacks.
func NewRouter(opts RouterOptions) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	hook := logErrors(logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(gwmiddleware.Correlation)
	r.Use(gwmiddleware.RequestLogger(logger, opts.ServerMetrics))
	r.Use(gwmiddleware.Recoverer(logger))

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	r.Use(gwmiddleware.Gateway(gwmiddleware.GatewayOptions{
		Sessions: opts.Sessions,
		Routes:   opts.Routes,
		Cookie:   opts.Cookie,
		Logger:   logger,
		Metrics:  opts.GatewayMetrics,
	}))

	authH := &authHandlers{
		verifier: opts.Verifier,
		sessions: opts.Sessions,
		staff:    opts.Staff,
		cookie:   opts.Cookie,
		logger:   logger,
		metrics:  opts.GatewayMetrics,
	}
	jobsH := &jobHandlers{jobs: opts.Jobs}
	dirH := &directoryHandlers{staff: opts.Staff, clients: opts.Clients}
	finH := &financeHandlers{payments: opts.Payments, now: now}

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", envelope.Handle(HandleHealthz, hook))
		r.Get("/readyz", envelope.Handle(HandleReadyz(opts.Readiness, logger), hook))

		r.Post("/auth/login/staff", envelope.Handle(authH.HandleStaffLogin, hook))
		r.Post("/auth/login/client", envelope.Handle(authH.HandleClientLogin, hook))
		r.Post("/auth/logout", envelope.Handle(authH.HandleLogout, hook))
		r.Get("/auth/check", envelope.Handle(authH.HandleCheck, hook))

		r.Get("/client/jobs", envelope.Handle(requires(opts.Jobs != nil, jobsH.HandleClientJobs), hook))
		r.Get("/client/jobs/{id}", envelope.Handle(requires(opts.Jobs != nil, jobsH.HandleClientJob), hook))
		r.Get("/jobs", envelope.Handle(requires(opts.Jobs != nil, jobsH.HandleStaffJobs), hook))
		r.Get("/jobs/{id}", envelope.Handle(requires(opts.Jobs != nil, jobsH.HandleStaffJob), hook))

		r.Get("/staff", envelope.Handle(requires(opts.Staff != nil, dirH.HandleStaff), hook))
		r.Get("/clients", envelope.Handle(requires(opts.Clients != nil, dirH.HandleClients), hook))

		r.Get("/payments", envelope.Handle(requires(opts.Payments != nil, finH.HandlePayments), hook))
		r.Get("/tax-summary", envelope.Handle(requires(opts.Payments != nil, finH.HandleTaxSummary), hook))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		envelope.WriteError(w, r, envelope.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		envelope.WriteError(w, r, envelope.ErrMethodNotAllowed)
	})

	return r
}

// NewH2CHandler wraps the router to serve HTTP/2 over cleartext as well as HTTP/1.1.
func NewH2CHandler(opts RouterOptions) http.Handler {
	return h2c.NewHandler(NewRouter(opts), &http2.Server{})
}

var errNotConfigured = envelope.ErrInternal.Wrap(errBackendMissing)

// requires guards handlers whose repository was not wired.
func requires(ok bool, fn envelope.HandlerFunc) envelope.HandlerFunc {
	if ok {
		return fn
	}
	return func(http.ResponseWriter, *http.Request) (envelope.Fields, error) {
		return nil, errNotConfigured
	}
}

// logErrors logs server-side failures with their cause. Client errors are
// already logged by the request logger.
func logErrors(logger logging.Logger) envelope.ErrorHook {
	return func(r *http.Request, err *envelope.Error) {
		if err.Status < http.StatusInternalServerError {
			return
		}
		ctx := r.Context()
		logging.FromContext(ctx, logger).Error(ctx, "request failed", "code", err.Code, "error", err.Err)
	}
}
