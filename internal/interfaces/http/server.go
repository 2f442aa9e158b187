// Package http serves the live pick surfaces: best bets, the line shop,
// betslip construction, the debug endpoints, and the websocket change feed.
// The server is read-only; every route is GET.
package http

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/pipeline"
	"github.com/slatepick/slatepick/internal/providers"
	"github.com/slatepick/slatepick/internal/registry"
	"github.com/slatepick/slatepick/internal/stream"
	"github.com/slatepick/slatepick/internal/telemetry"
)

// Engine runs one slate on demand. Satisfied by *pipeline.Pipeline.
type Engine interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Deps carries the server's collaborators. Metrics, Hub and Whop may be nil;
// the matching routes then answer 503.
type Deps struct {
	Config   *config.Config
	Engine   Engine
	Registry *registry.Registry
	Metrics  *telemetry.Metrics
	Hub      *stream.Hub
	Whop     *providers.WhopClient
	Clock    clock.Clock
	Log      zerolog.Logger
	Version  string
}

// Server is the read-only HTTP front. One instance serves all sports.
type Server struct {
	router  *mux.Router
	httpSrv *http.Server
	deps    Deps
	cache   *slateCache
	started time.Time
	log     zerolog.Logger
}

// NewServer wires routes and middleware. It does not listen yet.
func NewServer(d Deps) *Server {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Version == "" {
		d.Version = "dev"
	}
	s := &Server{
		router:  mux.NewRouter(),
		deps:    d,
		cache:   newSlateCache(d.Engine, d.Clock),
		started: time.Now(),
		log:     d.Log.With().Str("component", "http").Logger(),
	}
	s.routes()

	timeout := d.Config.SlateDeadline + 10*time.Second
	s.httpSrv = &http.Server{
		Addr:         d.Config.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: timeout,
		IdleTimeout:  90 * time.Second,
	}
	return s
}

// Router exposes the handler tree for tests and embedding.
func (s *Server) Router() http.Handler { return s.router }

// Addr is the configured listen address.
func (s *Server) Addr() string { return s.httpSrv.Addr }

// Start blocks serving requests until Shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes() {
	s.router.Use(s.recoverMiddleware)
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)

	// Unauthenticated surfaces.
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", s.deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	// The websocket feed authenticates inside the handler; the timeout and
	// content-type middleware must not touch an upgraded connection.
	s.router.HandleFunc("/ws/changes", s.handleChanges).Methods(http.MethodGet)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.authMiddleware)
	api.Use(s.timeoutMiddleware)
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/live/best-bets/{sport}", s.handleBestBets).Methods(http.MethodGet)
	api.HandleFunc("/live/line-shop/{sport}", s.handleLineShop).Methods(http.MethodGet)
	api.HandleFunc("/live/betslip/generate", s.handleBetslip).Methods(http.MethodGet)
	api.HandleFunc("/debug/integrations", s.handleIntegrations).Methods(http.MethodGet)
	api.HandleFunc("/debug/esoteric-candidates/{sport}", s.handleEsotericCandidates).Methods(http.MethodGet)

	s.router.NotFoundHandler = s.withBase(http.HandlerFunc(s.handleNotFound))
	s.router.MethodNotAllowedHandler = s.withBase(http.HandlerFunc(s.handleNotFound))
}

// withBase re-applies the base middleware for handlers mux invokes outside
// the normal route chain.
func (s *Server) withBase(h http.Handler) http.Handler {
	return s.recoverMiddleware(s.requestIDMiddleware(s.loggingMiddleware(s.corsMiddleware(h))))
}

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyAuth
)

// RequestID returns the request id the middleware assigned, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// AuthContext describes how the request authenticated. It rides the receipt
// surfaces so a consumer can see which tier of access produced the payload.
type AuthContext struct {
	Method        string `json:"method"` // api_key, license or open
	Authenticated bool   `json:"authenticated"`
	Premium       bool   `json:"premium,omitempty"`
}

func authFrom(ctx context.Context) AuthContext {
	if ac, ok := ctx.Value(ctxKeyAuth).(AuthContext); ok {
		return ac
	}
	return AuthContext{Method: "open", Authenticated: true}
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()[:8]
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.log.Info().
			Str("request_id", RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.status).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// recoverMiddleware turns a handler panic into a structured 500 instead of
// a dropped connection.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("handler panicked")
				s.writeError(w, r, models.NewCodedError(models.ErrCodeInternal, "internal error"), false)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	timeout := s.deps.Config.SlateDeadline + 5*time.Second
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware opens the read-only surfaces to browser consumers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-License-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware enforces the API key when one is configured and resolves
// the auth context either way. A Whop license in X-License-Key upgrades the
// context to premium; license validation failures fail soft to non-premium.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, err := s.authenticate(r)
		if err != nil {
			s.writeError(w, r, err, false)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyAuth, ac)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) authenticate(r *http.Request) (AuthContext, error) {
	ac := AuthContext{Method: "open", Authenticated: true}

	if key := s.deps.Config.APIAuthKey; key != "" {
		presented := presentedKey(r)
		if presented == "" {
			return AuthContext{}, models.NewCodedError(models.ErrCodeAPIKeyMissing, "api key required")
		}
		if presented != key {
			return AuthContext{}, models.NewCodedError(models.ErrCodeAPIKeyInvalid, "api key rejected")
		}
		ac = AuthContext{Method: "api_key", Authenticated: true}
	}

	if license := strings.TrimSpace(r.Header.Get("X-License-Key")); license != "" && s.deps.Whop != nil {
		valid, err := s.deps.Whop.ValidateLicense(r.Context(), license)
		if err != nil {
			s.log.Debug().Err(err).Msg("license validation unavailable")
		} else if valid {
			ac.Method = "license"
			ac.Premium = true
		}
	}
	return ac, nil
}

// presentedKey accepts the key as a bearer token, an X-API-Key header, or a
// ?key= query parameter (the form websocket clients can send).
func presentedKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if h := strings.TrimSpace(r.Header.Get("X-API-Key")); h != "" {
		return h
	}
	return strings.TrimSpace(r.URL.Query().Get("key"))
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// statusWriter captures the status code for the request log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack keeps the websocket upgrade working through the logging wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}
