package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/toastboard/internal/metrics"
	"github.com/jpalmerr/toastboard/internal/store"
)

const (
	// streamWriteTimeout is the maximum time allowed for a single SSE or
	// WebSocket write. Must be <= shutdown timeout to ensure clean shutdown.
	streamWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds the graceful drain of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// maxBodyBytes caps POST /api/toasts request bodies.
	maxBodyBytes = 64 << 10

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Toastboard"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Config holds the optional collaborators of a [Server].
type Config struct {
	// Port is the TCP port to listen on. 0 picks a free port.
	Port int

	// Assets contains the toast container page at "assets/index.html".
	// The "/" route is not registered when Assets is nil.
	Assets fs.FS

	// Title is substituted into the page. Defaults to "Toastboard".
	Title string

	// Logger receives server events. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records stream client counts. May be nil.
	Metrics *metrics.Metrics

	// Gatherer backs the /metrics route. The route is not registered when
	// Gatherer is nil.
	Gatherer prometheus.Gatherer
}

// Server handles HTTP requests for the Toastboard UI and API.
//
// The store handed to the server is used for every mutation; callers wrap
// it with metrics.Instrument when removals should be counted as dismissals.
type Server struct {
	store    store.Store
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu         sync.Mutex
	httpServer *http.Server
	addr       net.Addr
}

// NewServer creates a new HTTP [Server] backed by st.
//
// The server is not started until [Server.Start] is called; [Server.Handler]
// can be used directly in tests or to mount the API in another router.
func NewServer(st store.Store, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:  st,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/toasts", s.handleList)
		r.Post("/toasts", s.handleAdd)
		r.Delete("/toasts", s.handleClear)
		r.Delete("/toasts/{id}", s.handleDismiss)
		r.Get("/sse", s.handleSSE)
		r.Get("/ws", s.handleWS)
	})

	if s.cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	if s.cfg.Assets != nil {
		r.Get("/", s.handleDashboard)
	}

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the address the server is listening on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// handleDashboard serves the toast container page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(s.cfg.Assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.cfg.Title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleList returns the current toasts as JSON.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	toasts, err := s.store.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if toasts == nil {
		toasts = []store.Toast{}
	}
	w.Header().Set("Cache-Control", "no-cache")
	s.writeJSON(w, http.StatusOK, toasts)
}

// handleAdd creates a toast from a JSON [store.Input] body.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var in store.Input
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}

	toast, err := s.store.Add(in)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Debug("toast added", "toast_id", toast.ID, "kind", toast.Kind)
	s.writeJSON(w, http.StatusCreated, toast)
}

// handleDismiss removes one toast. Unknown ids still answer 204.
func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Remove(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClear removes every toast.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Clear(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps store errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrOutOfScope):
		status = http.StatusServiceUnavailable
	case errors.Is(err, store.ErrTitleRequired), errors.Is(err, store.ErrInvalidKind):
		status = http.StatusBadRequest
	}
	if status >= 500 {
		s.logger.Error("toast request failed", "error", err)
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// logRequests logs every request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
