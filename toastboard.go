package toastboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/toastboard/dashboard"
	"github.com/jpalmerr/toastboard/internal/dismiss"
	"github.com/jpalmerr/toastboard/internal/metrics"
	"github.com/jpalmerr/toastboard/internal/server"
	"github.com/jpalmerr/toastboard/internal/store"
)

const (
	defaultPort  = 8080
	defaultTitle = "Toastboard"
)

// defaultDismissAfter holds the per-kind TTLs applied before options.
var defaultDismissAfter = map[Kind]time.Duration{
	KindNeutral: 5 * time.Second,
	KindSuccess: 4 * time.Second,
	KindInfo:    5 * time.Second,
	KindError:   8 * time.Second,
}

// Board owns the toasts of one application and serves them to the browser.
//
// A Board is the notification store plus its rendering collaborators: the
// HTTP API and live streams, and the auto-dismisser. Create it once with
// [New] at application start and pass the *Board to every component that
// shows or dismisses toasts. There is no package-level instance.
//
// The typical lifecycle is:
//
//	board, err := toastboard.New(toastboard.WithPort(9090))
//	if err != nil {
//	    slog.Error("failed to create toastboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	go worker(board) // calls board.Notify / board.Dismiss
//	board.Start(ctx) // blocks until ctx cancelled, then closes the board
//
// The board's scope runs from New until Close, or until Start returns.
// Outside that window every method returns an error wrapping
// [ErrOutOfScope].
type Board struct {
	title     string
	port      int
	logger    *slog.Logger
	ttls      dismiss.TTLs
	callbacks []func(Event)
	registry  *prometheus.Registry

	store    *store.MemoryStore
	metrics  *metrics.Metrics
	producer store.Store // instrumented view used by Notify/Dismiss and the API

	mu      sync.Mutex
	started bool
}

// New creates a [Board] with the given options. The board's store is live
// as soon as New returns, so toasts can be queued before [Board.Start].
//
// Defaults:
//   - Port: 8080
//   - Title: "Toastboard"
//   - Dismiss after: neutral 5s, success 4s, info 5s, error 8s
//   - Logger: slog.Default()
//   - Ids: random UUIDs
//
// Returns an error if any option is invalid, or if the board's metrics
// conflict with collectors already in the registry.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		port: defaultPort,
		ttls: make(map[Kind]time.Duration, len(defaultDismissAfter)),
	}
	for k, d := range defaultDismissAfter {
		cfg.ttls[k] = d
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	title := cfg.title
	if title == "" {
		title = defaultTitle
	}

	ttls := make(dismiss.TTLs, len(cfg.ttls))
	for k, d := range cfg.ttls {
		ttls[store.Kind(k)] = d
	}

	m, err := metrics.New(registry)
	if err != nil {
		return nil, err
	}
	st := store.NewMemoryStore(cfg.newID)

	return &Board{
		title:     title,
		port:      cfg.port,
		logger:    logger,
		ttls:      ttls,
		callbacks: cfg.callbacks,
		registry:  registry,
		store:     st,
		metrics:   m,
		producer:  metrics.Instrument(st, m, metrics.ReasonDismissed),
	}, nil
}

// Start serves the toast container and API, and expires toasts, until ctx
// is cancelled.
//
// Start is a blocking call. On return the board is closed: the store is torn
// down, stream clients are disconnected and later calls fail with
// [ErrOutOfScope]. The dashboard is available at http://localhost:<port>.
//
// Returns nil on graceful shutdown. Returns an error if the board was
// already started or closed, or if the HTTP server fails to start.
func (b *Board) Start(ctx context.Context) error {
	if _, err := b.live("start"); err != nil {
		return err
	}
	if !b.store.Live() {
		return &ScopeError{Op: "start"}
	}

	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return errors.New("board already started")
	}
	b.started = true
	b.mu.Unlock()

	defer func() {
		_ = b.Close()
		b.logger.Info("toastboard stopped")
	}()

	b.logger.Info("toastboard starting", "title", b.title)
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	var wg sync.WaitGroup
	if len(b.callbacks) > 0 {
		events, err := b.store.Subscribe()
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			// the channel closes when the store is closed
			for ev := range events {
				pub := toPublicEvent(ev)
				for _, cb := range b.callbacks {
					invokeCallbackSafe(cb, pub, b.logger)
				}
			}
		}()
	}

	dismisser := dismiss.NewDismisser(
		metrics.Instrument(b.store, b.metrics, metrics.ReasonExpired),
		b.ttls,
		b.logger,
	)
	if err := dismisser.Start(ctx); err != nil {
		_ = b.Close()
		wg.Wait()
		return fmt.Errorf("failed to start dismisser: %w", err)
	}

	// cleanup stops the dismisser before the store goes away, then waits
	// for the callback consumer to drain
	cleanup := func() {
		dismisser.Stop()
		_ = b.Close()
		wg.Wait()
	}

	httpServer := server.NewServer(b.producer, server.Config{
		Port:     b.port,
		Assets:   dashboard.Assets,
		Title:    b.title,
		Logger:   b.logger,
		Metrics:  b.metrics,
		Gatherer: b.registry,
	})
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	return nil
}

// Notify shows a toast and returns it with its generated id.
//
// The title must not be blank and the kind must be valid; otherwise the
// board is left unchanged and [ErrTitleRequired] or [ErrInvalidKind] is
// returned.
func (b *Board) Notify(in Input) (Toast, error) {
	st, err := b.live("add")
	if err != nil {
		return Toast{}, err
	}

	t, err := st.Add(toStoreInput(in))
	if err != nil {
		return Toast{}, err
	}

	b.logger.Debug("toast added", "toast_id", t.ID, "kind", t.Kind)
	return toPublicToast(t), nil
}

// Dismiss removes the toast with the given id. Dismissing an id that is not
// shown, for instance one that already expired, does nothing.
func (b *Board) Dismiss(id string) error {
	st, err := b.live("remove")
	if err != nil {
		return err
	}
	_, err = st.Remove(id)
	return err
}

// Clear removes every toast.
func (b *Board) Clear() error {
	st, err := b.live("clear")
	if err != nil {
		return err
	}
	_, err = st.Clear()
	return err
}

// Toasts returns the current toasts, oldest first.
//
// The returned slice is a copy; modifying it does not affect the board.
func (b *Board) Toasts() ([]Toast, error) {
	st, err := b.live("list")
	if err != nil {
		return nil, err
	}

	toasts, err := st.List()
	if err != nil {
		return nil, err
	}

	out := make([]Toast, len(toasts))
	for i, t := range toasts {
		out[i] = toPublicToast(t)
	}
	return out, nil
}

// Close ends the board's scope. Toasts still showing are discarded. Close is
// idempotent and is called by [Board.Start] on return.
func (b *Board) Close() error {
	if b == nil || b.store == nil {
		return nil
	}
	b.metrics.ToastsDiscarded(b.store.Shutdown())
	return nil
}

// Port returns the configured HTTP port.
func (b *Board) Port() int {
	return b.port
}

// Title returns the configured page title.
func (b *Board) Title() string {
	return b.title
}

// Registry returns the Prometheus registry the board's metrics live in.
func (b *Board) Registry() *prometheus.Registry {
	return b.registry
}

// live returns the board's store, or a scope error for boards that were not
// built by New. Closed stores report their own scope errors.
func (b *Board) live(op string) (store.Store, error) {
	if b == nil || b.producer == nil {
		return nil, &ScopeError{Op: op}
	}
	return b.producer, nil
}

// invokeCallbackSafe calls a toast callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Event), ev Event, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("toast callback panicked",
				"panic", r,
				"event", ev.Type,
				"toast_id", ev.Toast.ID,
			)
		}
	}()
	cb(ev)
}
