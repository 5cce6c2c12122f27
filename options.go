package toastboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// maxDismissAfter bounds per-kind TTLs.
const maxDismissAfter = time.Hour

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title     string
	port      int
	logger    *slog.Logger
	ttls      map[Kind]time.Duration
	callbacks []func(Event)
	registry  *prometheus.Registry
	newID     func() string
}

// Option is a function that configures a [Board] during construction.
//
// Option implements the functional options pattern. Options return an
// error if validation fails, which [New] passes back to the caller.
type Option func(*boardConfig) error

// WithPort sets the HTTP port for the toast container and API.
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the page title shown in the browser tab and header.
//
// If not specified, defaults to "Toastboard".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithDismissAfter sets how long toasts of kind stay visible before they are
// removed automatically. [KindNeutral] sets the fallback used by kinds
// without their own value. A duration of 0 disables auto-dismiss.
//
// Defaults: neutral 5s, success 4s, info 5s, error 8s.
//
//	board, err := toastboard.New(
//	    toastboard.WithDismissAfter(toastboard.KindError, 0), // errors stay until dismissed
//	)
//
// Returns an error for an unknown kind or a duration outside 0 to 1h.
func WithDismissAfter(kind Kind, d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if !kind.Valid() {
			return fmt.Errorf("%w %q", ErrInvalidKind, kind)
		}
		if d < 0 || d > maxDismissAfter {
			return fmt.Errorf("dismiss duration must be between 0 and %s, got %s", maxDismissAfter, d)
		}
		cfg.ttls[kind] = d
		return nil
	}
}

// WithToastCallback registers a function to be called after every change to
// the board's toasts.
//
// Callbacks run while [Board.Start] is running, in registration order, on a
// single goroutine. They must not block. Panics are recovered and logged.
// A callback that falls far behind receives [EventResync] in place of the
// events it missed.
//
// Nil callbacks are silently ignored.
func WithToastCallback(cb func(Event)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}

// WithRegistry sets the Prometheus registry that the board's metrics are
// registered with and that backs the /metrics route.
//
// If not specified, each board gets its own fresh registry.
//
// Returns an error if the registry is nil.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(cfg *boardConfig) error {
		if reg == nil {
			return errors.New("registry cannot be nil")
		}
		cfg.registry = reg
		return nil
	}
}

// WithIDFunc replaces the toast id generator. Ids must be unique for the
// lifetime of the board; a repeated id makes [Board.Notify] fail.
//
// If not specified, random UUIDs are used.
//
// Returns an error if fn is nil.
func WithIDFunc(fn func() string) Option {
	return func(cfg *boardConfig) error {
		if fn == nil {
			return errors.New("id func cannot be nil")
		}
		cfg.newID = fn
		return nil
	}
}
