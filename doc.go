// Package toastboard provides an embeddable toast-notification board for Go
// programs.
//
// A [Board] holds the ordered list of toasts that are currently visible and
// serves them to a browser: a toast container page, a JSON API, and live
// updates over Server-Sent Events or WebSocket. Toasts expire on their own
// after a per-kind delay, or when the user dismisses them.
//
// # Quick Start
//
// Create a board, hand it to the code that produces toasts, and start it
// with graceful shutdown:
//
//	board, _ := toastboard.New(toastboard.WithPort(8080))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	go func() {
//	    board.Notify(toastboard.Input{Kind: toastboard.KindSuccess, Title: "Saved"})
//	}()
//
//	board.Start(ctx) // blocks until the context is cancelled
//
// # Store Semantics
//
// Toasts keep insertion order. Every toast gets a generated id that is unique
// while the board lives. [Board.Dismiss] with an id that is no longer shown
// is a no-op, since timers and users routinely race to dismiss the same
// toast.
//
// A board is usable from [New] until [Board.Close], which [Board.Start] calls
// on return. Calls on a nil board, a zero Board, or a closed board return a
// [*ScopeError] wrapping [ErrOutOfScope]: they mean the program wired the
// board incorrectly.
//
// # HTTP API
//
//   - GET /: Toast container page
//   - GET /api/toasts: Current toasts as JSON
//   - POST /api/toasts: Add a toast ({"title": "...", "kind": "success"})
//   - DELETE /api/toasts/{id}: Dismiss one toast
//   - DELETE /api/toasts: Dismiss all toasts
//   - GET /api/sse: Server-Sent Events stream of changes
//   - GET /api/ws: WebSocket stream of changes; accepts {"op":"dismiss","id":"..."}
//   - GET /metrics: Prometheus metrics
//
// # Architecture
//
// Toastboard consists of several internal packages (under internal/):
//
//   - internal/store: Ordered in-memory toast store with pub/sub
//   - internal/dismiss: Per-kind auto-dismiss timers
//   - internal/server: HTTP server with REST API, SSE and WebSocket
//   - internal/metrics: Prometheus collectors
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package toastboard
