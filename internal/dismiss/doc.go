// Package dismiss expires toasts after a per-kind time-to-live.
//
// The notification store has no timers of its own. A [Dismisser] plays the
// part of the rendering surface's auto-dismiss: it subscribes to store
// events, arms one timer per added toast and removes the toast when the
// timer fires. Toasts removed by other means simply have their timers
// cancelled.
//
// Users of the toastboard library should not need to interact with this
// package directly. TTLs are configured through toastboard.WithDismissAfter.
package dismiss
