// Package server provides the HTTP server for the Toastboard UI and API.
//
// This package is internal to Toastboard and handles all HTTP concerns:
//
//   - Toast container: Serves the embedded HTML/CSS/JS page at "/"
//   - REST API: list, add, dismiss and clear toasts under "/api/toasts"
//   - Server-Sent Events: Live store events at "/api/sse"
//   - WebSocket: Live store events plus dismiss commands at "/api/ws"
//   - Metrics: Prometheus exposition at "/metrics"
//
// Routing uses chi. The server supports graceful shutdown via context
// cancellation, with a 5-second timeout for in-flight requests.
//
// Users of the toastboard library should not need to interact with this
// package directly. The server is started by toastboard.Board.Start.
package server
