// Package dashboard holds the browser side of Toastboard: a single page that
// renders the toast stack and keeps it current over /api/sse.
//
// The page is compiled into the binary; the server reads
// "assets/index.html" from [Assets] and fills in the board title.
package dashboard

import "embed"

// Assets contains assets/index.html, the toast container with its styles
// and EventSource client inlined.
//
//go:embed assets/*
var Assets embed.FS
