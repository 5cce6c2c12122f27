package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jpalmerr/toastboard/internal/metrics"
	"github.com/jpalmerr/toastboard/internal/store"
)

// snapshotType is the message type of the initial state sent to every
// stream client. Later messages carry a store.EventType.
const snapshotType = "snapshot"

// streamMessage is the payload of SSE data lines and WebSocket frames.
type streamMessage struct {
	Type   string        `json:"type"`
	Toast  *store.Toast  `json:"toast,omitempty"`
	Toasts []store.Toast `json:"toasts,omitempty"`
}

func snapshotMessage(toasts []store.Toast) streamMessage {
	return streamMessage{Type: snapshotType, Toasts: toasts}
}

func eventMessage(ev store.Event) streamMessage {
	msg := streamMessage{Type: string(ev.Type)}
	if ev.Type != store.EventCleared {
		t := ev.Toast
		msg.Toast = &t
	}
	return msg
}

// nextMessage converts a store event into the message sent to a stream
// client. A resync becomes a fresh snapshot, replacing whatever the client
// pieced together from the events it missed.
func (s *Server) nextMessage(ev store.Event) (streamMessage, error) {
	if ev.Type != store.EventResync {
		return eventMessage(ev), nil
	}
	toasts, err := s.store.List()
	if err != nil {
		return streamMessage{}, err
	}
	return snapshotMessage(toasts), nil
}

// wsCommand is a client request received over the WebSocket.
type wsCommand struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`
}

// handleSSE streams store events via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// subscribe before taking the snapshot so nothing falls in between
	ch, err := s.store.Subscribe()
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer s.store.Unsubscribe(ch)

	s.cfg.Metrics.StreamOpened(metrics.TransportSSE)
	defer s.cfg.Metrics.StreamClosed(metrics.TransportSSE)

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(msg streamMessage) error {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}

		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data); err != nil {
			return err
		}

		// ResponseController.Flush respects the write deadline
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	toasts, err := s.store.List()
	if err != nil {
		return
	}
	if err := writeAndFlush(snapshotMessage(toasts)); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				// store closed
				return
			}
			msg, err := s.nextMessage(ev)
			if err != nil {
				return
			}
			if err := writeAndFlush(msg); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}

// handleWS streams store events over a WebSocket and accepts dismiss and
// clear commands from the client.
//
// Only this goroutine writes to the connection; a reader goroutine applies
// commands and reports when the client goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ch, err := s.store.Subscribe()
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer s.store.Unsubscribe(ch)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.cfg.Metrics.StreamOpened(metrics.TransportWS)
	defer s.cfg.Metrics.StreamClosed(metrics.TransportWS)

	write := func(msg streamMessage) error {
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(msg)
	}

	toasts, err := s.store.List()
	if err != nil {
		return
	}
	if err := write(snapshotMessage(toasts)); err != nil {
		return
	}

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var cmd wsCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			s.applyCommand(cmd)
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "store closed"),
					time.Now().Add(time.Second))
				return
			}
			msg, err := s.nextMessage(ev)
			if err != nil {
				return
			}
			if err := write(msg); err != nil {
				return
			}

		case <-readerDone:
			return

		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(time.Second))
			return
		}
	}
}

// applyCommand runs a client command against the store. Unknown operations
// are ignored.
func (s *Server) applyCommand(cmd wsCommand) {
	var err error
	switch cmd.Op {
	case "dismiss":
		_, err = s.store.Remove(cmd.ID)
	case "clear":
		_, err = s.store.Clear()
	default:
		s.logger.Debug("unknown websocket command", "op", cmd.Op)
		return
	}
	if err != nil {
		s.logger.Warn("websocket command failed", "op", cmd.Op, "toast_id", cmd.ID, "error", err)
	}
}
