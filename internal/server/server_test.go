package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/toastboard/internal/metrics"
	"github.com/jpalmerr/toastboard/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, cfg Config) (*store.MemoryStore, *httptest.Server) {
	t.Helper()
	st := store.NewMemoryStore(nil)
	cfg.Logger = testLogger()
	ts := httptest.NewServer(NewServer(st, cfg).Handler())
	t.Cleanup(ts.Close)
	return st, ts
}

func postToast(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/api/toasts", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/toasts error = %v", err)
	}
	return resp
}

func doDelete(t *testing.T, url string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodDelete, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE %s error = %v", url, err)
	}
	return resp
}

// --- REST ---

func TestHandleList_Empty(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/api/toasts")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestHandleAdd_CreatesToast(t *testing.T) {
	st, ts := newTestServer(t, Config{})

	resp := postToast(t, ts.URL, `{"title":"Saved","kind":"success","description":"All good"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var toast store.Toast
	if err := json.NewDecoder(resp.Body).Decode(&toast); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if toast.ID == "" || toast.Title != "Saved" || toast.Kind != store.KindSuccess {
		t.Errorf("toast = %+v", toast)
	}

	all, _ := st.List()
	if len(all) != 1 || all[0].ID != toast.ID {
		t.Errorf("store = %+v, want the created toast", all)
	}
}

func TestHandleAdd_Validation(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"kind":"info"}`},
		{"blank title", `{"title":"  "}`},
		{"unknown kind", `{"title":"x","kind":"warning"}`},
		{"malformed json", `{"title":`},
		{"unknown field", `{"title":"x","id":"forged"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postToast(t, ts.URL, tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestHandleDismiss(t *testing.T) {
	st, ts := newTestServer(t, Config{})
	a, _ := st.Add(store.Input{Title: "a"})
	_, _ = st.Add(store.Input{Title: "b"})

	resp := doDelete(t, ts.URL+"/api/toasts/"+a.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if st.Len() != 1 {
		t.Errorf("Len() = %d, want 1", st.Len())
	}

	// dismissing again is idempotent
	resp = doDelete(t, ts.URL+"/api/toasts/"+a.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("repeat status = %d, want 204", resp.StatusCode)
	}
	if st.Len() != 1 {
		t.Errorf("Len() = %d after repeat, want 1", st.Len())
	}
}

func TestHandleClear(t *testing.T) {
	st, ts := newTestServer(t, Config{})
	_, _ = st.Add(store.Input{Title: "a"})
	_, _ = st.Add(store.Input{Title: "b"})

	resp := doDelete(t, ts.URL+"/api/toasts")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if st.Len() != 0 {
		t.Errorf("Len() = %d, want 0", st.Len())
	}
}

func TestHandlers_ClosedStoreIsUnavailable(t *testing.T) {
	st, ts := newTestServer(t, Config{})
	_ = st.Close()

	resp := postToast(t, ts.URL, `{"title":"late"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("POST status = %d, want 503", resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/api/toasts")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("GET status = %d, want 503", resp.StatusCode)
	}

	resp = doDelete(t, ts.URL+"/api/toasts/any")
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("DELETE status = %d, want 503", resp.StatusCode)
	}
}

func TestHandleAdd_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/toasts", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

// --- Dashboard ---

func TestHandleDashboard_TitleEscaped(t *testing.T) {
	assets := fstest.MapFS{
		"assets/index.html": {Data: []byte("<title>{{.Title}}</title><h1>{{.Title}}</h1>")},
	}
	_, ts := newTestServer(t, Config{Assets: assets, Title: "<script>alert(1)</script>"})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "<script>") {
		t.Errorf("title not escaped: %s", body)
	}
	if !strings.Contains(string(body), "&lt;script&gt;") {
		t.Errorf("escaped title missing: %s", body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
}

func TestHandleDashboard_DefaultTitle(t *testing.T) {
	assets := fstest.MapFS{
		"assets/index.html": {Data: []byte("<title>{{.Title}}</title>")},
	}
	_, ts := newTestServer(t, Config{Assets: assets})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<title>Toastboard</title>") {
		t.Errorf("body = %s, want default title", body)
	}
}

func TestHandleDashboard_NoAssets(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

// --- Metrics ---

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("metrics.New() error = %v", err)
	}
	st := store.NewMemoryStore(nil)
	srv := NewServer(metrics.Instrument(st, m, metrics.ReasonDismissed), Config{
		Logger:   testLogger(),
		Metrics:  m,
		Gatherer: reg,
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := postToast(t, ts.URL, `{"title":"counted","kind":"info"}`)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `toastboard_toasts_added_total{kind="info"} 1`) {
		t.Errorf("metrics missing added counter:\n%s", body)
	}
}

// --- SSE ---

func TestHandleSSE_SendsSnapshot(t *testing.T) {
	st := store.NewMemoryStore(nil)
	_, _ = st.Add(store.Input{Title: "API-1"})
	_, _ = st.Add(store.Input{Title: "API-2", Kind: store.KindError})

	srv := NewServer(st, Config{Logger: testLogger()})

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	rec := httptest.NewRecorder()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	srv.handleSSE(rec, req)

	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: snapshot\n") {
		t.Errorf("stream should start with snapshot, got: %s", body)
	}
	if !strings.Contains(body, "API-1") || !strings.Contains(body, "API-2") {
		t.Errorf("snapshot should contain both toasts, got: %s", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
}

func TestHandleSSE_StreamsEvents(t *testing.T) {
	st, ts := newTestServer(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sse", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/sse error = %v", err)
	}
	defer resp.Body.Close()

	events := make(chan streamMessage, 10)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var msg streamMessage
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg); err == nil {
				events <- msg
			}
		}
		close(events)
	}()

	next := func() streamMessage {
		t.Helper()
		select {
		case msg, ok := <-events:
			if !ok {
				t.Fatal("stream closed early")
			}
			return msg
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for SSE message")
		}
		return streamMessage{}
	}

	if msg := next(); msg.Type != snapshotType {
		t.Fatalf("first message type = %q, want snapshot", msg.Type)
	}

	toast, _ := st.Add(store.Input{Title: "NewToast"})
	msg := next()
	if msg.Type != string(store.EventAdded) || msg.Toast == nil || msg.Toast.ID != toast.ID {
		t.Errorf("added message = %+v", msg)
	}

	_, _ = st.Remove(toast.ID)
	msg = next()
	if msg.Type != string(store.EventRemoved) || msg.Toast == nil || msg.Toast.ID != toast.ID {
		t.Errorf("removed message = %+v", msg)
	}

	_, _ = st.Clear()
	if msg := next(); msg.Type != string(store.EventCleared) || msg.Toast != nil {
		t.Errorf("cleared message = %+v", msg)
	}
}

func TestHandleSSE_ExitsWhenStoreCloses(t *testing.T) {
	st := store.NewMemoryStore(nil)
	srv := NewServer(st, Config{Logger: testLogger()})

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	_ = st.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after store closed")
	}
}

func TestHandleSSE_ClientDisconnect(t *testing.T) {
	st := store.NewMemoryStore(nil)
	srv := NewServer(st, Config{Logger: testLogger()})

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	rec := httptest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("handler did not exit after client disconnect")
	}
}

// feedStore reads and writes through a MemoryStore but hands every
// subscriber the same test-driven channel, so tests can deliver any event
// sequence, including ones a live store only produces under load.
type feedStore struct {
	*store.MemoryStore
	feed chan store.Event
}

func newFeedStore() *feedStore {
	return &feedStore{
		MemoryStore: store.NewMemoryStore(nil),
		feed:        make(chan store.Event, 10),
	}
}

func (f *feedStore) Subscribe() (<-chan store.Event, error) { return f.feed, nil }

func (f *feedStore) Unsubscribe(<-chan store.Event) {}

func TestNextMessage_ResyncBecomesSnapshot(t *testing.T) {
	fs := newFeedStore()
	srv := NewServer(fs, Config{Logger: testLogger()})

	kept, _ := fs.Add(store.Input{Title: "kept"})

	msg, err := srv.nextMessage(store.Event{Type: store.EventResync})
	if err != nil {
		t.Fatalf("nextMessage() error = %v", err)
	}
	if msg.Type != snapshotType || len(msg.Toasts) != 1 || msg.Toasts[0].ID != kept.ID {
		t.Errorf("message = %+v, want snapshot of [%s]", msg, kept.ID)
	}

	_ = fs.Close()
	if _, err := srv.nextMessage(store.Event{Type: store.EventResync}); err == nil {
		t.Error("nextMessage() on closed store should fail")
	}
}

func TestHandleSSE_ResyncSendsSnapshot(t *testing.T) {
	fs := newFeedStore()
	ts := httptest.NewServer(NewServer(fs, Config{Logger: testLogger()}).Handler())
	defer ts.Close()

	gone, _ := fs.Add(store.Input{Title: "gone"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sse", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/sse error = %v", err)
	}
	defer resp.Body.Close()

	events := make(chan streamMessage, 10)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var msg streamMessage
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg); err == nil {
				events <- msg
			}
		}
		close(events)
	}()

	next := func() streamMessage {
		t.Helper()
		select {
		case msg := <-events:
			return msg
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for SSE message")
		}
		return streamMessage{}
	}

	if msg := next(); msg.Type != snapshotType || len(msg.Toasts) != 1 {
		t.Fatalf("first message = %+v, want snapshot with one toast", msg)
	}

	// the removal event never reaches the client, only the resync marker
	_, _ = fs.Remove(gone.ID)
	fresh, _ := fs.Add(store.Input{Title: "fresh"})
	fs.feed <- store.Event{Type: store.EventResync}

	msg := next()
	if msg.Type != snapshotType || len(msg.Toasts) != 1 || msg.Toasts[0].ID != fresh.ID {
		t.Errorf("message after resync = %+v, want snapshot of [%s]", msg, fresh.ID)
	}
}

// --- WebSocket ---

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) streamMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg streamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestHandleWS_SnapshotAndEvents(t *testing.T) {
	st, ts := newTestServer(t, Config{})
	existing, _ := st.Add(store.Input{Title: "existing"})

	conn := dialWS(t, ts)

	msg := readWS(t, conn)
	if msg.Type != snapshotType || len(msg.Toasts) != 1 || msg.Toasts[0].ID != existing.ID {
		t.Fatalf("snapshot = %+v", msg)
	}

	added, _ := st.Add(store.Input{Title: "live", Kind: store.KindInfo})
	msg = readWS(t, conn)
	if msg.Type != string(store.EventAdded) || msg.Toast == nil || msg.Toast.ID != added.ID {
		t.Errorf("added message = %+v", msg)
	}
}

func TestHandleWS_ResyncSendsSnapshot(t *testing.T) {
	fs := newFeedStore()
	ts := httptest.NewServer(NewServer(fs, Config{Logger: testLogger()}).Handler())
	defer ts.Close()

	gone, _ := fs.Add(store.Input{Title: "gone"})
	conn := dialWS(t, ts)

	if msg := readWS(t, conn); msg.Type != snapshotType || len(msg.Toasts) != 1 {
		t.Fatalf("snapshot = %+v", msg)
	}

	_, _ = fs.Remove(gone.ID)
	fs.feed <- store.Event{Type: store.EventResync}

	msg := readWS(t, conn)
	if msg.Type != snapshotType || len(msg.Toasts) != 0 {
		t.Errorf("message after resync = %+v, want empty snapshot", msg)
	}
}

func TestHandleWS_DismissCommand(t *testing.T) {
	st, ts := newTestServer(t, Config{})
	toast, _ := st.Add(store.Input{Title: "dismiss over ws"})

	conn := dialWS(t, ts)
	_ = readWS(t, conn) // snapshot

	if err := conn.WriteJSON(wsCommand{Op: "dismiss", ID: toast.ID}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	msg := readWS(t, conn)
	if msg.Type != string(store.EventRemoved) || msg.Toast == nil || msg.Toast.ID != toast.ID {
		t.Errorf("removed message = %+v", msg)
	}
	if st.Len() != 0 {
		t.Errorf("Len() = %d, want 0", st.Len())
	}
}

func TestHandleWS_ClearCommand(t *testing.T) {
	st, ts := newTestServer(t, Config{})
	_, _ = st.Add(store.Input{Title: "a"})
	_, _ = st.Add(store.Input{Title: "b"})

	conn := dialWS(t, ts)
	_ = readWS(t, conn) // snapshot

	if err := conn.WriteJSON(wsCommand{Op: "clear"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	if msg := readWS(t, conn); msg.Type != string(store.EventCleared) {
		t.Errorf("message = %+v, want cleared", msg)
	}
	if st.Len() != 0 {
		t.Errorf("Len() = %d, want 0", st.Len())
	}
}

func TestHandleWS_StreamClientGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("metrics.New() error = %v", err)
	}
	st := store.NewMemoryStore(nil)
	ts := httptest.NewServer(NewServer(st, Config{Logger: testLogger(), Metrics: m, Gatherer: reg}).Handler())
	defer ts.Close()

	conn := dialWS(t, ts)
	_ = readWS(t, conn)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `toastboard_stream_clients{transport="ws"} 1`) {
		t.Errorf("metrics missing ws client gauge:\n%s", body)
	}
}

// --- Lifecycle ---

func TestServer_StartAndShutdown(t *testing.T) {
	st := store.NewMemoryStore(nil)
	srv := NewServer(st, Config{Port: 0, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	addr, ok := srv.Addr().(*net.TCPAddr)
	if !ok {
		t.Fatalf("Addr() = %v, want *net.TCPAddr", srv.Addr())
	}
	base := fmt.Sprintf("http://127.0.0.1:%d", addr.Port)

	resp, err := http.Get(base + "/api/toasts")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()

	// the listener should close shortly after cancellation
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/api/toasts")
		if err != nil {
			return
		}
		resp.Body.Close()
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("server still accepting connections after shutdown")
}
