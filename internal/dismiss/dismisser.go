package dismiss

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/toastboard/internal/store"
)

// TTLs maps a toast kind to how long it stays visible.
//
// A kind without an entry uses the [store.KindNeutral] entry. A zero or
// missing duration disables auto-dismiss for that kind.
type TTLs map[store.Kind]time.Duration

// For returns the TTL that applies to kind.
func (t TTLs) For(kind store.Kind) time.Duration {
	if d, ok := t[kind]; ok {
		return d
	}
	return t[store.KindNeutral]
}

// Dismisser removes toasts from a store once their TTL has elapsed.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Dismisser struct {
	store  store.Store
	ttls   TTLs
	logger *slog.Logger
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu      sync.Mutex
	timers  map[string]*time.Timer
	started bool
	stopped bool
}

// NewDismisser creates a [Dismisser] for st.
//
// The dismisser does nothing until [Dismisser.Start] is called.
func NewDismisser(st store.Store, ttls TTLs, logger *slog.Logger) *Dismisser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dismisser{
		store:  st,
		ttls:   ttls,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Start subscribes to the store and begins expiring toasts in a background
// goroutine. Toasts already in the store are armed with whatever remains of
// their TTL.
//
// Start is idempotent; subsequent calls after the first are no-ops, as is a
// Start after Stop. It returns the store's error if the subscription fails,
// for instance because the store is already closed.
func (d *Dismisser) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.started || d.stopped {
		d.mu.Unlock()
		return nil
	}

	events, err := d.store.Subscribe()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	d.mu.Unlock()

	// list after subscribing so nothing added in between is missed;
	// arm ignores toasts that already have a timer
	existing, err := d.store.List()
	if err == nil {
		for _, t := range existing {
			d.arm(t)
		}
	}

	go func() {
		defer d.wg.Done()
		defer d.store.Unsubscribe(events)

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					// store closed
					d.disarmAll()
					return
				}
				d.handle(ev)
			case <-ctx.Done():
				d.disarmAll()
				return
			}
		}
	}()

	return nil
}

// Stop halts the dismisser, cancels every pending timer and waits for the
// event loop to exit. Stop is idempotent and safe to call before Start.
func (d *Dismisser) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		if d.cancel != nil {
			d.cancel()
		}
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.disarmAll()
}

// Pending returns the number of armed timers.
func (d *Dismisser) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

func (d *Dismisser) handle(ev store.Event) {
	switch ev.Type {
	case store.EventAdded:
		d.arm(ev.Toast)
	case store.EventRemoved:
		d.disarm(ev.Toast.ID)
	case store.EventCleared:
		d.disarmAll()
	case store.EventResync:
		d.resync()
	}
}

// resync rebuilds the timer set from the store after events were dropped:
// toasts that are gone lose their timers and every remaining toast is armed.
func (d *Dismisser) resync() {
	current, err := d.store.List()
	if err != nil {
		// closed; the event loop ends when the channel does
		return
	}

	present := make(map[string]struct{}, len(current))
	for _, t := range current {
		present[t.ID] = struct{}{}
	}

	d.mu.Lock()
	for id, timer := range d.timers {
		if _, ok := present[id]; !ok {
			timer.Stop()
			delete(d.timers, id)
		}
	}
	d.mu.Unlock()

	for _, t := range current {
		d.arm(t)
	}
	d.logger.Debug("dismisser resynced", "toasts", len(current))
}

// arm schedules removal of t. Toasts with a disabled TTL and toasts that
// are already armed are skipped.
func (d *Dismisser) arm(t store.Toast) {
	ttl := d.ttls.For(t.Kind)
	if ttl <= 0 {
		return
	}

	remaining := ttl - time.Since(t.CreatedAt)
	if remaining < 0 {
		remaining = 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if _, ok := d.timers[t.ID]; ok {
		return
	}

	id := t.ID
	d.timers[id] = time.AfterFunc(remaining, func() { d.expire(id) })
}

func (d *Dismisser) disarm(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[id]; ok {
		timer.Stop()
		delete(d.timers, id)
	}
}

func (d *Dismisser) disarmAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, timer := range d.timers {
		timer.Stop()
		delete(d.timers, id)
	}
}

// expire runs on the timer goroutine.
func (d *Dismisser) expire(id string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.timers, id)
	d.mu.Unlock()

	removed, err := d.store.Remove(id)
	switch {
	case errors.Is(err, store.ErrOutOfScope):
		// store torn down under us; nothing left to expire
	case err != nil:
		d.logger.Error("toast expiry failed", "toast_id", id, "error", err)
	case removed:
		d.logger.Debug("toast expired", "toast_id", id)
	}
}
