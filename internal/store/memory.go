package store

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscriberBuffer is the channel buffer handed to each subscriber.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore keeps toasts in a slice ordered by insertion, with an id index
// for uniqueness checks. Events are published while the state lock is held,
// so every subscriber observes changes in the order they were applied.
// Sends are non-blocking. The last slot of each subscriber buffer is
// reserved: when only that slot is left, the subscriber is sent a single
// [EventResync] and further events are dropped for it until its buffer
// drains.
//
// The zero value is not usable: every operation on it returns a
// [*ScopeError]. Create stores with [NewMemoryStore].
type MemoryStore struct {
	mu     sync.RWMutex
	toasts []Toast
	ids    map[string]struct{}
	newID  IDFunc
	now    func() time.Time
	open   bool

	subMu sync.Mutex
	// subscribers maps each channel to whether it is waiting on a resync.
	subscribers map[chan Event]bool
}

// NewMemoryStore creates a live [MemoryStore].
//
// newID generates toast ids; nil selects random UUIDs. The store stays live
// until [MemoryStore.Close] is called.
func NewMemoryStore(newID IDFunc) *MemoryStore {
	if newID == nil {
		newID = uuid.NewString
	}
	return &MemoryStore{
		ids:         make(map[string]struct{}),
		newID:       newID,
		now:         time.Now,
		open:        true,
		subscribers: make(map[chan Event]bool),
	}
}

// Add validates in, assigns a fresh id and appends the toast.
//
// The title must contain a non-space character and the kind must be one of
// the known kinds. On error the store is unchanged.
func (m *MemoryStore) Add(in Input) (Toast, error) {
	if m == nil {
		return Toast{}, &ScopeError{Op: "add"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return Toast{}, &ScopeError{Op: "add"}
	}
	if strings.TrimSpace(in.Title) == "" {
		return Toast{}, ErrTitleRequired
	}
	if !in.Kind.Valid() {
		return Toast{}, fmt.Errorf("%w %q", ErrInvalidKind, in.Kind)
	}

	t := Toast{
		ID:          m.newID(),
		Kind:        in.Kind,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   m.now(),
	}
	if _, exists := m.ids[t.ID]; exists {
		return Toast{}, ErrDuplicateID
	}

	m.toasts = append(m.toasts, t)
	m.ids[t.ID] = struct{}{}

	m.publish(Event{Type: EventAdded, Toast: t})
	return t, nil
}

// Remove deletes the toast with the given id if present.
//
// It returns false with a nil error when no toast matches; duplicate
// dismiss requests are expected and harmless.
func (m *MemoryStore) Remove(id string) (bool, error) {
	if m == nil {
		return false, &ScopeError{Op: "remove"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return false, &ScopeError{Op: "remove"}
	}
	if _, exists := m.ids[id]; !exists {
		return false, nil
	}

	idx := slices.IndexFunc(m.toasts, func(t Toast) bool { return t.ID == id })
	removed := m.toasts[idx]
	m.toasts = slices.Delete(m.toasts, idx, idx+1)
	delete(m.ids, id)

	m.publish(Event{Type: EventRemoved, Toast: removed})
	return true, nil
}

// Clear removes every toast. Subscribers receive a single [EventCleared],
// even when the store was already empty.
func (m *MemoryStore) Clear() (int, error) {
	if m == nil {
		return 0, &ScopeError{Op: "clear"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return 0, &ScopeError{Op: "clear"}
	}

	n := len(m.toasts)
	m.toasts = nil
	clear(m.ids)

	m.publish(Event{Type: EventCleared})
	return n, nil
}

// List returns a snapshot of the current toasts in insertion order.
func (m *MemoryStore) List() ([]Toast, error) {
	if m == nil {
		return nil, &ScopeError{Op: "list"}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.open {
		return nil, &ScopeError{Op: "list"}
	}

	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out, nil
}

// Len returns the number of toasts currently held, or 0 outside the
// store's lifetime.
func (m *MemoryStore) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.toasts)
}

// Live reports whether the store is between creation and Close.
func (m *MemoryStore) Live() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.open
}

// Subscribe creates a new subscription and returns a channel for events.
//
// The returned channel has a buffer of 100 events. A consumer that falls
// that far behind receives an [EventResync] and must re-read the store
// with List. The channel
// is closed by [MemoryStore.Unsubscribe] or [MemoryStore.Close].
func (m *MemoryStore) Subscribe() (<-chan Event, error) {
	if m == nil {
		return nil, &ScopeError{Op: "subscribe"}
	}

	// held across the registration so Close cannot slip in between
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.open {
		return nil, &ScopeError{Op: "subscribe"}
	}

	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = false
	m.subMu.Unlock()

	return ch, nil
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times, with an unknown channel, or after Close.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	if m == nil {
		return
	}

	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// Close ends the store's lifetime.
//
// All subscriber channels are closed and every later operation returns a
// [*ScopeError]. Close is idempotent.
func (m *MemoryStore) Close() error {
	m.Shutdown()
	return nil
}

// Shutdown closes the store like [MemoryStore.Close] and returns how many
// toasts were discarded. It returns 0 if the store was already closed.
func (m *MemoryStore) Shutdown() int {
	if m == nil {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return 0
	}
	m.open = false
	n := len(m.toasts)
	m.toasts = nil
	clear(m.ids)

	m.subMu.Lock()
	for ch := range m.subscribers {
		delete(m.subscribers, ch)
		close(ch)
	}
	m.subMu.Unlock()

	return n
}

// publish fans an event out to all subscribers. Callers hold m.mu, so
// publish is the only sender and buffer lengths can only shrink under it.
func (m *MemoryStore) publish(ev Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for ch, stale := range m.subscribers {
		if len(ch) < cap(ch)-1 && trySend(ch, ev) {
			m.subscribers[ch] = false
			continue
		}
		if stale {
			// still behind, the pending resync covers this event
			continue
		}
		m.subscribers[ch] = trySend(ch, Event{Type: EventResync})
	}
}

func trySend(ch chan Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	default:
		return false
	}
}
