package store

import "time"

// Kind is the presentation tag of a toast.
//
// The zero value means neutral presentation; the renderer decides how that
// looks.
type Kind string

const (
	KindNeutral Kind = ""
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Valid reports whether k is one of the known kinds, including neutral.
func (k Kind) Valid() bool {
	switch k {
	case KindNeutral, KindSuccess, KindError, KindInfo:
		return true
	}
	return false
}

// Input is a toast without its id. It is what producers hand to [Store.Add].
type Input struct {
	Kind        Kind   `json:"kind,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Toast is a notification record held by the store.
//
// Toasts are never mutated in place. A toast exists from the Add that
// created it until the Remove (or Clear) that deletes it.
type Toast struct {
	// ID is generated by the store and is the only lookup key.
	ID string `json:"id"`

	Kind        Kind   `json:"kind,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// CreatedAt is when the store accepted the toast.
	CreatedAt time.Time `json:"created_at"`
}

// EventType describes a change to the store's contents.
type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
	EventCleared EventType = "cleared"

	// EventResync tells a subscriber that it fell behind and events were
	// dropped. The subscriber must rebuild its view from List; events
	// delivered after the resync may already be reflected there.
	EventResync EventType = "resync"
)

// Event is published to subscribers after every state change.
//
// For [EventCleared] and [EventResync] the Toast field is the zero value.
type Event struct {
	Type  EventType `json:"type"`
	Toast Toast     `json:"toast"`
}

// IDFunc produces a new unique toast id.
type IDFunc func() string

// Store defines the notification store operations.
//
// Store implementations must be safe for concurrent access. Every operation
// returns a [*ScopeError] when called outside the store's lifetime.
type Store interface {
	// Add appends a new toast built from in and returns it.
	Add(in Input) (Toast, error)

	// Remove deletes the toast with the given id. It reports whether a toast
	// was removed; an unknown id is a no-op, not an error.
	Remove(id string) (bool, error)

	// Clear removes every toast and returns how many were removed.
	Clear() (int, error)

	// List returns the current toasts in insertion order.
	// The returned slice is a copy; modifications do not affect the store.
	List() ([]Toast, error)

	// Subscribe returns a channel that receives store events.
	// The returned channel has a buffer; slow consumers may miss events.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() (<-chan Event, error)

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}
