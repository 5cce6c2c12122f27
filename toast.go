package toastboard

import (
	"time"

	"github.com/jpalmerr/toastboard/internal/store"
)

// Kind is the presentation tag of a toast.
//
// Kind is one of [KindSuccess], [KindError] or [KindInfo]. The zero value,
// [KindNeutral], leaves presentation to the renderer's default.
type Kind string

const (
	// KindNeutral is the default presentation.
	KindNeutral Kind = ""

	// KindSuccess marks a completed action.
	KindSuccess Kind = "success"

	// KindError marks a failure the user should notice.
	KindError Kind = "error"

	// KindInfo marks an informational message.
	KindInfo Kind = "info"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return store.Kind(k).Valid()
}

// Input describes a toast to show. It is a [Toast] without the id, which
// the board generates.
type Input struct {
	// Kind is optional.
	Kind Kind

	// Title is required and must not be blank.
	Title string

	// Description is optional longer text.
	Description string
}

// Toast is a notification currently held by a [Board].
//
// Toasts are values; changing a returned Toast does not affect the board.
type Toast struct {
	// ID uniquely identifies the toast for its whole lifetime.
	ID string

	Kind        Kind
	Title       string
	Description string

	// CreatedAt is when the board accepted the toast.
	CreatedAt time.Time
}

// EventType describes a change to the board's toasts.
type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
	EventCleared EventType = "cleared"

	// EventResync is delivered when callbacks fell far enough behind that
	// events were dropped. Call [Board.Toasts] for the current state.
	EventResync EventType = "resync"
)

// Event is passed to callbacks registered with [WithToastCallback].
//
// Toast is the zero value for [EventCleared] and [EventResync].
type Event struct {
	Type  EventType
	Toast Toast
}

var (
	// ErrOutOfScope is wrapped by every error returned from a [Board] that
	// is nil, was not created by [New], or has been closed. It indicates a
	// wiring defect in the calling program. Match it with errors.Is.
	ErrOutOfScope = store.ErrOutOfScope

	// ErrTitleRequired is returned by [Board.Notify] for a blank title.
	ErrTitleRequired = store.ErrTitleRequired

	// ErrInvalidKind is returned by [Board.Notify] for an unknown kind.
	ErrInvalidKind = store.ErrInvalidKind
)

// ScopeError is the concrete error behind [ErrOutOfScope]. Its Op field
// names the operation that was attempted.
type ScopeError = store.ScopeError

func toStoreInput(in Input) store.Input {
	return store.Input{
		Kind:        store.Kind(in.Kind),
		Title:       in.Title,
		Description: in.Description,
	}
}

func toPublicToast(t store.Toast) Toast {
	return Toast{
		ID:          t.ID,
		Kind:        Kind(t.Kind),
		Title:       t.Title,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

func toPublicEvent(ev store.Event) Event {
	return Event{
		Type:  EventType(ev.Type),
		Toast: toPublicToast(ev.Toast),
	}
}
