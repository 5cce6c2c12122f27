// Package store provides the notification store and its pub/sub feed.
//
// This package is internal to Toastboard and owns the authoritative,
// in-memory list of toasts that are currently visible. The list is ordered
// by insertion and every toast is keyed by a generated id.
//
// The main components are:
//
//   - [Store]: Interface defining the mutating, read and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Toast]: A single notification record
//   - [ScopeError]: Returned when the store is used outside its lifetime
//
// A MemoryStore is live from [NewMemoryStore] until [MemoryStore.Close].
// Calling any operation outside that window returns a [*ScopeError] wrapping
// [ErrOutOfScope]. Removing an id that is not present is not an error.
//
// Users of the toastboard library should not need to interact with this
// package directly. The store is owned by the toastboard.Board.
package store
