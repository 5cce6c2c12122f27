package metrics

import "github.com/jpalmerr/toastboard/internal/store"

// instrumented wraps a store.Store and records successful mutations.
type instrumented struct {
	store.Store
	m      *Metrics
	reason string
}

// Instrument returns a store.Store that records adds, removals and clears on
// m. Removals through the returned store are labelled with reason; clears are
// always labelled [ReasonCleared]. Reads and subscriptions pass through.
func Instrument(s store.Store, m *Metrics, reason string) store.Store {
	if m == nil {
		return s
	}
	return &instrumented{Store: s, m: m, reason: reason}
}

func (i *instrumented) Add(in store.Input) (store.Toast, error) {
	t, err := i.Store.Add(in)
	if err == nil {
		i.m.ToastAdded(string(t.Kind))
	}
	return t, err
}

func (i *instrumented) Remove(id string) (bool, error) {
	removed, err := i.Store.Remove(id)
	if removed {
		i.m.ToastsRemoved(i.reason, 1)
	}
	return removed, err
}

func (i *instrumented) Clear() (int, error) {
	n, err := i.Store.Clear()
	if err == nil {
		i.m.ToastsRemoved(ReasonCleared, n)
	}
	return n, err
}
