// Package metrics defines the Prometheus collectors for Toastboard.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "toastboard"

// Removal reasons used as the "reason" label on removed toasts.
const (
	ReasonDismissed = "dismissed"
	ReasonExpired   = "expired"
	ReasonCleared   = "cleared"
)

// Stream transports used as the "transport" label on connected clients.
const (
	TransportSSE = "sse"
	TransportWS  = "ws"
)

// Metrics holds the collectors registered for one board.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
type Metrics struct {
	added         *prometheus.CounterVec
	removed       *prometheus.CounterVec
	active        prometheus.Gauge
	streamClients *prometheus.GaugeVec
}

// New registers the toastboard collectors with reg.
//
// Collectors already registered by an earlier New on the same registry are
// reused, so boards sharing a registry share their series. Any other
// registration conflict is returned as an error.
func New(reg prometheus.Registerer) (*Metrics, error) {
	added, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "toasts_added_total",
		Help:      "Total number of toasts added, by kind",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}

	removed, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "toasts_removed_total",
		Help:      "Total number of toasts removed, by reason",
	}, []string{"reason"}))
	if err != nil {
		return nil, err
	}

	active, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "toasts_active",
		Help:      "Number of toasts currently in the store",
	}))
	if err != nil {
		return nil, err
	}

	streamClients, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_clients",
		Help:      "Number of connected live-update clients, by transport",
	}, []string{"transport"}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		added:         added,
		removed:       removed,
		active:        active,
		streamClients: streamClients,
	}, nil
}

// register adds c to reg, returning the collector already registered under
// the same descriptor when there is one.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("failed to register metrics: %w", err)
}

// ToastAdded records a new toast of the given kind. Neutral toasts are
// labelled "neutral".
func (m *Metrics) ToastAdded(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "neutral"
	}
	m.added.WithLabelValues(kind).Inc()
	m.active.Inc()
}

// ToastsRemoved records n toasts removed for reason.
func (m *Metrics) ToastsRemoved(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.removed.WithLabelValues(reason).Add(float64(n))
	m.active.Sub(float64(n))
}

// ToastsDiscarded records n toasts dropped without a removal, as when the
// store is closed with toasts still showing.
func (m *Metrics) ToastsDiscarded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.active.Sub(float64(n))
}

// StreamOpened records a connected live-update client.
func (m *Metrics) StreamOpened(transport string) {
	if m == nil {
		return
	}
	m.streamClients.WithLabelValues(transport).Inc()
}

// StreamClosed records a disconnected live-update client.
func (m *Metrics) StreamClosed(transport string) {
	if m == nil {
		return
	}
	m.streamClients.WithLabelValues(transport).Dec()
}
