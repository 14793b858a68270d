package mdarray

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metered wraps a policy and exports its allocation traffic as Prometheus
// metrics:
//
//	mdarray_policy_allocations_total
//	mdarray_policy_allocation_failures_total
//	mdarray_policy_live_elements
//
// each labelled with the policy name given to NewMetered.
type Metered[T any, P ContainerPolicy[T]] struct {
	Inner P

	allocations prometheus.Counter
	failures    prometheus.Counter
	live        prometheus.Gauge
}

// NewMetered registers the metrics of a wrapped policy with reg. A nil reg
// leaves the metrics unregistered.
func NewMetered[T any, P ContainerPolicy[T]](inner P, reg prometheus.Registerer, name string) (*Metered[T, P], error) {
	labels := prometheus.Labels{"policy": name}
	m := &Metered[T, P]{
		Inner: inner,
		allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "mdarray",
			Subsystem:   "policy",
			Name:        "allocations_total",
			Help:        "Number of buffers created.",
			ConstLabels: labels,
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "mdarray",
			Subsystem:   "policy",
			Name:        "allocation_failures_total",
			Help:        "Number of buffer creations that failed.",
			ConstLabels: labels,
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "mdarray",
			Subsystem:   "policy",
			Name:        "live_elements",
			Help:        "Elements in buffers created and not yet released.",
			ConstLabels: labels,
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.allocations, m.failures, m.live} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("registering %s policy metrics: %w", name, err)
			}
		}
	}
	return m, nil
}

func (m *Metered[T, P]) Create(n int) ([]T, error) {
	buf, err := m.Inner.Create(n)
	if err != nil {
		m.failures.Inc()
		return nil, err
	}
	m.allocations.Inc()
	m.live.Add(float64(len(buf)))
	return buf, nil
}

func (m *Metered[T, P]) Access(p []T, i int) *T { return m.Inner.Access(p, i) }

func (m *Metered[T, P]) Data(buf []T) []T { return m.Inner.Data(buf) }

func (m *Metered[T, P]) Offset(p []T, delta int) []T { return m.Inner.Offset(p, delta) }

// Release lowers the live element gauge and passes buf on to the wrapped
// policy if it wants it.
func (m *Metered[T, P]) Release(buf []T) {
	m.live.Sub(float64(len(buf)))
	if r, ok := any(m.Inner).(Releaser[T]); ok {
		r.Release(buf)
	}
}
