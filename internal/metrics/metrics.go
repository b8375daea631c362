// Package metrics exposes prometheus counters for the instance runtime and
// the expression cache. A nil *Collector is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modelcore"

// Dispatch tiers
const (
	TierNative     = "native"
	TierExpression = "expression"
	TierNone       = "none"
)

// Collector groups the runtime counters
type Collector struct {
	dispatch           *prometheus.CounterVec
	validationFailures prometheus.Counter
	parses             *prometheus.CounterVec
}

// New creates the counters and registers them on reg. A nil reg leaves them
// unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Constraint and operation bodies executed, by tier.",
		}, []string{"tier"}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Verification constraints that did not hold.",
		}),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_total",
			Help:      "Expression parse requests, by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{c.dispatch, c.validationFailures, c.parses} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Dispatch counts one body execution on the given tier
func (c *Collector) Dispatch(tier string) {
	if c == nil {
		return
	}
	c.dispatch.WithLabelValues(tier).Inc()
}

// ValidationFailures adds n failed verifications
func (c *Collector) ValidationFailures(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.validationFailures.Add(float64(n))
}

// Parse counts one parse request. It matches the cache observer signature.
func (c *Collector) Parse(result string) {
	if c == nil {
		return
	}
	c.parses.WithLabelValues(result).Inc()
}
