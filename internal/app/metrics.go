package app

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wangpengwen/payid/internal/domain"
)

const (
	anyEnvironmentLabel = "any"
	noEnvironmentLabel  = "none"
	unknownNetworkLabel = "unknown"
)

// Metrics holds the resolver's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	lookups        *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	addresses      *prometheus.GaugeVec
}

// NewMetrics creates and registers the resolver metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "payid",
				Subsystem: "lookup",
				Name:      "requests_total",
				Help:      "PayID lookups by requested payment network, environment and outcome",
			},
			[]string{"payment_network", "environment", "found"},
		),
		lookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "payid",
				Subsystem: "lookup",
				Name:      "duration_seconds",
				Help:      "PayID lookup duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"found"},
		),
		addresses: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "payid",
				Subsystem: "store",
				Name:      "addresses",
				Help:      "Stored addresses by payment network and environment",
			},
			[]string{"payment_network", "environment"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.lookups,
		m.lookupDuration,
		m.addresses,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveLookup counts one lookup. An empty environment means the client
// accepted any environment.
func (m *Metrics) ObserveLookup(network, environment string, found bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	if network == "" {
		network = unknownNetworkLabel
	}
	if environment == "" {
		environment = anyEnvironmentLabel
	}
	outcome := strconv.FormatBool(found)
	m.lookups.WithLabelValues(network, environment, outcome).Inc()
	m.lookupDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// SetAddressCounts replaces the address gauges with a fresh snapshot.
func (m *Metrics) SetAddressCounts(counts []domain.AddressCount) {
	if m == nil {
		return
	}
	m.addresses.Reset()
	for _, c := range counts {
		environment := c.Environment
		if environment == "" {
			environment = noEnvironmentLabel
		}
		m.addresses.WithLabelValues(c.PaymentNetwork, environment).Set(float64(c.Count))
	}
}
