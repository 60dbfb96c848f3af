package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// IntentCreateTotal counts payment intent minting outcomes on the server.
	IntentCreateTotal *prometheus.CounterVec
	// IntentStepLatency records per-step latency for the processor calls in milliseconds.
	IntentStepLatency *prometheus.HistogramVec
	// PresentationOutcomeTotal counts terminal presentation outcomes by method.
	PresentationOutcomeTotal *prometheus.CounterVec
	// SessionGuardRejections counts createIntent calls rejected by the session guard.
	SessionGuardRejections prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		IntentCreateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_create_total",
			Help:      "Count of payment intent creation outcomes.",
		}, []string{"result"})
		IntentStepLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "intent_step_duration_ms",
			Help:      "Latency of individual processor calls during intent creation in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"step"})
		PresentationOutcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presentation_outcome_total",
			Help:      "Count of terminal presentation outcomes by method.",
		}, []string{"method", "outcome"})
		SessionGuardRejections = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_guard_rejections_total",
			Help:      "Number of intent requests rejected because the session already had one outstanding.",
		})

		mustRegisterCollector(reg, IntentCreateTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				IntentCreateTotal = v
			}
		})
		mustRegisterCollector(reg, IntentStepLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				IntentStepLatency = v
			}
		})
		mustRegisterCollector(reg, PresentationOutcomeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PresentationOutcomeTotal = v
			}
		})
		mustRegisterCollector(reg, SessionGuardRejections, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SessionGuardRejections = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
