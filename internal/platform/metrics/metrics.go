package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	RecordsCreated       prometheus.Counter
	MethodChanges        *prometheus.CounterVec
	VerificationAttempts *prometheus.CounterVec
	DNSLookupDuration    prometheus.Histogram
	VerificationDuration prometheus.Histogram
	DevBypassActivations prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		RecordsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proovd_verification_records_created_total",
			Help: "Total number of verification records initialized",
		}),
		MethodChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proovd_verification_method_changes_total",
			Help: "Total number of verification method changes by target method",
		}, []string{"method"}),
		VerificationAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proovd_verification_attempts_total",
			Help: "Total number of verification attempts by outcome",
		}, []string{"outcome"}),
		DNSLookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "proovd_dns_lookup_duration_seconds",
			Help:    "Duration of TXT record lookups",
			Buckets: prometheus.DefBuckets,
		}),
		VerificationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "proovd_verification_duration_seconds",
			Help:    "End to end duration of verify calls including retry delays",
			Buckets: []float64{.1, .5, 1, 2, 4, 6, 8, 10, 15},
		}),
		DevBypassActivations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proovd_verification_dev_bypass_total",
			Help: "Times the non-production verification bypass fired",
		}),
	}
}

// IncrementRecordsCreated increments the records created counter by 1
func (m *Metrics) IncrementRecordsCreated() {
	if m == nil {
		return
	}
	m.RecordsCreated.Inc()
}

// IncrementMethodChange counts a method change toward the given method.
func (m *Metrics) IncrementMethodChange(method string) {
	if m == nil {
		return
	}
	m.MethodChanges.WithLabelValues(method).Inc()
}

// IncrementAttempt counts a verification attempt with outcome "verified" or "failed".
func (m *Metrics) IncrementAttempt(outcome string) {
	if m == nil {
		return
	}
	m.VerificationAttempts.WithLabelValues(outcome).Inc()
}

// ObserveDNSLookup records one TXT lookup duration.
func (m *Metrics) ObserveDNSLookup(d time.Duration) {
	if m == nil {
		return
	}
	m.DNSLookupDuration.Observe(d.Seconds())
}

// ObserveVerification records one full verify call duration.
func (m *Metrics) ObserveVerification(d time.Duration) {
	if m == nil {
		return
	}
	m.VerificationDuration.Observe(d.Seconds())
}

// IncrementDevBypass counts a development bypass activation.
func (m *Metrics) IncrementDevBypass() {
	if m == nil {
		return
	}
	m.DevBypassActivations.Inc()
}
