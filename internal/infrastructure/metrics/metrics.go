package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lunchpicker"

// Pick outcomes.
const (
	PickClosed     = "closed"
	PickIdempotent = "idempotent"
	PickStale      = "stale"
	PickForbidden  = "forbidden"
	PickEmpty      = "empty"
)

// Choice rejection reasons.
const (
	RejectDuplicate = "duplicate"
	RejectClosed    = "closed"
	RejectBlank     = "blank"
)

var (
	sessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Count of sessions opened.",
		},
	)
	choicesSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "choices_submitted_total",
			Help:      "Count of choices accepted.",
		},
	)
	choiceRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "choice_rejections_total",
			Help:      "Count of rejected choice submissions by reason.",
		},
		[]string{"reason"},
	)
	picks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "picks_total",
			Help:      "Count of pick attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

var (
	registry        = prometheus.NewRegistry()
	registerMetrics sync.Once
)

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		registry.MustRegister(sessionsCreated)
		registry.MustRegister(choicesSubmitted)
		registry.MustRegister(choiceRejections)
		registry.MustRegister(picks)
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func RecordSessionCreated() {
	sessionsCreated.Inc()
}

func RecordChoiceSubmitted() {
	choicesSubmitted.Inc()
}

func RecordChoiceRejected(reason string) {
	choiceRejections.WithLabelValues(reason).Inc()
}

func RecordPick(outcome string) {
	picks.WithLabelValues(outcome).Inc()
}
