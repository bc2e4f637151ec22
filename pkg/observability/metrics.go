package observability

import (
	"errors"
	"time"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records wizard activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	intents     *prometheus.CounterVec
	cleared     prometheus.Counter
	stepViews   *prometheus.CounterVec
	submissions *prometheus.CounterVec
	enrichment  *prometheus.HistogramVec
	cacheLookup *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quoteflow_intents_total",
				Help: "Wizard intents handled, by intent and whether state changed",
			},
			[]string{"intent", "changed"},
		),
		cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quoteflow_cascade_cleared_steps_total",
			Help: "Downstream steps cleared after a single-select change",
		}),
		stepViews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quoteflow_step_views_total",
				Help: "Times a step became the active step",
			},
			[]string{"step_id"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quoteflow_submissions_total",
				Help: "Order submissions by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		enrichment: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "quoteflow_enrichment_duration_seconds",
				Help: "Duration of enrichment fetches",
			},
			[]string{"channel"},
		),
		cacheLookup: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quoteflow_enrichment_cache_lookups_total",
				Help: "Enrichment cache lookups by result",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.intents, m.cleared, m.stepViews, m.submissions, m.enrichment, m.cacheLookup)
	return m
}

// Intent records one handled intent and the steps its cascade cleared.
func (m *Metrics) Intent(name string, changed bool, cleared int) {
	if m == nil {
		return
	}
	label := "false"
	if changed {
		label = "true"
	}
	m.intents.WithLabelValues(name, label).Inc()
	if cleared > 0 {
		m.cleared.Add(float64(cleared))
	}
}

// StepViewed records the active step after navigation.
func (m *Metrics) StepViewed(stepID string) {
	if m == nil || stepID == "" {
		return
	}
	m.stepViews.WithLabelValues(stepID).Inc()
}

// Submission records a submit attempt outcome.
func (m *Metrics) Submission(channel string, err error) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(channel, Outcome(err)).Inc()
}

// Enrichment records how long a fetch for channel took.
func (m *Metrics) Enrichment(channel string, since time.Time) {
	if m == nil {
		return
	}
	m.enrichment.WithLabelValues(channel).Observe(time.Since(since).Seconds())
}

// CacheLookup records hits and misses of the enrichment cache.
func (m *Metrics) CacheLookup(hits, misses int) {
	if m == nil {
		return
	}
	m.cacheLookup.WithLabelValues("hit").Add(float64(hits))
	m.cacheLookup.WithLabelValues("miss").Add(float64(misses))
}

// Outcome classifies a submit error into a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrFormInvalid):
		return "invalid_form"
	case errors.Is(err, domain.ErrNoLineItems):
		return "no_line_items"
	default:
		return "error"
	}
}
