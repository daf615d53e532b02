// Package metrics exposes Prometheus collectors for verifications.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hyperjump/ragcheck/internal/verify"
)

// Outcome labels for ragcheck_verifications_total.
const (
	OutcomePassed  = "passed"
	OutcomeFlagged = "flagged"
	OutcomeError   = "error"
)

// Dimension labels for score and issue metrics.
const (
	DimensionAccuracy           = "accuracy"
	DimensionConsistency        = "consistency"
	DimensionRelevance          = "relevance"
	DimensionSemanticSimilarity = "semantic_similarity"
)

var issueDimensions = map[string]string{
	verify.IssueLowAccuracy:           DimensionAccuracy,
	verify.IssueLowConsistency:        DimensionConsistency,
	verify.IssueLowRelevance:          DimensionRelevance,
	verify.IssueLowSemanticSimilarity: DimensionSemanticSimilarity,
}

// Metrics holds the verification collectors. It implements verify.Recorder.
type Metrics struct {
	Verifications *prometheus.CounterVec
	Issues        *prometheus.CounterVec
	Scores        *prometheus.HistogramVec
	Confidence    prometheus.Histogram
	Latency       prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg registers with
// the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	scoreBuckets := prometheus.LinearBuckets(0.1, 0.1, 10)

	return &Metrics{
		Verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragcheck_verifications_total",
				Help: "Verifications by outcome (passed, flagged, error)",
			},
			[]string{"outcome"},
		),
		Issues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragcheck_issues_total",
				Help: "Issues reported, by score dimension",
			},
			[]string{"dimension"},
		),
		Scores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragcheck_score",
				Help:    "Distribution of verification scores, by dimension",
				Buckets: scoreBuckets,
			},
			[]string{"dimension"},
		),
		Confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ragcheck_confidence",
			Help:    "Distribution of verification confidence",
			Buckets: scoreBuckets,
		}),
		Latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ragcheck_verification_duration_seconds",
			Help:    "Verification latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
}

// ObserveVerification records one finished verification.
func (m *Metrics) ObserveVerification(res verify.Result, elapsed time.Duration, err error) {
	m.Latency.Observe(elapsed.Seconds())
	if err != nil {
		m.Verifications.WithLabelValues(OutcomeError).Inc()
		return
	}

	outcome := OutcomePassed
	if len(res.Issues) > 0 {
		outcome = OutcomeFlagged
	}
	m.Verifications.WithLabelValues(outcome).Inc()

	m.Scores.WithLabelValues(DimensionAccuracy).Observe(res.Accuracy)
	m.Scores.WithLabelValues(DimensionConsistency).Observe(res.Consistency)
	m.Scores.WithLabelValues(DimensionRelevance).Observe(res.Relevance)
	m.Scores.WithLabelValues(DimensionSemanticSimilarity).Observe(res.SemanticSimilarity)
	m.Confidence.Observe(res.Confidence)

	for _, issue := range res.Issues {
		if dim, ok := issueDimensions[issue]; ok {
			m.Issues.WithLabelValues(dim).Inc()
		}
	}
}

var _ verify.Recorder = (*Metrics)(nil)
