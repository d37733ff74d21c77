package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and quiz Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchcore",
			Name:      "searches_total",
			Help:      "Total number of property searches",
		},
		[]string{"operation"}, // RENT / SALE / any
	)

	FacetComputationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchcore",
			Name:      "facet_computations_total",
			Help:      "Total number of facet aggregations that hit the store",
		},
	)

	QuizCompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchcore",
			Name:      "quiz_completions_total",
			Help:      "Total number of quiz sessions that reached the final step",
		},
	)

	DroppedCriteriaFieldsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchcore",
			Name:      "dropped_criteria_fields_total",
			Help:      "Total number of unparseable filter fields dropped from requests",
		},
		[]string{"field"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(FacetComputationsTotal)
	prometheus.MustRegister(QuizCompletionsTotal)
	prometheus.MustRegister(DroppedCriteriaFieldsTotal)
	searchMetricsRegistered = true
}
