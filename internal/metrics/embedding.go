package metrics

import "github.com/prometheus/client_golang/prometheus"

// EmbeddingSet holds embedding provider collectors. A nil *EmbeddingSet records nothing.
type EmbeddingSet struct {
	Requests        *prometheus.CounterVec   // provider, model, status
	Latency         *prometheus.HistogramVec // provider, model
	Tokens          *prometheus.CounterVec   // provider, model, type
	Errors          *prometheus.CounterVec   // provider, model, error_type
	BudgetRemaining *prometheus.GaugeVec     // provider, period
}

func newEmbeddingSet() *EmbeddingSet {
	return &EmbeddingSet{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		}, []string{"provider", "model", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "model"}),
		Tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		}, []string{"provider", "model", "type"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		}, []string{"provider", "model", "error_type"}),
		BudgetRemaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "embedding_budget_tokens_remaining",
			Help:      "Tokens left in the embedding budget (-1 means unlimited)",
		}, []string{"provider", "period"}),
	}
}

// ObserveRequest records a finished embedding request.
func (e *EmbeddingSet) ObserveRequest(provider, model string, seconds float64, promptTokens, totalTokens int) {
	if e == nil {
		return
	}
	e.Requests.WithLabelValues(provider, model, "success").Inc()
	e.Latency.WithLabelValues(provider, model).Observe(seconds)
	e.Tokens.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	e.Tokens.WithLabelValues(provider, model, "total").Add(float64(totalTokens))
}

// ObserveError records a failed embedding request.
func (e *EmbeddingSet) ObserveError(provider, model, errorType string, seconds float64) {
	if e == nil {
		return
	}
	e.Requests.WithLabelValues(provider, model, "error").Inc()
	e.Latency.WithLabelValues(provider, model).Observe(seconds)
	e.Errors.WithLabelValues(provider, model, errorType).Inc()
}

// SetBudgetRemaining publishes the remaining daily and monthly token budget.
func (e *EmbeddingSet) SetBudgetRemaining(provider string, daily, monthly int64) {
	if e == nil {
		return
	}
	e.BudgetRemaining.WithLabelValues(provider, "daily").Set(float64(daily))
	e.BudgetRemaining.WithLabelValues(provider, "monthly").Set(float64(monthly))
}
