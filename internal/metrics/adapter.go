package metrics

import "github.com/prometheus/client_golang/prometheus"

// Vector store adapter Prometheus metrics. Labeled by operation name only;
// collection names are unbounded and would blow up cardinality.
var (
	AdapterOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "veckey",
			Name:      "adapter_operations_total",
			Help:      "Total number of vector store operations",
		},
		[]string{"operation", "status"},
	)

	AdapterOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "veckey",
			Name:      "adapter_operation_duration_seconds",
			Help:      "Vector store operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

var adapterMetricsRegistered bool

// RegisterAdapterMetrics registers Prometheus adapter metrics. Must be called once from main.
func RegisterAdapterMetrics() {
	if adapterMetricsRegistered {
		return
	}
	prometheus.MustRegister(AdapterOperationsTotal)
	prometheus.MustRegister(AdapterOperationDuration)
	adapterMetricsRegistered = true
}

// ObserveAdapterOp records one completed operation.
func ObserveAdapterOp(operation string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	AdapterOperationsTotal.WithLabelValues(operation, status).Inc()
	AdapterOperationDuration.WithLabelValues(operation).Observe(seconds)
}
