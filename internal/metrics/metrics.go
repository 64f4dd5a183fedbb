// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder counts facade operations by outcome.
type Recorder interface {
	Operation(operation, outcome string)
}

// PrometheusRecorder implements Recorder with a Prometheus counter vector.
type PrometheusRecorder struct {
	operations *prometheus.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them with reg.
func NewPrometheusRecorder(namespace string, reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of ledger operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
	if reg != nil {
		if err := reg.Register(r.operations); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Operation increments the counter for operation/outcome.
func (r *PrometheusRecorder) Operation(operation, outcome string) {
	r.operations.WithLabelValues(operation, outcome).Inc()
}

// Nop discards every observation.
type Nop struct{}

func (Nop) Operation(string, string) {}
