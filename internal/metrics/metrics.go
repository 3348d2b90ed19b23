package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes reported to a Recorder.
const (
	OutcomeOK         = "ok"
	OutcomeNotFound   = "not_found"
	OutcomeReadError  = "read_error"
	OutcomeParseError = "parse_error"
)

// Recorder receives configuration load observations.
type Recorder interface {
	ObserveLoad(outcome string, duration time.Duration)
}

// Nop discards all observations.
type Nop struct{}

// ObserveLoad implements Recorder.
func (Nop) ObserveLoad(string, time.Duration) {}

// Prometheus records load observations as Prometheus metrics.
type Prometheus struct {
	loads    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewPrometheus creates the load metrics and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carry_config",
			Name:      "loads_total",
			Help:      "Configuration asset loads by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "carry_config",
			Name:      "load_duration_seconds",
			Help:      "Time spent reading and decoding the configuration asset.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
	}

	for _, c := range []prometheus.Collector{p.loads, p.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	// Expose every outcome at zero before its first observation.
	for _, outcome := range []string{OutcomeOK, OutcomeNotFound, OutcomeReadError, OutcomeParseError} {
		p.loads.WithLabelValues(outcome)
	}

	return p, nil
}

// ObserveLoad implements Recorder.
func (p *Prometheus) ObserveLoad(outcome string, duration time.Duration) {
	p.loads.WithLabelValues(outcome).Inc()
	p.duration.Observe(duration.Seconds())
}
