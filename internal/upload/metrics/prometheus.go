package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mediaup/internal/upload/blob"
	"mediaup/internal/upload/domain"
	"mediaup/internal/upload/pipeline"
)

const defaultNamespace = "mediaup"

// PrometheusObserver exports pipeline and storage metrics.
type PrometheusObserver struct {
	stageDuration *prometheus.HistogramVec
	items         *prometheus.CounterVec
	uploadedBytes prometheus.Counter
	putsInFlight  prometheus.Gauge
}

var (
	_ pipeline.Observer = (*PrometheusObserver)(nil)
	_ blob.Observer     = (*PrometheusObserver)(nil)
)

// NewPrometheusObserver registers the collectors on reg, reusing collectors
// that are already registered under the same name.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Latency of item pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "result"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Items that reached a terminal state, by result and failing stage.",
		}, []string{"result", "stage"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes accepted by blob storage.",
		}),
		putsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "puts_in_flight",
			Help:      "Blob PUT requests currently in flight.",
		}),
	}

	if err := register(reg, &o.stageDuration); err != nil {
		return nil, err
	}
	if err := register(reg, &o.items); err != nil {
		return nil, err
	}
	if err := register(reg, &o.uploadedBytes); err != nil {
		return nil, err
	}
	if err := register(reg, &o.putsInFlight); err != nil {
		return nil, err
	}
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				*c = existing
				return nil
			}
		}
		return fmt.Errorf("register upload metric: %w", err)
	}
	return nil
}

func (o *PrometheusObserver) StageFinished(stage domain.Stage, duration time.Duration, err error) {
	if o == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	o.stageDuration.WithLabelValues(string(stage), result).Observe(duration.Seconds())
}

func (o *PrometheusObserver) ItemFinished(_ pipeline.Request, _ domain.Item, outcome domain.ItemOutcome) {
	if o == nil {
		return
	}
	o.items.WithLabelValues(string(outcome.Status), string(outcome.Stage)).Inc()
}

func (o *PrometheusObserver) PutStarted() {
	if o == nil {
		return
	}
	o.putsInFlight.Inc()
}

func (o *PrometheusObserver) PutFinished(size int, _ time.Duration, err error) {
	if o == nil {
		return
	}
	o.putsInFlight.Dec()
	if err == nil {
		o.uploadedBytes.Add(float64(size))
	}
}
