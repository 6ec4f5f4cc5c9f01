// Package metrics — Prometheus-метрики приёма чанков.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codeRisshi25/flowai/internal/models"
)

const namespace = "flowai"

// Metrics реализует placement.Observer и учитывает отказы по видам ошибок.
type Metrics struct {
	placed     *prometheus.CounterVec
	bytes      prometheus.Counter
	rejections *prometheus.CounterVec
	duration   prometheus.Histogram
}

// New регистрирует коллекторы в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		placed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_placed_total",
			Help:      "Chunks moved to their final location.",
		}, []string{"policy"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_bytes_total",
			Help:      "Bytes of placed chunks.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_rejections_total",
			Help:      "Failed chunk submissions by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "placement_duration_seconds",
			Help:      "Time from request start to response for /upload-chunk.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	reg.MustRegister(m.placed, m.bytes, m.rejections, m.duration)
	return m
}

// ChunkPlaced учитывает успешное размещение.
func (m *Metrics) ChunkPlaced(_ context.Context, p models.Placement) error {
	m.placed.WithLabelValues(p.Policy).Inc()
	m.bytes.Add(float64(p.Size))
	return nil
}

// ObserveFailure учитывает отклонённую заявку.
func (m *Metrics) ObserveFailure(kind models.Kind) {
	m.rejections.WithLabelValues(kind.String()).Inc()
}

// ObserveDuration фиксирует длительность обработки запроса.
func (m *Metrics) ObserveDuration(d time.Duration) {
	m.duration.Observe(d.Seconds())
}
