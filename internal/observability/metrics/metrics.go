package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the chat pipeline counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	extractions *prometheus.CounterVec
	uploads     *prometheus.CounterVec
	deletes     *prometheus.CounterVec
	generations *prometheus.CounterVec
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": service}

	extractions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "coursechat",
			Subsystem:   "chat",
			Name:        "material_extractions_total",
			Help:        "Material text extractions by outcome status.",
			ConstLabels: labels,
		},
		[]string{"status"},
	)
	uploads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "coursechat",
			Subsystem:   "chat",
			Name:        "ephemeral_uploads_total",
			Help:        "Uploads to the generative AI file store by outcome.",
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)
	deletes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "coursechat",
			Subsystem:   "chat",
			Name:        "ephemeral_deletes_total",
			Help:        "Deletions from the generative AI file store by outcome.",
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)
	generations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "coursechat",
			Subsystem:   "chat",
			Name:        "generations_total",
			Help:        "Generation calls by outcome.",
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)

	registry.MustRegister(extractions, uploads, deletes, generations)

	return &Metrics{
		registry:    registry,
		extractions: extractions,
		uploads:     uploads,
		deletes:     deletes,
		generations: generations,
	}
}

func (m *Metrics) ObserveExtraction(status string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveUpload(err error) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) ObserveDelete(err error) {
	if m == nil {
		return
	}
	m.deletes.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) ObserveGeneration(err error) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
