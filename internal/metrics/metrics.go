// Package metrics exposes Prometheus collectors for pipeline runs, OCR
// engines and model requests. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "harmony"

// Outcome labels.
const (
	OK    = "ok"
	Error = "error"
)

type Metrics struct {
	registry   *prometheus.Registry
	runs       *prometheus.CounterVec
	engineRuns *prometheus.CounterVec
	llmCalls   *prometheus.CounterVec
	stages     *prometheus.HistogramVec
}

// New builds a dedicated registry with the Go and process collectors plus
// the pipeline collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by source type and outcome",
		}, []string{"source", "outcome"}),
		engineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ocr",
			Name:      "engine_runs_total",
			Help:      "OCR engine invocations by engine and status",
		}, []string{"engine", "status"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Chat completion requests by model and status",
		}, []string{"model", "status"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs, m.engineRuns, m.llmCalls, m.stages,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) PipelineRun(source string, err error) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(source, outcome(err)).Inc()
}

func (m *Metrics) EngineRun(engine string, err error) {
	if m == nil {
		return
	}
	m.engineRuns.WithLabelValues(engine, outcome(err)).Inc()
}

func (m *Metrics) LLMRequest(model string, err error) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(model, outcome(err)).Inc()
}

// Stage records the time elapsed since start under the named stage.
func (m *Metrics) Stage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	if err != nil {
		return Error
	}
	return OK
}
