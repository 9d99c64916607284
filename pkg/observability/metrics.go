package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the compilation collectors.
type Metrics struct {
	Compilations   *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	FabricationSec *prometheus.HistogramVec
	ProgramBytes   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Compilations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "femto_compilations_total",
				Help: "Total number of compilations by kind and result",
			},
			[]string{"kind", "result"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "femto_compile_duration_seconds",
				Help:    "Duration of compilations",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"kind"},
		),
		FabricationSec: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "femto_estimated_fabrication_seconds",
				Help:    "Estimated fabrication time of compiled programs",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"kind"},
		),
		ProgramBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "femto_saved_program_bytes",
				Help:    "Size of programs written to the store",
				Buckets: prometheus.ExponentialBuckets(256, 4, 10),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Compilations, m.Duration, m.FabricationSec, m.ProgramBytes)
	}
	return m
}

// Hooks returns lifecycle hooks that log every event and record metrics.
// A nil logger only records metrics.
func (m *Metrics) Hooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCompileStart: func(ctx context.Context, e *domain.CompileEvent) {
			if logger != nil {
				logger.DebugContext(ctx, "compile_start", "kind", e.Kind, "job_id", e.JobID, "name", e.Name, "objects", e.Objects)
			}
		},
		OnCompileEnd: func(ctx context.Context, e *domain.CompileEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.Compilations.WithLabelValues(e.Kind, result).Inc()
			m.Duration.WithLabelValues(e.Kind).Observe(e.Duration.Seconds())
			if e.Err != nil {
				if logger != nil {
					logger.WarnContext(ctx, "compile_failed", "kind", e.Kind, "name", e.Name, "error", e.Err)
				}
				return
			}
			m.FabricationSec.WithLabelValues(e.Kind).Observe(e.Stats.EstimatedTime)
			if logger != nil {
				logger.InfoContext(ctx, "compile_end",
					"kind", e.Kind,
					"name", e.Name,
					"duration", e.Duration,
					"instructions", e.Stats.Instructions,
					"estimated_time", e.Stats.EstimatedTime,
				)
			}
		},
		OnProgramSaved: func(ctx context.Context, e *domain.ProgramEvent) {
			m.ProgramBytes.Observe(float64(e.Bytes))
			if logger != nil {
				logger.InfoContext(ctx, "program_saved", "program_id", e.ProgramID, "bytes", e.Bytes)
			}
		},
	}
}
