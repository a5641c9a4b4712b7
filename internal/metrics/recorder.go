// Package metrics exposes build pass statistics as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/leapstack-labs/leapbundle/pkg/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leapbundle"

// Recorder counts passes per target and outcome and tracks their duration
// and output size.
type Recorder struct {
	reg *prom.Registry

	passes      *prom.CounterVec
	duration    *prom.HistogramVec
	buildErrors *prom.CounterVec
	warnings    *prom.CounterVec
	outputBytes *prom.GaugeVec
}

// NewRecorder registers the pass metrics on reg. A nil reg gets a fresh
// registry.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		reg: reg,
		passes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Build passes by target, execution mode and outcome",
		}, []string{"target", "mode", "outcome"}),
		duration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of build passes",
			Buckets:   prom.DefBuckets,
		}, []string{"target"}),
		buildErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors reported by build passes",
		}, []string{"target"}),
		warnings: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Warnings reported by build passes",
		}, []string{"target"}),
		outputBytes: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "output_bytes",
			Help:      "Total size of the artifacts written by the last pass",
		}, []string{"target"}),
	}
	reg.MustRegister(r.passes, r.duration, r.buildErrors, r.warnings, r.outputBytes)
	return r
}

// Observe is a core.ResultHandler recording one pass.
func (r *Recorder) Observe(target string, mode core.ExecMode, res *core.Result) {
	if r == nil || res == nil {
		return
	}
	r.passes.WithLabelValues(target, string(mode), string(res.Outcome)).Inc()
	r.buildErrors.WithLabelValues(target).Add(float64(len(res.Errors)))
	r.warnings.WithLabelValues(target).Add(float64(len(res.Warnings)))

	if res.Stats == nil {
		return
	}
	r.duration.WithLabelValues(target).Observe(res.Stats.Duration.Seconds())
	if res.Outcome == core.OutcomeSuccess {
		total := 0
		for _, out := range res.Stats.Outputs {
			total += out.Bytes
		}
		r.outputBytes.WithLabelValues(target).Set(float64(total))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
