package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leapstack-labs/leapbundle/pkg/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prom.Registry) map[string]float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[mf.GetName()] += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestRecorder_Observe(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)

	r.Observe("vendor", core.ExecWatch, &core.Result{
		Outcome: core.OutcomeSuccess,
		Stats: &core.Stats{
			Duration: 120 * time.Millisecond,
			Outputs:  []core.Output{{Bytes: 1000}, {Bytes: 24}},
		},
	})
	r.Observe("vendor", core.ExecWatch, &core.Result{
		Outcome:  core.OutcomeBuildErrors,
		Errors:   []string{"a", "b"},
		Warnings: []string{"w"},
		Stats:    &core.Stats{Duration: 10 * time.Millisecond},
	})
	r.Observe("vendor", core.ExecWatch, core.NewCompileErrorResult(assert.AnError, core.StatsNormal))
	r.Observe("vendor", core.ExecWatch, nil)

	got := gather(t, reg)
	assert.Equal(t, 3.0, got["leapbundle_passes_total"])
	assert.Equal(t, 3.0, got["leapbundle_errors_total"])
	assert.Equal(t, 1.0, got["leapbundle_warnings_total"])
	assert.Equal(t, 2.0, got["leapbundle_pass_duration_seconds"])
	assert.Equal(t, 1024.0, got["leapbundle_output_bytes"], "failed passes keep the last good size")
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Observe("together", core.ExecOnce, &core.Result{Outcome: core.OutcomeSuccess})
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder(nil)
	r.Observe("together", core.ExecOnce, &core.Result{Outcome: core.OutcomeSuccess})

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `leapbundle_passes_total{mode="once",outcome="success",target="together"} 1`)
}
