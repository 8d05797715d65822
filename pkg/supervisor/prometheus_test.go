package supervisor

import (
	"errors"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherFamily(t *testing.T, pmc *PrometheusMetricsCollector, name string) *dto.MetricFamily {
	t.Helper()
	families, err := pmc.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestPrometheusMetricsCollector(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("whodb_desktop")

	pmc.LaunchDuration(120*time.Millisecond, nil)
	pmc.LaunchDuration(30*time.Millisecond, errors.New("boom"))
	pmc.ReadinessProbe(2*time.Second, nil)
	pmc.StopDuration(10 * time.Millisecond)
	pmc.BackendUp(true)

	launch := gatherFamily(t, pmc, "whodb_desktop_backend_launch_duration_seconds")
	require.NotNil(t, launch)
	// One series per result label.
	assert.Len(t, launch.GetMetric(), 2)

	up := gatherFamily(t, pmc, "whodb_desktop_backend_up")
	require.NotNil(t, up)
	assert.Equal(t, float64(1), up.GetMetric()[0].GetGauge().GetValue())

	pmc.BackendUp(false)
	up = gatherFamily(t, pmc, "whodb_desktop_backend_up")
	assert.Equal(t, float64(0), up.GetMetric()[0].GetGauge().GetValue())
}

func TestPrometheusMetricsCollector_DefaultNamespace(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("")
	pmc.BackendUp(true)

	up := gatherFamily(t, pmc, "supervisor_backend_up")
	require.NotNil(t, up)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "success", resultLabel(nil))
	assert.Equal(t, "error", resultLabel(errors.New("x")))
}
