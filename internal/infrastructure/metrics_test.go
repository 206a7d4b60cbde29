package infrastructure

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue returns the api_requests_total sample for resource and code.
func counterValue(t *testing.T, reg *prometheus.Registry, resource, code string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "openproject_mcp_api_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["resource"] == resource && labels["code"] == code {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestClientMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewClientMetrics(reg)

	metrics.observe(http.MethodGet, "work_packages", 200, 20*time.Millisecond)
	metrics.observe(http.MethodGet, "work_packages", 200, 30*time.Millisecond)
	metrics.observe(http.MethodGet, "work_packages", 0, time.Second)

	assert.Equal(t, 2.0, counterValue(t, reg, "work_packages", "200"))
	assert.Equal(t, 1.0, counterValue(t, reg, "work_packages", "error"))

	families, err := reg.Gather()
	require.NoError(t, err)
	var histogramCount uint64
	for _, family := range families {
		if family.GetName() == "openproject_mcp_api_request_duration_seconds" {
			histogramCount = family.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(3), histogramCount)
}

func TestClientMetricsNilSafe(t *testing.T) {
	var metrics *ClientMetrics
	assert.NotPanics(t, func() {
		metrics.observe(http.MethodGet, "projects", 200, time.Millisecond)
	})
	assert.NotPanics(t, func() {
		NewClientMetrics(nil).observe(http.MethodGet, "projects", 200, time.Millisecond)
	})
}
