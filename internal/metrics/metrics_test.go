package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/tangle-network/frost-blueprint/internal/metrics"
)

func TestNewWithNilRegistererIsSafe(t *testing.T) {
	m := metrics.New(nil)
	m.RunsTotal.WithLabelValues("keygen", "FROST-ED25519-SHA512-v1").Inc()
	m.AbortsTotal.WithLabelValues("signing", "malicious").Inc()
}

func TestRunsTotalIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.RunsTotal.WithLabelValues("keygen", "FROST-ED25519-SHA512-v1").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "frostd_runs_total" {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Equal(t, float64(1), found.Metric[0].GetCounter().GetValue())
}
