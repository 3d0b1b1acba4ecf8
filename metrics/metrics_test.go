package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// TestMetrics_Counters tests that the recorders update their collectors.
func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m, err := New()
	require.NoError(t, err)

	m.ObserveSubmission(ResultSuccess, time.Second)
	m.IncRejection("below minimum")
	m.IncRejection("below minimum")
	m.IncProviderFailure("source wallet")
	m.IncBalanceQuery(BalanceStale)

	require.Equal(t, 1.0, testutil.ToFloat64(
		m.submissions.WithLabelValues(ResultSuccess),
	))
	require.Equal(t, 2.0, testutil.ToFloat64(
		m.rejections.WithLabelValues("below minimum"),
	))
	require.Equal(t, 1.0, testutil.ToFloat64(
		m.providerFailures.WithLabelValues("source wallet"),
	))
	require.Equal(t, 1.0, testutil.ToFloat64(
		m.balanceQueries.WithLabelValues(BalanceStale),
	))
}

// TestMetrics_Nil tests that a nil collector set is a no-op.
func TestMetrics_Nil(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveSubmission(ResultFailure, time.Second)
	m.IncRejection("window closed")
	m.IncProviderFailure("balance query")
	m.IncBalanceQuery(BalanceOK)
	require.Nil(t, m.Registry())
	require.NoError(t, m.WriteTextfile("/nonexistent/file.prom"))
}

// TestMetrics_WriteTextfile tests the textfile export.
func TestMetrics_WriteTextfile(t *testing.T) {
	t.Parallel()

	m, err := New()
	require.NoError(t, err)
	m.IncRejection("window closed")

	path := filepath.Join(t.TempDir(), "chexbridge.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data),
		`chexbridge_rejections_total{reason="window closed"} 1`)
}
