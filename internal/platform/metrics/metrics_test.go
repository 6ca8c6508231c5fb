package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.AggregationSucceeded()
	m.AggregationFailed([]string{"training"})
	m.Quarantined("profile.json")
	m.SyncFailed("push")
	m.Generated("plan", "ok")
	require.Nil(t, m.Registry())
}

func TestMetrics_CountsAndServes(t *testing.T) {
	t.Parallel()

	m := New()
	m.AggregationFailed([]string{"training", "pain"})
	m.AggregationSucceeded()
	m.Quarantined("profile.json")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.aggregations.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.domainFailures.WithLabelValues("pain")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quarantines.WithLabelValues("profile.json")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "coach_activity_aggregations_total"))
}
