package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.FetchStarted("tasks")
	m.FetchStarted("tasks")
	m.FetchFinished("tasks", 20*time.Millisecond)
	m.SyncResult("tasks", "decoded")
	m.SyncFailure("tasks", "transport")
	m.CacheRead("tasks", true)
	m.CacheRead("tasks", false)
	m.CacheRead("tasks", false)
	m.PersistWrite("tasks", "error")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight.WithLabelValues("tasks")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("tasks", "decoded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("tasks", "transport")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheReads.WithLabelValues("tasks", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistWrites.WithLabelValues("tasks", "error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SyncResult("actions", "empty")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `deskhub_sync_results_total{kind="actions",outcome="empty"} 1`))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.FetchStarted("tasks")
	m.FetchFinished("tasks", time.Second)
	m.SyncResult("tasks", "decoded")
	m.SyncFailure("tasks", "decode")
	m.CacheRead("tasks", true)
	m.PersistWrite("tasks", "ok")
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
