package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRemote(t *testing.T) {
	c := NewCollector("test")

	c.ObserveRemote("list_relationships", time.Now(), nil)
	c.ObserveRemote("list_relationships", time.Now(), errors.New("boom"))
	c.ObserveRemote("list_relationships", time.Now(), errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.RemoteCalls.WithLabelValues("list_relationships", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.RemoteCalls.WithLabelValues("list_relationships", OutcomeFailure)))
}

func TestObserveReconcileAndBatch(t *testing.T) {
	c := NewCollector("test")

	c.ObserveReconcile("reconcile", OutcomeNoop)
	c.ObserveRetirement(nil)
	c.ObserveRetirement(errors.New("gone"))
	c.ObserveBatch(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Reconciles.WithLabelValues("reconcile", OutcomeNoop)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Retirements.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.BatchEntries))
}

func TestNilCollector(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.ObserveRemote("op", time.Now(), nil)
		c.ObserveReconcile("reconcile", OutcomeSuccess)
		c.ObserveRetirement(nil)
		c.ObserveBatch(1)
		c.ObserveHTTP("GET", "/", "200", time.Millisecond)
	})
	assert.Nil(t, c.Registry())
}

func TestHandler(t *testing.T) {
	c := NewCollector("groundtruth")
	c.ObserveHTTP("GET", "/", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "groundtruth_http_requests_total")
}
