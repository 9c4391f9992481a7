package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("review")
	b := NewCollector("review")

	a.ObserveEvaluation("ok", 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.evaluations.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.evaluations.WithLabelValues("ok")))
}

func TestSessionGauge(t *testing.T) {
	c := NewCollector("review")
	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.streamSessions))
}

func TestHandlerExposesSeries(t *testing.T) {
	c := NewCollector("review")
	c.ObserveHTTP(http.MethodGet, "/games", http.StatusOK, time.Millisecond)
	c.ObserveUpstream("archives", "ok", time.Millisecond)
	c.AnalysisFinished("complete")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `review_http_requests_total{method="GET",route="/games",status="200"} 1`)
	assert.Contains(t, string(body), `review_chesscom_requests_total{endpoint="archives",outcome="ok"} 1`)
	assert.Contains(t, string(body), `review_stream_analyses_total{result="complete"} 1`)
}
