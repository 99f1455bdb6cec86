package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, cv *prometheus.CounterVec, status string) float64 {
	t.Helper()

	c, err := cv.GetMetricWithLabelValues(status)
	if err != nil {
		t.Fatalf("counter for %q: %v", status, err)
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestPosterFetchesTotal(t *testing.T) {
	for _, status := range []string{"hit", "fetched", "error"} {
		before := counterValue(t, PosterFetchesTotal, status)
		PosterFetchesTotal.WithLabelValues(status).Inc()
		after := counterValue(t, PosterFetchesTotal, status)

		if after != before+1 {
			t.Errorf("status %q: counter moved by %.0f, want 1", status, after-before)
		}
	}
}

func TestNewHTTPServer(t *testing.T) {
	srv := NewHTTPServer(9191)

	if srv.Addr != ":9191" {
		t.Errorf("got addr %q, want %q", srv.Addr, ":9191")
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Errorf("GET /metrics returned %d", rr.Code)
	}
}

func TestNewHTTPServerDefaultPort(t *testing.T) {
	srv := NewHTTPServer(0)

	if srv.Addr != ":9090" {
		t.Errorf("got addr %q, want %q", srv.Addr, ":9090")
	}
}
