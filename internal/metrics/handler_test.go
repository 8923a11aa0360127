package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// /metricsでテキスト形式のメトリクスが返る
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordGateDenial("bearer", "expired")

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `blogapi_gate_denials_total{gate="bearer",reason="expired"} 1`) {
		t.Errorf("response should contain gate denial series, got:\n%s", body)
	}
}

// /metrics以外のパスは404
func TestSetupMetricsRoute_OtherPath_NotFound(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	req := httptest.NewRequest(http.MethodGet, "/other", nil)
	w := httptest.NewRecorder()
	SetupMetricsRoute(reg).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordTokenIssued()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "blogapi_tokens_issued_total 1") {
		t.Errorf("expected tokens_issued counter in output, got:\n%s", w.Body.String())
	}
}
