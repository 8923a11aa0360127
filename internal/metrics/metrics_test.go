package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetricFamily はレジストリから指定名のメトリクスファミリーを取り出す。
func findMetricFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestRecordTokenIssued_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokenIssued()
	c.RecordTokenIssued()

	mf := findMetricFamily(t, reg, "blogapi_tokens_issued_total")
	if val := mf.GetMetric()[0].GetCounter().GetValue(); val != 2 {
		t.Errorf("tokens_issued_total = %v, want 2", val)
	}
}

func TestRecordTokenIssueFailure_LabelsByReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokenIssueFailure("INVALID_CREDENTIALS")
	c.RecordTokenIssueFailure("INVALID_CREDENTIALS")
	c.RecordTokenIssueFailure("INVALID_REQUEST")

	mf := findMetricFamily(t, reg, "blogapi_token_issue_failures_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "reason")] = m.GetCounter().GetValue()
	}
	if got["INVALID_CREDENTIALS"] != 2 || got["INVALID_REQUEST"] != 1 {
		t.Errorf("failures by reason = %v", got)
	}
}

func TestRecordGateDenial_LabelsByGateAndReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGateDenial("bearer", "expired")
	c.RecordGateDenial("bearer", "not_found")
	c.RecordGateDenial("perimeter", "address_not_allowed")

	mf := findMetricFamily(t, reg, "blogapi_gate_denials_total")
	if len(mf.GetMetric()) != 3 {
		t.Fatalf("expected 3 label combinations, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		if labelValue(m, "gate") == "bearer" && labelValue(m, "reason") == "expired" {
			if m.GetCounter().GetValue() != 1 {
				t.Errorf("bearer/expired = %v, want 1", m.GetCounter().GetValue())
			}
			return
		}
	}
	t.Error("bearer/expired series not found")
}

func TestRecordHTTPStatus_LabelsByStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(401)

	mf := findMetricFamily(t, reg, "blogapi_http_status_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "status_code")] = m.GetCounter().GetValue()
	}
	if got["200"] != 2 || got["401"] != 1 {
		t.Errorf("status counts = %v", got)
	}
}

func TestRecordRequestDuration_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestDuration(150 * time.Millisecond)

	mf := findMetricFamily(t, reg, "blogapi_request_duration_seconds")
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("sample count = %d, want 1", h.GetSampleCount())
	}
	if h.GetSampleSum() < 0.149 || h.GetSampleSum() > 0.151 {
		t.Errorf("sample sum = %v, want ~0.15", h.GetSampleSum())
	}
}

func TestRecordTokensPurged_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokensPurged(5)
	c.RecordTokensPurged(0)

	mf := findMetricFamily(t, reg, "blogapi_tokens_purged_total")
	if val := mf.GetMetric()[0].GetCounter().GetValue(); val != 5 {
		t.Errorf("tokens_purged_total = %v, want 5", val)
	}
}

func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}
