package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest("GET", "/v1/tasks", 200, 10*time.Millisecond)
	c.RecordHTTPRequest("GET", "/v1/tasks", 200, 20*time.Millisecond)
	c.RecordHTTPRequest("GET", "/v1/tasks", 401, time.Millisecond)

	if got := testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/v1/tasks", "200")); got != 2 {
		t.Errorf("200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/v1/tasks", "401")); got != 1 {
		t.Errorf("401 count = %v, want 1", got)
	}
}

func TestRecordPolicyDecision_Outcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPolicyDecision("update", true, "")
	c.RecordPolicyDecision("update", false, "forbidden")
	c.RecordPolicyDecision("update", false, "forbidden")

	if got := testutil.ToFloat64(c.decisions.WithLabelValues("update", "allowed")); got != 1 {
		t.Errorf("allowed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.decisions.WithLabelValues("update", "forbidden")); got != 2 {
		t.Errorf("forbidden = %v, want 2", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordAuthFailure("bad_credentials")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `tasks_auth_failures_total{reason="bad_credentials"} 1`) {
		t.Errorf("auth failure metric missing from output:\n%s", body)
	}
}
