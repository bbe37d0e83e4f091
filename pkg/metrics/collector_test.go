package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_GatewayOutcome(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordGatewayOutcome("dhm", "answered")
	c.RecordGatewayOutcome("dhm", "answered")
	c.RecordGatewayOutcome("dhm", "rejected")

	if got := testutil.ToFloat64(c.gatewayRequests.WithLabelValues("dhm", "answered")); got != 2 {
		t.Errorf("answered = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.gatewayRequests.WithLabelValues("dhm", "rejected")); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.gatewayRequests.WithLabelValues("dhm2", "answered")); got != 0 {
		t.Errorf("dhm2 answered = %v, want 0", got)
	}
}

func TestCollector_LLMRetries(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordLLMRetry("gateway", "chat")
	c.RecordLLMRetry("gateway", "chat")
	c.RecordLLMRetry("gateway", "complete")

	if got := testutil.ToFloat64(c.llmRetries.WithLabelValues("gateway", "chat")); got != 2 {
		t.Errorf("chat retries = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(c.llmRetries); got != 2 {
		t.Errorf("series = %d, want 2", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(nil)
	c.RecordHTTPRequest(http.MethodPost, "/query-gateway", "200", 120*time.Millisecond)
	c.ObserveGatewayStage("executing", 30*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"pbm_portal_http_requests_total",
		"pbm_portal_gateway_stage_duration_seconds",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %s", want)
		}
	}
}
