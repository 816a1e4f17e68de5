package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCommitOutcomes(t *testing.T) {
	before := testutil.ToFloat64(CommitOutcomes.WithLabelValues("commit", "conflict"))
	CommitOutcomes.WithLabelValues("commit", "conflict").Inc()

	if got := testutil.ToFloat64(CommitOutcomes.WithLabelValues("commit", "conflict")); got != before+1 {
		t.Fatalf("expected counter to increase by one, got %v -> %v", before, got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	LockAttempts.WithLabelValues("acquired").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "meeting_scheduler_lock_acquire_total") {
		t.Fatalf("expected lock counter in exposition output")
	}
}
