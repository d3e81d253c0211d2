package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordSubmission(SubmissionAccepted)
	m.RecordSubmission(SubmissionDuplicate)
	m.RecordSubmission(SubmissionAccepted)
	m.RecordExport("pdf")
	m.RecordOrphansRemoved(2)
	m.ObserveHTTPRequest(http.MethodGet, "/admin", http.StatusOK, 10*time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `intake_submissions_total{result="accepted"} 2`))
	assert.True(t, strings.Contains(body, `intake_submissions_total{result="duplicate"} 1`))
	assert.True(t, strings.Contains(body, `intake_exports_total{format="pdf"} 1`))
	assert.True(t, strings.Contains(body, "intake_orphan_documents_removed_total 2"))
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",path="/admin",status="200"} 1`))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordSubmission(SubmissionAccepted)
	m.RecordLogin(true)
	m.RecordDeletion()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
