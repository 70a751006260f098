package dashhttp

import (
	"context"
	"net/http"
	"testing"
	"time"

	"labdash/internal/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportUnavailableWithoutLogs(t *testing.T) {
	h := newTestHandler(t, snapshotStore(), nil)
	rec := doGet(t, h, "/api/compare/report?uid=l-1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReportRendersChart(t *testing.T) {
	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	pl := 33.0
	fetch := func(ctx context.Context, uid string) ([]record.LogEntry, error) {
		assert.Equal(t, "l-1", uid)
		return []record.LogEntry{{Timestamp: &ts, PL: &pl}}, nil
	}
	h := newTestHandler(t, snapshotStore(), fetch)

	rec := doGet(t, h, "/api/compare/report?uid=l-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "P/L after commission: l-1")
	assert.Contains(t, body, "pl_after_comm")
}

func TestReportNotFoundWithoutEntries(t *testing.T) {
	fetch := func(ctx context.Context, uid string) ([]record.LogEntry, error) { return nil, nil }
	h := newTestHandler(t, snapshotStore(), fetch)

	rec := doGet(t, h, "/api/compare/report?uid=missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doGet(t, h, "/api/compare/report")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
