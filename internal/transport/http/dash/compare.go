package dashhttp

import (
	"net/http"
	"strings"
	"time"

	"labdash/internal/compare"
	"labdash/internal/drawdown"
	"labdash/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const scanConcurrency = 8

type comparePass struct {
	traceID    string
	rows       []compare.Row
	backendIDs []string
	liveIDs    []string
	from       *time.Time
	to         *time.Time
}

// runPass executes a full reconciliation over the current snapshot using the
// request's date range and machine selections.
func (r *Router) runPass(c *gin.Context) comparePass {
	pass := comparePass{traceID: uuid.NewString()}
	pass.from = parseQueryDate(c.Query("from"), false)
	pass.to = parseQueryDate(c.Query("to"), false)

	known := r.Data.MachineIDs()
	pass.backendIDs, pass.liveIDs = compare.SplitMachineIDs(
		known,
		splitCSV(c.Query("backend")),
		splitCSV(c.Query("live")),
		r.DefaultBackendID,
	)
	pass.rows = compare.Run(compare.Input{
		Trades:     r.Data.Trades(),
		BackendIDs: pass.backendIDs,
		LiveIDs:    pass.liveIDs,
		From:       pass.from,
		To:         pass.to,
		Thresholds: r.Thresholds,
	})
	return pass
}

func (r *Router) handleCompare(c *gin.Context) {
	if r.Data == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "数据快照未启用"})
		return
	}
	start := time.Now()
	pass := r.runPass(c)

	snapshot := r.scannerSnapshot()

	summary := compare.Summarize(pass.rows, r.Thresholds, snapshot)
	closeDeltas := compare.SumCloseDeltas(pass.rows)

	rows := pass.rows
	quick := make([]compare.QuickFilter, 0)
	for _, f := range splitCSV(c.Query("quick")) {
		quick = append(quick, compare.QuickFilter(f))
	}
	issuesOnly := strings.EqualFold(c.Query("issuesOnly"), "true") || c.Query("issuesOnly") == "1"
	if len(quick) > 0 || issuesOnly {
		rows = compare.FilterRows(rows, compare.FilterOptions{
			Quick:      quick,
			IssuesOnly: issuesOnly,
			Thresholds: r.Thresholds,
		}, snapshot)
	}

	if key := strings.TrimSpace(c.Query("sortKey")); key != "" {
		compare.SortRows(rows, compare.SortKey(key), c.DefaultQuery("sortDirection", "asc"), snapshot)
	}

	logger.Infof("[api] compare pass trace=%s rows=%d filtered=%d backend=%v live=%v dur=%s",
		pass.traceID, len(pass.rows), len(rows), pass.backendIDs, pass.liveIDs, time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"trace_id":     pass.traceID,
		"rows":         rows,
		"count":        len(rows),
		"summary":      summary,
		"close_deltas": closeDeltas,
		"machines": gin.H{
			"backend": pass.backendIDs,
			"live":    pass.liveIDs,
		},
		"last_refresh": r.Data.LastRefresh(),
	})
}

// handleCompareScan walks the current rows and makes sure every one has a
// detail verdict, fetching event logs for keys not cached yet.
func (r *Router) handleCompareScan(c *gin.Context) {
	if r.Data == nil || r.Scanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "扫描器未启用"})
		return
	}
	start := time.Now()
	pass := r.runPass(c)

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(scanConcurrency)
	for i := range pass.rows {
		row := &pass.rows[i]
		g.Go(func() error {
			r.Scanner.Scan(ctx, row.Key, row.UniqueID())
			return nil
		})
	}
	_ = g.Wait()

	snapshot := r.scannerSnapshot()
	states := make(map[string]any, len(pass.rows))
	for i := range pass.rows {
		if entry, ok := snapshot[pass.rows[i].Key]; ok {
			states[pass.rows[i].Key] = entry
		}
	}
	summary := compare.Summarize(pass.rows, r.Thresholds, snapshot)
	logger.Infof("[api] compare scan trace=%s rows=%d dur=%s", pass.traceID, len(pass.rows), time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"trace_id": pass.traceID,
		"states":   states,
		"summary":  summary,
	})
}

func (r *Router) scannerSnapshot() map[string]drawdown.Entry {
	if r.Scanner == nil {
		return nil
	}
	return r.Scanner.Snapshot()
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
