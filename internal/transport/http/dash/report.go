package dashhttp

import (
	"fmt"
	"net/http"
	"strings"

	"labdash/internal/drawdown"
	"labdash/internal/logger"
	"labdash/internal/record"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// FetchLogs 供报表页拉取某笔交易的事件日志序列。
type FetchLogs = drawdown.FetchFunc

// handleCompareReport renders the P/L history of one trade as an HTML chart,
// with the drawdown verdict in the subtitle when available.
func (r *Router) handleCompareReport(c *gin.Context) {
	if r.Logs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "事件日志未启用"})
		return
	}
	uid := strings.TrimSpace(c.Query("uid"))
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid is required"})
		return
	}
	entries, err := r.Logs(c.Request.Context(), uid)
	if err != nil {
		logger.Errorf("[api] report fetch logs failed uid=%s err=%v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no event logs for uid"})
		return
	}

	subtitle := "no drawdown verdict"
	if key := strings.TrimSpace(c.Query("key")); key != "" && r.Scanner != nil {
		if res := r.Scanner.Result(key); res != nil {
			switch {
			case res.Issue != nil:
				subtitle = fmt.Sprintf("drop %.1f%% from peak %.2f", res.Issue.DropPct, res.Issue.Peak)
			case res.Recovered != nil:
				subtitle = fmt.Sprintf("recovered, new peak %.2f", res.Recovered.Peak)
			default:
				subtitle = "no drawdown issue"
			}
		}
	}

	line := buildPLChart(uid, subtitle, entries)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(c.Writer); err != nil {
		logger.Errorf("[api] report render failed uid=%s err=%v", uid, err)
	}
}

func buildPLChart(uid, subtitle string, entries []record.LogEntry) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:     types.ThemeWesteros,
			PageTitle: "P/L history " + uid,
			Width:     "1200px",
			Height:    "520px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("P/L after commission: %s", uid),
			Subtitle: subtitle,
			Left:     "left",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)

	xAxis := make([]string, 0, len(entries))
	series := make([]opts.LineData, 0, len(entries))
	for _, e := range entries {
		label := ""
		if e.Timestamp != nil {
			label = e.Timestamp.UTC().Format("01-02 15:04:05")
		}
		xAxis = append(xAxis, label)
		if e.PL != nil {
			series = append(series, opts.LineData{Value: *e.PL})
		} else {
			series = append(series, opts.LineData{Value: nil})
		}
	}
	line.SetXAxis(xAxis)
	line.AddSeries("pl_after_comm", series,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ConnectNulls: opts.Bool(true)}),
	)
	return line
}
