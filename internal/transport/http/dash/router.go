package dashhttp

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"labdash/internal/compare"
	"labdash/internal/dataset"
	"labdash/internal/drawdown"
	"labdash/internal/gateway/market"
	"labdash/internal/gateway/signalcalc"
	"labdash/internal/logger"
	"labdash/internal/store"

	"github.com/gin-gonic/gin"
)

const maxCalculateBody = 1 << 20

// Router 暴露仪表盘查询接口(数据库/行情/信号代理 + 对账)。
type Router struct {
	Store   store.Store
	Data    *dataset.Service
	Market  *market.Client
	Cache   *market.CandleCache
	Signals *signalcalc.Client
	Scanner *drawdown.Scanner
	Logs    FetchLogs

	Thresholds       compare.Thresholds
	DefaultBackendID string
	TradeLimit       int
	CacheMax         int
}

// Register 将 /api 路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/trades", r.handleTrades)
	group.GET("/machines", r.handleMachines)
	group.GET("/bot-event-logs", r.handleBotEventLogs)
	group.GET("/signal-logs", r.handleSignalLogs)
	group.GET("/klines", r.handleKlines)
	if r.Signals != nil {
		group.GET("/signals/health", r.handleSignalsHealth)
		group.POST("/signals/calculate", r.handleSignalsCalculate)
	}
	group.GET("/compare", r.handleCompare)
	group.GET("/compare/scan", r.handleCompareScan)
	group.GET("/compare/report", r.handleCompareReport)
}

func (r *Router) handleTrades(c *gin.Context) {
	if r.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "存储未启用"})
		return
	}
	limit := r.TradeLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	trades, err := r.Store.ListTrades(c.Request.Context(), limit)
	if err != nil {
		logger.Errorf("[api] list trades failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

func (r *Router) handleMachines(c *gin.Context) {
	if r.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "存储未启用"})
		return
	}
	machines, err := r.Store.ListMachines(c.Request.Context())
	if err != nil {
		logger.Errorf("[api] list machines failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"machines": machines, "count": len(machines)})
}

func (r *Router) handleBotEventLogs(c *gin.Context) {
	if r.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "存储未启用"})
		return
	}
	q := store.EventLogQuery{
		UID:       strings.TrimSpace(c.Query("uid")),
		Source:    strings.TrimSpace(c.Query("source")),
		MachineID: strings.TrimSpace(c.Query("machineId")),
		SortKey:   strings.TrimSpace(c.Query("sortKey")),
	}
	q.SortAscending = strings.EqualFold(c.Query("sortDirection"), "asc")
	if t := parseQueryDate(c.Query("fromDate"), false); t != nil {
		q.From = t
	}
	if t := parseQueryDate(c.Query("toDate"), true); t != nil {
		q.To = t
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	q.Page = page
	rawLimit := strings.TrimSpace(c.DefaultQuery("limit", "50"))
	if strings.EqualFold(rawLimit, "all") {
		q.All = true
	} else {
		limit, _ := strconv.Atoi(rawLimit)
		if limit <= 0 {
			limit = 50
		}
		q.Limit = limit
	}

	logs, total, err := r.Store.ListBotEventLogs(c.Request.Context(), q)
	if err != nil {
		logger.Errorf("[api] list event logs failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	totalPages := 1
	if !q.All && q.Limit > 0 {
		totalPages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
		if totalPages < 1 {
			totalPages = 1
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"logs": logs,
		"pagination": gin.H{
			"page":       q.Page,
			"limit":      rawLimit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}

func (r *Router) handleSignalLogs(c *gin.Context) {
	if r.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "存储未启用"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := r.Store.ListSignalLogs(c.Request.Context(), limit)
	if err != nil {
		logger.Errorf("[api] list signal logs failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

func (r *Router) handleKlines(c *gin.Context) {
	if r.Market == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "行情代理未启用"})
		return
	}
	symbol := strings.TrimSpace(c.Query("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	interval := market.NormalizeInterval(c.DefaultQuery("interval", "15m"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 {
		limit = 100
	}

	if r.Cache != nil {
		if cached := r.Cache.Get(symbol, interval, limit); len(cached) >= limit {
			c.JSON(http.StatusOK, gin.H{"symbol": symbol, "interval": interval, "klines": cached, "cached": true})
			return
		}
	}
	klines, err := r.Market.Klines(c.Request.Context(), symbol, interval, limit)
	if err != nil {
		logger.Errorf("[api] klines proxy failed symbol=%s interval=%s err=%v", symbol, interval, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if r.Cache != nil {
		max := r.CacheMax
		if max <= 0 {
			max = 300
		}
		_ = r.Cache.Put(symbol, interval, klines, max)
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "interval": interval, "klines": klines})
}

func (r *Router) handleSignalsHealth(c *gin.Context) {
	body, status, err := r.Signals.Health(c.Request.Context())
	if err != nil {
		logger.Warnf("[api] signals health failed err=%v", err)
		if status == 0 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"ok": false, "message": err.Error()})
		return
	}
	c.Data(status, "application/json", body)
}

func (r *Router) handleSignalsCalculate(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCalculateBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read request body failed"})
		return
	}
	body, status, err := r.Signals.Calculate(c.Request.Context(), payload)
	if err != nil {
		logger.Errorf("[api] signals calculate failed err=%v", err)
		if status == 0 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"ok": false, "message": err.Error()})
		return
	}
	c.Data(status, "application/json", body)
}

// parseQueryDate accepts "2006-01-02" or RFC3339. Date-only values resolve to
// start of day, or end of day when endOfDay is set.
func parseQueryDate(raw string, endOfDay bool) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		t = t.UTC()
		if endOfDay {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		return &t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t
	}
	return nil
}
