// Package compare implements the backend-vs-live trade reconciliation engine:
// matching by symbol and candle-time window, divergence metrics, issue flags,
// plus the sort/filter/summary helpers the dashboard drives.
package compare

import (
	"time"

	"labdash/internal/record"
)

// Thresholds 控制匹配窗口与各项告警阈值，零值回落到默认。
type Thresholds struct {
	WindowHours          float64 `json:"window_hours"`
	LateFetchMinutes     float64 `json:"late_fetch_minutes"`
	PriceGapPct          float64 `json:"price_gap_pct"`
	CloseTimeGapMinutes  float64 `json:"close_time_gap_minutes"`
	ClosePriceGapPct     float64 `json:"close_price_gap_pct"`
	InvestmentGapPct     float64 `json:"investment_gap_pct"`
}

// DefaultThresholds 是仪表盘沿用的告警标准。
func DefaultThresholds() Thresholds {
	return Thresholds{
		WindowHours:         4,
		LateFetchMinutes:    5,
		PriceGapPct:         15,
		CloseTimeGapMinutes: 16,
		ClosePriceGapPct:    15,
		InvestmentGapPct:    0,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	def := DefaultThresholds()
	if t.WindowHours <= 0 {
		t.WindowHours = def.WindowHours
	}
	if t.LateFetchMinutes <= 0 {
		t.LateFetchMinutes = def.LateFetchMinutes
	}
	if t.PriceGapPct <= 0 {
		t.PriceGapPct = def.PriceGapPct
	}
	if t.CloseTimeGapMinutes <= 0 {
		t.CloseTimeGapMinutes = def.CloseTimeGapMinutes
	}
	if t.ClosePriceGapPct <= 0 {
		t.ClosePriceGapPct = def.ClosePriceGapPct
	}
	// InvestmentGapPct intentionally keeps zero: any nonzero gap is flagged.
	return t
}

// Input 是一次对账的全部输入。引擎是纯函数，不做任何 I/O。
type Input struct {
	Trades     []record.Trade
	BackendIDs []string
	LiveIDs    []string
	// From/To 按 UTC 自然日过滤 candle time（From 取当日零点，To 取当日末尾）。
	From *time.Time
	To   *time.Time

	Thresholds Thresholds
}

// Row 是一条对账结果。指针型指标为 nil 表示“不可用”，绝不携带 NaN。
type Row struct {
	Key     string        `json:"key"`
	Backend *record.Trade `json:"backend_trade,omitempty"`
	Live    *record.Trade `json:"live_trade,omitempty"`

	FetcherDiff        *float64 `json:"fetcher_diff,omitempty"`         // minutes
	CandleDiffHours    *float64 `json:"candle_diff_hours,omitempty"`
	PriceDeltaPct      *float64 `json:"price_delta_pct,omitempty"`
	InvestmentDeltaPct *float64 `json:"investment_delta_pct,omitempty"`
	CloseTimeDiff      *float64 `json:"close_time_diff,omitempty"`      // minutes
	ClosePriceDelta    *float64 `json:"close_price_delta,omitempty"`    // percent

	BackendStatus record.Status `json:"backend_status"`
	LiveStatus    record.Status `json:"live_status"`

	Issues []string `json:"issues"`
}

// Symbol 返回行的展示符号（先取 backend，再取 live）。
func (r *Row) Symbol() string {
	if r.Backend != nil {
		return r.Backend.NormalizedSymbol()
	}
	if r.Live != nil {
		return r.Live.NormalizedSymbol()
	}
	return ""
}

// CandleTime 返回行的主时间（先取 backend，再取 live）。
func (r *Row) CandleTime() *time.Time {
	if r.Backend != nil && r.Backend.CandleTime != nil {
		return r.Backend.CandleTime
	}
	if r.Live != nil {
		return r.Live.CandleTime
	}
	return nil
}

// UniqueID 返回用于事件日志抓取的标识（live 优先）。
func (r *Row) UniqueID() string {
	if r.Live != nil && r.Live.UniqueID != "" {
		return r.Live.UniqueID
	}
	if r.Backend != nil {
		return r.Backend.UniqueID
	}
	return ""
}
