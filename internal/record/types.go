// Package record defines the canonical trade/machine/event-log shapes and the
// normalization boundary that maps loosely-cased source rows onto them.
package record

import (
	"encoding/json"
	"strings"
	"time"
)

// Status 表示单边交易的闭合状态。
type Status string

const (
	StatusClosed  Status = "closed"
	StatusRunning Status = "running"
	StatusMissing Status = "missing"
)

// Trade 是归一化后的成交记录。数值字段解析失败时为 nil，不会出现 NaN。
type Trade struct {
	Symbol      string     `json:"symbol"`
	MachineID   string     `json:"machine_id"`
	UniqueID    string     `json:"unique_id,omitempty"`
	Action      string     `json:"action,omitempty"`
	Type        string     `json:"type,omitempty"`
	Interval    string     `json:"interval,omitempty"`
	CandleTime  *time.Time `json:"candle_time,omitempty"`
	FetcherTime *time.Time `json:"fetcher_time,omitempty"`
	CloseTime   *time.Time `json:"close_time,omitempty"`
	BuyPrice    *float64   `json:"buy_price,omitempty"`
	SellPrice   *float64   `json:"sell_price,omitempty"`
	ClosePrice  *float64   `json:"close_price,omitempty"`
	Investment  *float64   `json:"investment,omitempty"`
	PLAfterComm *float64   `json:"pl_after_comm,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// NormalizedSymbol 返回用于分组匹配的符号键（大写去空白）。
func (t *Trade) NormalizedSymbol() string {
	if t == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(t.Symbol))
}

// ActionPrice 依据 action 选择比较价：BUY→买价，SELL→卖价，否则回落到收盘价。
func (t *Trade) ActionPrice() *float64 {
	if t == nil {
		return nil
	}
	switch strings.ToUpper(strings.TrimSpace(t.Action)) {
	case "BUY":
		return t.BuyPrice
	case "SELL":
		return t.SellPrice
	default:
		return t.ClosePrice
	}
}

// Status derives closed/running from the record itself. A type containing
// "back_close" marks the trade closed even without a close timestamp.
func (t *Trade) Status() Status {
	if t == nil {
		return StatusMissing
	}
	if strings.Contains(strings.ToLower(t.Type), "back_close") {
		return StatusClosed
	}
	if t.CloseTime != nil {
		return StatusClosed
	}
	return StatusRunning
}

// Machine 对应 machines 表的一行。
type Machine struct {
	MachineID string `json:"machineid"`
	Active    bool   `json:"active"`
}

// LogEntry 是单条 bot 事件日志：时间戳 + 解析出的 PL + 原始负载。
type LogEntry struct {
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	PL        *float64        `json:"pl_after_comm,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}
