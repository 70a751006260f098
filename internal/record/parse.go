package record

import (
	"encoding/json"
	"strings"
	"time"

	"labdash/internal/pkg/convert"

	"github.com/tidwall/gjson"
)

// 源表的字段拼写并不统一（pair/symbol、candel_time 的历史拼写错误、
// Buy_Price 与 buy_price 混用），这里集中列出全部可接受的别名。
var (
	symbolKeys  = []string{"pair", "symbol", "PAIR"}
	candleKeys  = []string{"candel_time", "candle_time", "Candle_time"}
	fetcherKeys = []string{"fetcher_trade_time", "fetcher_time", "Fetcher_time"}
	closeKeys   = []string{"operator_close_time", "close_time", "Operator_close_time", "operatorCloseTime"}
	machineKeys = []string{"machineid", "machine_id", "MachineID"}
	uidKeys     = []string{"unique_id", "uid", "Unique_ID"}
	actionKeys  = []string{"action", "Action"}
	typeKeys    = []string{"type", "Type"}
	intervalKey = []string{"interval", "Interval"}
	buyKeys     = []string{"buy_price", "Buy_Price", "buyPrice"}
	sellKeys    = []string{"sell_price", "Sell_Price", "sellPrice"}
	closePxKeys = []string{"close_price", "Close_Price", "price"}
	investKeys  = []string{"investment", "Investment"}
	plKeys      = []string{"pl_after_comm", "Pl_after_comm", "plAfterComm"}

	logTimeKeys = []string{"timestamp", "created_at", "time", "Timestamp", "time_stamp"}
	logPLKeys   = []string{"Pl After Comm", "pl_after_comm"}
)

// ParseTrade normalizes one loose JSON row into a Trade.
func ParseTrade(raw []byte) Trade {
	doc := gjson.ParseBytes(raw)
	t := Trade{
		Symbol:      strings.TrimSpace(firstString(doc, symbolKeys)),
		MachineID:   strings.TrimSpace(firstString(doc, machineKeys)),
		UniqueID:    strings.TrimSpace(firstString(doc, uidKeys)),
		Action:      strings.TrimSpace(firstString(doc, actionKeys)),
		Type:        strings.TrimSpace(firstString(doc, typeKeys)),
		Interval:    strings.TrimSpace(firstString(doc, intervalKey)),
		CandleTime:  firstTime(doc, candleKeys),
		FetcherTime: firstTime(doc, fetcherKeys),
		CloseTime:   firstTime(doc, closeKeys),
		BuyPrice:    firstFloat(doc, buyKeys),
		SellPrice:   firstFloat(doc, sellKeys),
		ClosePrice:  firstFloat(doc, closePxKeys),
		Investment:  firstFloat(doc, investKeys),
		PLAfterComm: firstFloat(doc, plKeys),
	}
	t.Raw = append(json.RawMessage(nil), raw...)
	return t
}

// ParseTrades normalizes a slice of loose rows.
func ParseTrades(rows []json.RawMessage) []Trade {
	out := make([]Trade, 0, len(rows))
	for _, row := range rows {
		out = append(out, ParseTrade(row))
	}
	return out
}

// ParseLogEntry 解析一条 bot 事件日志。PL 藏在 json_message 负载里，
// 该负载可能是对象也可能是再编码过的字符串。
func ParseLogEntry(raw []byte) LogEntry {
	doc := gjson.ParseBytes(raw)
	entry := LogEntry{
		Timestamp: firstTime(doc, logTimeKeys),
		Raw:       append(json.RawMessage(nil), raw...),
	}
	payload := doc.Get("json_message")
	if payload.Type == gjson.String {
		payload = gjson.Parse(payload.String())
	}
	if payload.IsObject() {
		entry.PL = firstFloat(payload, logPLKeys)
	}
	return entry
}

func firstString(doc gjson.Result, keys []string) string {
	for _, key := range keys {
		if val := doc.Get(key); val.Exists() && val.Type != gjson.Null {
			return val.String()
		}
	}
	return ""
}

func firstFloat(doc gjson.Result, keys []string) *float64 {
	for _, key := range keys {
		val := doc.Get(key)
		if !val.Exists() || val.Type == gjson.Null {
			continue
		}
		switch val.Type {
		case gjson.Number:
			return convert.ToFloatPtr(val.Float())
		default:
			if p := convert.ToFloatPtr(val.String()); p != nil {
				return p
			}
		}
	}
	return nil
}

func firstTime(doc gjson.Result, keys []string) *time.Time {
	for _, key := range keys {
		val := doc.Get(key)
		if !val.Exists() || val.Type == gjson.Null {
			continue
		}
		if ts := ParseTime(val); ts != nil {
			return ts
		}
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts RFC3339/SQL timestamp strings and unix epoch numbers
// (seconds or milliseconds). Unparsable values yield nil.
func ParseTime(val gjson.Result) *time.Time {
	if val.Type == gjson.Number {
		n := val.Int()
		if n <= 0 {
			return nil
		}
		var ts time.Time
		if n > 1e12 { // milliseconds
			ts = time.UnixMilli(n).UTC()
		} else {
			ts = time.Unix(n, 0).UTC()
		}
		return &ts
	}
	s := strings.TrimSpace(val.String())
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}
