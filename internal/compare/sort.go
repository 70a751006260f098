package compare

import (
	"math"
	"sort"
	"strings"

	"labdash/internal/drawdown"
)

// SortKey 列出表格可用的排序列。
type SortKey string

const (
	SortSymbol     SortKey = "symbol"
	SortCandle     SortKey = "candle"
	SortFetcher    SortKey = "fetcher"
	SortPrice      SortKey = "price"
	SortInvestment SortKey = "investment"
	SortClose      SortKey = "close"
	SortBackend    SortKey = "backend"
	SortLive       SortKey = "live"
	SortAction     SortKey = "action"
	SortStatus     SortKey = "status"
	SortDrawdown   SortKey = "drawdown"
	SortIssues     SortKey = "issues"
)

// SortRows 就地稳定排序。数值列缺失值按 +Inf 处理，升序时沉底。
// direction 为 "desc" 时反向，其余值按升序。
func SortRows(rows []Row, key SortKey, direction string, details map[string]drawdown.Entry) {
	desc := strings.EqualFold(strings.TrimSpace(direction), "desc")

	if str := stringValue(key, details); str != nil {
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := str(&rows[i]), str(&rows[j])
			if desc {
				return a > b
			}
			return a < b
		})
		return
	}

	num := numericValue(key, details)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := num(&rows[i]), num(&rows[j])
		if desc {
			return a > b
		}
		return a < b
	})
}

func stringValue(key SortKey, details map[string]drawdown.Entry) func(*Row) string {
	switch key {
	case SortSymbol:
		return func(r *Row) string { return r.Symbol() }
	case SortCandle:
		return func(r *Row) string {
			if ct := r.CandleTime(); ct != nil {
				return ct.UTC().Format("2006-01-02T15:04:05Z07:00")
			}
			return ""
		}
	case SortBackend:
		return func(r *Row) string {
			if r.Backend != nil {
				return strings.ToLower(r.Backend.MachineID)
			}
			return ""
		}
	case SortLive:
		return func(r *Row) string {
			if r.Live != nil {
				return strings.ToLower(r.Live.MachineID)
			}
			return ""
		}
	case SortAction:
		return func(r *Row) string {
			var ba, la string
			if r.Backend != nil {
				ba = strings.ToLower(r.Backend.Action)
			}
			if r.Live != nil {
				la = strings.ToLower(r.Live.Action)
			}
			return ba + "-" + la
		}
	case SortStatus:
		return func(r *Row) string {
			return string(r.BackendStatus) + "-" + string(r.LiveStatus)
		}
	default:
		return nil
	}
}

func numericValue(key SortKey, details map[string]drawdown.Entry) func(*Row) float64 {
	switch key {
	case SortFetcher:
		return func(r *Row) float64 { return orInf(r.FetcherDiff) }
	case SortPrice:
		return func(r *Row) float64 { return orInf(r.PriceDeltaPct) }
	case SortInvestment:
		return func(r *Row) float64 { return orInf(r.InvestmentDeltaPct) }
	case SortClose:
		return func(r *Row) float64 {
			if r.CloseTimeDiff != nil {
				return *r.CloseTimeDiff
			}
			return orInf(r.ClosePriceDelta)
		}
	case SortDrawdown:
		return func(r *Row) float64 {
			entry, ok := details[r.Key]
			if ok && entry.Result != nil && entry.Result.Issue != nil {
				return entry.Result.Issue.DropPct
			}
			return math.Inf(1)
		}
	case SortIssues:
		return func(r *Row) float64 { return float64(len(r.Issues)) }
	default:
		return func(*Row) float64 { return 0 }
	}
}

func orInf(v *float64) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return *v
}
