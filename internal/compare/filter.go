package compare

import (
	"labdash/internal/drawdown"
	"labdash/internal/record"
)

// QuickFilter 对应概览卡片的一键过滤。
type QuickFilter string

const (
	FilterBackendMissing  QuickFilter = "backendMissing"
	FilterLiveExtra       QuickFilter = "liveExtra"
	FilterLateFetch       QuickFilter = "lateFetch"
	FilterPriceGap        QuickFilter = "priceGap"
	FilterClosureMismatch QuickFilter = "closureMismatch"
	FilterClosureGap      QuickFilter = "closureGap"
	FilterPLDrop          QuickFilter = "plDrop"
	FilterNeverProfit     QuickFilter = "neverProfit"
	FilterTotalBackend    QuickFilter = "totalBackend"
	FilterTotalLive       QuickFilter = "totalLive"
)

// FilterOptions 组合行过滤条件：quick filter 之间取并集，IssuesOnly 再取交集。
type FilterOptions struct {
	Quick      []QuickFilter
	IssuesOnly bool
	Thresholds Thresholds
}

// FilterRows 返回满足条件的行（保持原有顺序）。
func FilterRows(rows []Row, opts FilterOptions, details map[string]drawdown.Entry) []Row {
	th := opts.Thresholds.withDefaults()
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if opts.IssuesOnly && len(row.Issues) == 0 {
			continue
		}
		if len(opts.Quick) > 0 && !matchesAny(&row, opts.Quick, th, details) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matchesAny(row *Row, filters []QuickFilter, th Thresholds, details map[string]drawdown.Entry) bool {
	for _, f := range filters {
		if matches(row, f, th, details) {
			return true
		}
	}
	return false
}

func matches(row *Row, filter QuickFilter, th Thresholds, details map[string]drawdown.Entry) bool {
	switch filter {
	case FilterBackendMissing:
		return row.Live == nil
	case FilterLiveExtra:
		return row.Backend == nil
	case FilterLateFetch:
		return row.FetcherDiff != nil && *row.FetcherDiff > th.LateFetchMinutes
	case FilterPriceGap:
		return row.PriceDeltaPct != nil && *row.PriceDeltaPct > th.PriceGapPct
	case FilterClosureMismatch:
		return closureMismatch(row)
	case FilterClosureGap:
		return row.CloseTimeDiff != nil && *row.CloseTimeDiff > th.CloseTimeGapMinutes &&
			row.ClosePriceDelta != nil && *row.ClosePriceDelta > th.ClosePriceGapPct
	case FilterPLDrop:
		entry, ok := details[row.Key]
		return ok && entry.Result != nil && entry.Result.Issue != nil
	case FilterNeverProfit:
		entry, ok := details[row.Key]
		return ok && entry.Result != nil && entry.Result.EverPositive != nil && !*entry.Result.EverPositive
	case FilterTotalBackend:
		return row.Backend != nil
	case FilterTotalLive:
		return row.Live != nil
	default:
		return false
	}
}

func closureMismatch(row *Row) bool {
	return (row.BackendStatus == record.StatusClosed && row.LiveStatus == record.StatusRunning) ||
		(row.BackendStatus == record.StatusRunning && row.LiveStatus == record.StatusClosed)
}
