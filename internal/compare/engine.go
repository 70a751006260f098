package compare

import (
	"fmt"
	"sort"
	"time"

	"labdash/internal/record"
)

// Run 执行一次完整对账。输出顺序是确定的：符号升序，符号内按 backend
// 的 candle 时间升序，未匹配的 live-only 行排在全部 backend 行之后。
func Run(input Input) []Row {
	th := input.Thresholds.withDefaults()
	trades := filterByDate(input.Trades, input.From, input.To)

	backendSet := toSet(input.BackendIDs)
	liveSet := toSet(input.LiveIDs)

	backendBySym := groupBySymbol(trades, backendSet)
	liveBySym := groupBySymbol(trades, liveSet)

	consumed := make(map[*record.Trade]bool)
	rows := make([]Row, 0, len(trades))

	for _, sym := range sortedSymbols(backendBySym) {
		liveList := liveBySym[sym]
		for _, backend := range backendBySym[sym] {
			live := nearestLive(backend, liveList, consumed, th.WindowHours)
			if live != nil {
				consumed[live] = true
			}
			rows = append(rows, buildRow(sym, backend, live, th))
		}
	}

	for _, sym := range sortedSymbols(liveBySym) {
		for _, live := range liveBySym[sym] {
			if consumed[live] {
				continue
			}
			rows = append(rows, liveOnlyRow(sym, live))
		}
	}
	return rows
}

func filterByDate(trades []record.Trade, from, to *time.Time) []*record.Trade {
	var lo, hi time.Time
	if from != nil {
		lo = startOfDay(*from)
	}
	if to != nil {
		hi = endOfDay(*to)
	}
	out := make([]*record.Trade, 0, len(trades))
	for i := range trades {
		t := &trades[i]
		// 没有 candle time 的记录无法参与按时间的匹配，直接剔除。
		if t.CandleTime == nil {
			continue
		}
		ct := t.CandleTime.UTC()
		if from != nil && ct.Before(lo) {
			continue
		}
		if to != nil && ct.After(hi) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func groupBySymbol(trades []*record.Trade, machineIDs map[string]bool) map[string][]*record.Trade {
	groups := make(map[string][]*record.Trade)
	for _, t := range trades {
		if !machineIDs[t.MachineID] {
			continue
		}
		sym := t.NormalizedSymbol()
		groups[sym] = append(groups[sym], t)
	}
	for _, list := range groups {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CandleTime.Before(*list[j].CandleTime)
		})
	}
	return groups
}

func sortedSymbols(groups map[string][]*record.Trade) []string {
	syms := make([]string, 0, len(groups))
	for sym := range groups {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// nearestLive 在窗口内选时间差最小的未消费 live 记录；平局保留先遇到的。
func nearestLive(backend *record.Trade, candidates []*record.Trade, consumed map[*record.Trade]bool, windowHours float64) *record.Trade {
	var best *record.Trade
	bestDiff := windowHours + 1
	for _, live := range candidates {
		if consumed[live] {
			continue
		}
		diff := hoursDiff(backend.CandleTime, live.CandleTime)
		if diff == nil {
			continue
		}
		if *diff <= windowHours && *diff < bestDiff {
			bestDiff = *diff
			best = live
		}
	}
	return best
}

func buildRow(sym string, backend, live *record.Trade, th Thresholds) Row {
	row := Row{
		Key:           rowKey(sym, backend, live),
		Backend:       backend,
		Live:          live,
		BackendStatus: sideStatus(backend),
		LiveStatus:    sideStatus(live),
	}

	var backendFetch, liveFetch *time.Time
	if backend != nil {
		backendFetch = backend.FetcherTime
	}
	if live != nil {
		liveFetch = live.FetcherTime
	}
	row.FetcherDiff = minutesDiff(backendFetch, liveFetch)

	if backend != nil && live != nil {
		row.CandleDiffHours = hoursDiff(backend.CandleTime, live.CandleTime)
		row.PriceDeltaPct = percentDiff(backend.ActionPrice(), live.ActionPrice())
		row.InvestmentDeltaPct = percentDiff(backend.Investment, live.Investment)
	}

	if row.BackendStatus == record.StatusClosed && row.LiveStatus == record.StatusClosed {
		row.CloseTimeDiff = minutesDiff(backend.CloseTime, live.CloseTime)
		row.ClosePriceDelta = avgPercentDiff(live.ClosePrice, backend.ClosePrice)
	}

	row.Issues = buildIssues(&row, th)
	return row
}

func liveOnlyRow(sym string, live *record.Trade) Row {
	return Row{
		Key:           fmt.Sprintf("%s__liveonly__%s", sym, candleKeyPart(live)),
		Live:          live,
		BackendStatus: record.StatusMissing,
		LiveStatus:    sideStatus(live),
		Issues:        []string{"Extra in live"},
	}
}

func sideStatus(t *record.Trade) record.Status {
	if t == nil {
		return record.StatusMissing
	}
	return t.Status()
}

func rowKey(sym string, backend, live *record.Trade) string {
	return fmt.Sprintf("%s__%s__%s", sym, candleKeyPart(backend), candleKeyPart(live))
}

func candleKeyPart(t *record.Trade) string {
	if t == nil || t.CandleTime == nil {
		return "na"
	}
	return t.CandleTime.UTC().Format(time.RFC3339)
}

// buildIssues 按固定顺序追加告警，顺序与阈值与仪表盘表格保持一致。
func buildIssues(row *Row, th Thresholds) []string {
	var issues []string
	if row.CandleDiffHours != nil && *row.CandleDiffHours > th.WindowHours {
		issues = append(issues, fmt.Sprintf("Candle gap %.1fh", *row.CandleDiffHours))
	}
	if row.FetcherDiff != nil && *row.FetcherDiff > th.LateFetchMinutes {
		issues = append(issues, fmt.Sprintf("Late fetch (%.1fm)", *row.FetcherDiff))
	}
	if row.PriceDeltaPct != nil && *row.PriceDeltaPct > th.PriceGapPct {
		issues = append(issues, fmt.Sprintf("Price gap %.1f%%", *row.PriceDeltaPct))
	}
	if row.BackendStatus == record.StatusClosed && row.LiveStatus == record.StatusRunning {
		issues = append(issues, "Backend closed, live running")
	}
	if row.BackendStatus == record.StatusRunning && row.LiveStatus == record.StatusClosed {
		issues = append(issues, "Backend running, live closed")
	}
	backendPL, livePL := sidePL(row.Backend), sidePL(row.Live)
	liveEarnedLess := backendPL != nil && livePL != nil && *livePL < *backendPL
	if row.CloseTimeDiff != nil && *row.CloseTimeDiff > th.CloseTimeGapMinutes && liveEarnedLess {
		issues = append(issues, fmt.Sprintf("Close time gap %.1fm and live earned less", *row.CloseTimeDiff))
	}
	if row.ClosePriceDelta != nil && *row.ClosePriceDelta > th.ClosePriceGapPct && liveEarnedLess {
		issues = append(issues, fmt.Sprintf("Close price gap %.1f%% with worse P/L", *row.ClosePriceDelta))
	}
	if row.InvestmentDeltaPct != nil && *row.InvestmentDeltaPct > th.InvestmentGapPct {
		issues = append(issues, fmt.Sprintf("Investment gap %.1f%%", *row.InvestmentDeltaPct))
	}
	return issues
}

func sidePL(t *record.Trade) *float64 {
	if t == nil {
		return nil
	}
	return t.PLAfterComm
}
