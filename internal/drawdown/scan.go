// Package drawdown detects the profit-then-drawdown pattern in a trade's
// bot-event-log PL series and caches verdicts per comparison-row key.
package drawdown

import (
	"sort"
	"time"

	"labdash/internal/record"
)

const (
	// profitFloor: PL 超过该值后才开始跟踪峰值回撤。
	defaultProfitFloor = 20
	// dropThresholdPct: 相对峰值回撤超过该百分比即记为 issue。
	defaultDropThresholdPct = 20
)

// Issue 记录一次从峰值的超阈值回撤。
type Issue struct {
	DropPct float64    `json:"drop_pct"`
	Peak    float64    `json:"peak"`
	At      *time.Time `json:"at,omitempty"`
	Value   float64    `json:"value"`
}

// Recovered 标记回撤后创出的新高。
type Recovered struct {
	Peak float64    `json:"peak"`
	At   *time.Time `json:"at,omitempty"`
}

// Result 是对单条日志序列的完整判定。
type Result struct {
	Issue        *Issue            `json:"issue,omitempty"`
	Recovered    *Recovered        `json:"recovered,omitempty"`
	EverPositive *bool             `json:"ever_positive,omitempty"`
	Entries      []record.LogEntry `json:"entries,omitempty"`
}

// Options 允许调低/调高利润门槛与回撤阈值，零值使用默认。
type Options struct {
	ProfitFloor      float64
	DropThresholdPct float64
}

func (o Options) withDefaults() Options {
	if o.ProfitFloor <= 0 {
		o.ProfitFloor = defaultProfitFloor
	}
	if o.DropThresholdPct <= 0 {
		o.DropThresholdPct = defaultDropThresholdPct
	}
	return o
}

// Scan 对日志做单次正向扫描：按时间升序排列，PL 首次越过利润门槛后开始
// 跟踪峰值；新高清除旧 issue 并记录 recovered；回撤超阈值且当前无 issue
// 时记录 issue 并清除 recovered。PL 不可解析的条目只参与排序。
func Scan(entries []record.LogEntry, opts Options) Result {
	opts = opts.withDefaults()

	sorted := make([]record.LogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Timestamp, sorted[j].Timestamp
		if a == nil || b == nil {
			return false
		}
		return a.Before(*b)
	})

	res := Result{Entries: sorted}
	crossed := false
	var peak float64
	var peakAt *time.Time

	for _, entry := range sorted {
		if entry.PL == nil {
			continue
		}
		pl := *entry.PL
		if res.EverPositive == nil {
			f := false
			res.EverPositive = &f
		}
		if pl > 0 {
			t := true
			res.EverPositive = &t
		}
		if !crossed {
			if pl > opts.ProfitFloor {
				crossed = true
				peak = pl
				peakAt = entry.Timestamp
			}
			continue
		}

		if pl > peak {
			peak = pl
			peakAt = entry.Timestamp
			res.Issue = nil
			res.Recovered = &Recovered{Peak: peak, At: peakAt}
			continue
		}

		dropPct := 0.0
		if peak != 0 {
			dropPct = (peak - pl) / peak * 100
		}
		if res.Issue == nil && dropPct > opts.DropThresholdPct {
			res.Issue = &Issue{DropPct: dropPct, Peak: peak, At: entry.Timestamp, Value: pl}
			res.Recovered = nil
		}
	}
	return res
}
