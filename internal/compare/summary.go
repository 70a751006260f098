package compare

import (
	"labdash/internal/drawdown"
	"labdash/internal/record"

	"github.com/shopspring/decimal"
)

// Summary 汇总概览卡片所需的计数。
type Summary struct {
	BackendMissing  int `json:"backend_missing"`
	LiveExtra       int `json:"live_extra"`
	LateFetch       int `json:"late_fetch"`
	PriceGap        int `json:"price_gap"`
	ClosureMismatch int `json:"closure_mismatch"`
	ClosureGap      int `json:"closure_gap"`
	PLDrop          int `json:"pl_drop"`
	NeverProfit     int `json:"never_profit"`
	Scanned         int `json:"scanned"`
	TotalBackend    int `json:"total_backend"`
	TotalLive       int `json:"total_live"`
}

// Summarize 统计全量行的各项计数。TotalBackend/TotalLive 是参与对账的
// 原始记录数（非行数），与表格底部的总数卡片一致。
func Summarize(rows []Row, th Thresholds, details map[string]drawdown.Entry) Summary {
	th = th.withDefaults()
	var s Summary
	for i := range rows {
		row := &rows[i]
		if row.Live == nil {
			s.BackendMissing++
		}
		if row.Backend == nil {
			s.LiveExtra++
		} else {
			s.TotalBackend++
		}
		if row.Live != nil {
			s.TotalLive++
		}
		if row.FetcherDiff != nil && *row.FetcherDiff > th.LateFetchMinutes {
			s.LateFetch++
		}
		if row.PriceDeltaPct != nil && *row.PriceDeltaPct > th.PriceGapPct {
			s.PriceGap++
		}
		if closureMismatch(row) {
			s.ClosureMismatch++
		}
		if row.CloseTimeDiff != nil && *row.CloseTimeDiff > th.CloseTimeGapMinutes &&
			row.ClosePriceDelta != nil && *row.ClosePriceDelta > th.ClosePriceGapPct {
			s.ClosureGap++
		}
		entry, ok := details[row.Key]
		if !ok {
			continue
		}
		if entry.State == drawdown.StateLoaded || entry.State == drawdown.StateFailed {
			s.Scanned++
		}
		if entry.Result != nil {
			if entry.Result.Issue != nil {
				s.PLDrop++
			}
			if entry.Result.EverPositive != nil && !*entry.Result.EverPositive {
				s.NeverProfit++
			}
		}
	}
	return s
}

// CloseDeltaTotals 汇总两侧均已平仓行的 PL 差额（live − backend）。
// 正差进 profit，负差的绝对值进 loss，net = profit − loss。
type CloseDeltaTotals struct {
	Profit float64 `json:"profit"`
	Loss   float64 `json:"loss"`
	Net    float64 `json:"net"`
}

// SumCloseDeltas 用 decimal 逐行累加，避免长序列浮点漂移。
func SumCloseDeltas(rows []Row) CloseDeltaTotals {
	profit := decimal.Zero
	loss := decimal.Zero
	for i := range rows {
		row := &rows[i]
		if row.BackendStatus != record.StatusClosed || row.LiveStatus != record.StatusClosed {
			continue
		}
		backendPL, livePL := sidePL(row.Backend), sidePL(row.Live)
		if backendPL == nil || livePL == nil {
			continue
		}
		diff := decimal.NewFromFloat(*livePL).Sub(decimal.NewFromFloat(*backendPL))
		switch diff.Sign() {
		case 1:
			profit = profit.Add(diff)
		case -1:
			loss = loss.Add(diff.Abs())
		}
	}
	net := profit.Sub(loss)
	return CloseDeltaTotals{
		Profit: profit.InexactFloat64(),
		Loss:   loss.InexactFloat64(),
		Net:    net.InexactFloat64(),
	}
}
