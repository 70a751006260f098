package compare

import (
	"testing"

	"labdash/internal/drawdown"
	"labdash/internal/record"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeCounts(t *testing.T) {
	f := false
	rows := []Row{
		{Key: "r1", Backend: &record.Trade{}, Live: &record.Trade{},
			FetcherDiff:   fptr(9),
			PriceDeltaPct: fptr(20),
			BackendStatus: record.StatusClosed, LiveStatus: record.StatusRunning},
		{Key: "r2", Backend: &record.Trade{}}, // backend missing on live side
		{Key: "r3", Live: &record.Trade{}},    // extra in live
		{Key: "r4", Backend: &record.Trade{}, Live: &record.Trade{},
			CloseTimeDiff: fptr(30), ClosePriceDelta: fptr(18),
			BackendStatus: record.StatusClosed, LiveStatus: record.StatusClosed},
	}
	details := map[string]drawdown.Entry{
		"r1": {State: drawdown.StateLoaded, Result: &drawdown.Result{
			Issue:        &drawdown.Issue{DropPct: 40, Peak: 50},
			EverPositive: &f,
		}},
		"r4": {State: drawdown.StateFailed, Error: "fetch failed"},
	}

	s := Summarize(rows, Thresholds{}, details)
	assert.Equal(t, 1, s.BackendMissing)
	assert.Equal(t, 1, s.LiveExtra)
	assert.Equal(t, 1, s.LateFetch)
	assert.Equal(t, 1, s.PriceGap)
	assert.Equal(t, 1, s.ClosureMismatch)
	assert.Equal(t, 1, s.ClosureGap)
	assert.Equal(t, 1, s.PLDrop)
	assert.Equal(t, 1, s.NeverProfit)
	assert.Equal(t, 2, s.Scanned)
	assert.Equal(t, 3, s.TotalBackend)
	assert.Equal(t, 3, s.TotalLive)
}

func TestSummarizeThresholdBoundaryNotCounted(t *testing.T) {
	// 阈值本身不算超限,必须严格大于。
	rows := []Row{
		{Key: "edge", Backend: &record.Trade{}, Live: &record.Trade{},
			FetcherDiff: fptr(5), PriceDeltaPct: fptr(15)},
	}
	s := Summarize(rows, Thresholds{}, nil)
	assert.Equal(t, 0, s.LateFetch)
	assert.Equal(t, 0, s.PriceGap)
}

func TestSumCloseDeltas(t *testing.T) {
	rows := []Row{
		{BackendStatus: record.StatusClosed, LiveStatus: record.StatusClosed,
			Backend: &record.Trade{PLAfterComm: fptr(10)},
			Live:    &record.Trade{PLAfterComm: fptr(16.5)}},
		{BackendStatus: record.StatusClosed, LiveStatus: record.StatusClosed,
			Backend: &record.Trade{PLAfterComm: fptr(8)},
			Live:    &record.Trade{PLAfterComm: fptr(5.2)}},
		// 任一侧未平仓的行不参与。
		{BackendStatus: record.StatusClosed, LiveStatus: record.StatusRunning,
			Backend: &record.Trade{PLAfterComm: fptr(100)},
			Live:    &record.Trade{PLAfterComm: fptr(1)}},
	}
	totals := SumCloseDeltas(rows)
	assert.InDelta(t, 6.5, totals.Profit, 1e-12)
	assert.InDelta(t, 2.8, totals.Loss, 1e-12)
	assert.InDelta(t, 3.7, totals.Net, 1e-12)
}

func TestSumCloseDeltasSkipsMissingPL(t *testing.T) {
	rows := []Row{
		{BackendStatus: record.StatusClosed, LiveStatus: record.StatusClosed,
			Backend: &record.Trade{},
			Live:    &record.Trade{PLAfterComm: fptr(9)}},
	}
	totals := SumCloseDeltas(rows)
	assert.Zero(t, totals.Profit)
	assert.Zero(t, totals.Loss)
	assert.Zero(t, totals.Net)
}
