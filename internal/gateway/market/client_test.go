package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInterval(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "15m"},
		{"1", "1m"},
		{"5", "5m"},
		{"15", "15m"},
		{"60", "1h"},
		{"240", "4h"},
		{"D", "1d"},
		{"1d", "1d"},
		{"1D", "1d"},
		{"15m", "15m"},
		{"4H", "4h"},
		{"30", "30m"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeInterval(tc.in), "input %q", tc.in)
	}
}

func TestCandleCachePutGet(t *testing.T) {
	cache := NewCandleCache()
	require.NoError(t, cache.Put("BTCUSDT", "4h", []Candle{
		{OpenTime: 100, Close: 1},
		{OpenTime: 200, Close: 2},
		{OpenTime: 300, Close: 3},
	}, 100))

	got := cache.Get("BTCUSDT", "4h", 2)
	require.Len(t, got, 2)
	assert.Equal(t, int64(200), got[0].OpenTime)
	assert.Equal(t, int64(300), got[1].OpenTime)

	all := cache.Get("BTCUSDT", "4h", 0)
	assert.Len(t, all, 3)
}

func TestCandleCacheReplacesFormingBar(t *testing.T) {
	cache := NewCandleCache()
	require.NoError(t, cache.Put("ETHUSDT", "1h", []Candle{{OpenTime: 100, Close: 10}}, 100))
	// 同一 open time 的新数据覆盖尾部未收盘 K 线。
	require.NoError(t, cache.Put("ETHUSDT", "1h", []Candle{{OpenTime: 100, Close: 12}}, 100))

	got := cache.Get("ETHUSDT", "1h", 0)
	require.Len(t, got, 1)
	assert.Equal(t, 12.0, got[0].Close)
}

func TestCandleCacheOverlappingFetch(t *testing.T) {
	cache := NewCandleCache()
	mk := func(from, to int) []Candle {
		out := make([]Candle, 0, to-from+1)
		for i := from; i <= to; i++ {
			out = append(out, Candle{OpenTime: int64(i) * 60000, Close: float64(i)})
		}
		return out
	}
	// 大 limit 的请求会重新抓取与缓存重叠的区间。
	require.NoError(t, cache.Put("BTCUSDT", "1m", mk(1, 10), 300))
	require.NoError(t, cache.Put("BTCUSDT", "1m", mk(1, 20), 300))

	got := cache.Get("BTCUSDT", "1m", 25)
	require.Len(t, got, 20)
	seen := make(map[int64]bool, len(got))
	for i, candle := range got {
		assert.False(t, seen[candle.OpenTime], "open_time %d duplicated", candle.OpenTime)
		seen[candle.OpenTime] = true
		if i > 0 {
			assert.Greater(t, candle.OpenTime, got[i-1].OpenTime)
		}
	}
}

func TestCandleCacheFreshDataWinsOverlap(t *testing.T) {
	cache := NewCandleCache()
	require.NoError(t, cache.Put("ETHUSDT", "4h", []Candle{
		{OpenTime: 100, Close: 1},
		{OpenTime: 200, Close: 2},
		{OpenTime: 300, Close: 3},
	}, 300))
	require.NoError(t, cache.Put("ETHUSDT", "4h", []Candle{
		{OpenTime: 200, Close: 20},
		{OpenTime: 300, Close: 30},
		{OpenTime: 400, Close: 40},
	}, 300))

	got := cache.Get("ETHUSDT", "4h", 0)
	require.Len(t, got, 4)
	assert.Equal(t, 1.0, got[0].Close)
	assert.Equal(t, 20.0, got[1].Close)
	assert.Equal(t, 30.0, got[2].Close)
	assert.Equal(t, 40.0, got[3].Close)
}

func TestCandleCacheTrimsToMax(t *testing.T) {
	cache := NewCandleCache()
	ks := make([]Candle, 10)
	for i := range ks {
		ks[i] = Candle{OpenTime: int64(i + 1)}
	}
	require.NoError(t, cache.Put("BTCUSDT", "15m", ks, 4))

	got := cache.Get("BTCUSDT", "15m", 0)
	require.Len(t, got, 4)
	assert.Equal(t, int64(7), got[0].OpenTime)
	assert.Equal(t, int64(10), got[3].OpenTime)
}

func TestCandleCacheRejectsEmptyKey(t *testing.T) {
	cache := NewCandleCache()
	assert.Error(t, cache.Put("", "1h", []Candle{{OpenTime: 1}}, 10))
	assert.Error(t, cache.Put("BTCUSDT", "", []Candle{{OpenTime: 1}}, 10))
	assert.Nil(t, cache.Get("MISSING", "1h", 10))
}
