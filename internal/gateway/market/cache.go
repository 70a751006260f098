package market

import (
	"errors"
	"sort"
	"sync"
)

// CandleCache 按 symbol@interval 分片缓存最近的 K 线, 减少对上游的重复代理请求。
type CandleCache struct {
	shards []candleShard
}

type candleShard struct {
	mu   sync.RWMutex
	data map[string][]Candle
}

const defaultShardCount = 32

func NewCandleCache() *CandleCache {
	shards := make([]candleShard, defaultShardCount)
	for i := range shards {
		shards[i] = candleShard{data: make(map[string][]Candle)}
	}
	return &CandleCache{shards: shards}
}

func cacheKey(symbol, interval string) string { return symbol + "@" + interval }

func (c *CandleCache) shardFor(key string) *candleShard {
	idx := hashKey(key) % uint32(len(c.shards))
	return &c.shards[idx]
}

// Put merges fresh candles into the cached series, keyed by open time.
// Fetched ranges may overlap the cached window (a larger-limit request
// re-fetches history), so cached bars from the first fetched open time on
// are replaced by the fresh batch. Both series stay ascending.
func (c *CandleCache) Put(symbol, interval string, ks []Candle, max int) error {
	if symbol == "" || interval == "" {
		return errors.New("symbol/interval 不能为空")
	}
	if len(ks) == 0 {
		return nil
	}
	if max <= 0 {
		max = 100
	}
	k := cacheKey(symbol, interval)
	sh := c.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	cur := sh.data[k]
	if n := len(cur); n > 0 {
		first := ks[0].OpenTime
		cut := sort.Search(n, func(i int) bool { return cur[i].OpenTime >= first })
		cur = cur[:cut]
	}
	cur = append(cur, ks...)
	if len(cur) > max {
		cur = cur[len(cur)-max:]
	}
	sh.data[k] = cur
	return nil
}

// Get returns up to limit cached candles, newest at the end. limit <= 0
// returns the whole cached series.
func (c *CandleCache) Get(symbol, interval string, limit int) []Candle {
	k := cacheKey(symbol, interval)
	sh := c.shardFor(k)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	cur := sh.data[k]
	if len(cur) == 0 {
		return nil
	}
	if limit <= 0 || limit > len(cur) {
		limit = len(cur)
	}
	out := make([]Candle, limit)
	copy(out, cur[len(cur)-limit:])
	return out
}

func hashKey(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	var h uint32 = offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
