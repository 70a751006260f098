package compare

import (
	"math"
	"time"
)

const epsilon = 1e-9

// minutesDiff 返回两个时间戳的绝对分钟差，任一为空则不可用。
func minutesDiff(a, b *time.Time) *float64 {
	if a == nil || b == nil {
		return nil
	}
	m := math.Abs(a.Sub(*b).Minutes())
	return &m
}

func hoursDiff(a, b *time.Time) *float64 {
	if a == nil || b == nil {
		return nil
	}
	h := math.Abs(a.Sub(*b).Hours())
	return &h
}

// percentDiff 是对称的百分比差：分母取两侧绝对值的较大者（下限 ε 防零除）。
func percentDiff(base, compare *float64) *float64 {
	if base == nil || compare == nil {
		return nil
	}
	denom := math.Max(math.Abs(*base), math.Max(math.Abs(*compare), epsilon))
	pct := math.Abs((*compare-*base)/denom) * 100
	return &pct
}

// avgPercentDiff uses the mean of both magnitudes as denominator; the close
// price comparison historically used this softer normalization.
func avgPercentDiff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	denom := (math.Abs(*a) + math.Abs(*b)) / 2
	if denom == 0 {
		denom = epsilon
	}
	pct := math.Abs(*a-*b) / denom * 100
	return &pct
}
