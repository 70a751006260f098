package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentDiffSymmetry(t *testing.T) {
	a, b := fptr(100), fptr(117)
	ab := percentDiff(a, b)
	ba := percentDiff(b, a)
	require.NotNil(t, ab)
	require.NotNil(t, ba)
	assert.Equal(t, *ab, *ba)
}

func TestPercentDiffZeroDenominator(t *testing.T) {
	// 两侧均为 0 时分母回落到 ε,结果为 0 而不是 NaN。
	got := percentDiff(fptr(0), fptr(0))
	require.NotNil(t, got)
	assert.Zero(t, *got)
}

func TestPercentDiffNilOnMissingSide(t *testing.T) {
	assert.Nil(t, percentDiff(nil, fptr(1)))
	assert.Nil(t, percentDiff(fptr(1), nil))
}

func TestAvgPercentDiff(t *testing.T) {
	// |110-90| / ((110+90)/2) * 100 = 20
	got := avgPercentDiff(fptr(110), fptr(90))
	require.NotNil(t, got)
	assert.InDelta(t, 20.0, *got, 1e-9)
}

func TestTimeDiffs(t *testing.T) {
	a := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	b := a.Add(90 * time.Minute)

	m := minutesDiff(&a, &b)
	require.NotNil(t, m)
	assert.InDelta(t, 90.0, *m, 1e-9)

	h := hoursDiff(&b, &a)
	require.NotNil(t, h)
	assert.InDelta(t, 1.5, *h, 1e-9)

	assert.Nil(t, minutesDiff(nil, &b))
	assert.Nil(t, hoursDiff(&a, nil))
}
