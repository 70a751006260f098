package drawdown

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"labdash/internal/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedEntries(pl float64) []record.LogEntry {
	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return []record.LogEntry{{Timestamp: &ts, PL: &pl}}
}

func TestScannerCachesResult(t *testing.T) {
	var calls int32
	fetch := func(ctx context.Context, uid string) ([]record.LogEntry, error) {
		atomic.AddInt32(&calls, 1)
		return fixedEntries(12), nil
	}
	s := NewScanner(fetch, Options{})

	entry := s.Scan(context.Background(), "row1", "uid-1")
	assert.Equal(t, StateLoaded, entry.State)
	require.NotNil(t, entry.Result)

	s.Scan(context.Background(), "row1", "uid-1")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestScannerSingleFlight(t *testing.T) {
	var calls int32
	gate := make(chan struct{})
	fetch := func(ctx context.Context, uid string) ([]record.LogEntry, error) {
		atomic.AddInt32(&calls, 1)
		<-gate
		return fixedEntries(30), nil
	}
	s := NewScanner(fetch, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := s.Scan(context.Background(), "shared", "uid-7")
			assert.Equal(t, StateLoaded, entry.State)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestScannerFailureIsPerKey(t *testing.T) {
	fetch := func(ctx context.Context, uid string) ([]record.LogEntry, error) {
		if uid == "bad" {
			return nil, errors.New("upstream 500")
		}
		return fixedEntries(5), nil
	}
	s := NewScanner(fetch, Options{})

	failed := s.Scan(context.Background(), "k1", "bad")
	assert.Equal(t, StateFailed, failed.State)
	assert.Equal(t, "upstream 500", failed.Error)
	assert.Nil(t, failed.Result)

	ok := s.Scan(context.Background(), "k2", "good")
	assert.Equal(t, StateLoaded, ok.State)
}

func TestScannerMissingUID(t *testing.T) {
	s := NewScanner(func(ctx context.Context, uid string) ([]record.LogEntry, error) {
		t.Fatal("fetch should not run without uid")
		return nil, nil
	}, Options{})

	entry := s.Scan(context.Background(), "k", "")
	assert.Equal(t, StateFailed, entry.State)
	assert.Equal(t, "no uid on live trade", entry.Error)
}

func TestScannerRetriesAfterFailure(t *testing.T) {
	var calls int32
	fetch := func(ctx context.Context, uid string) ([]record.LogEntry, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("db locked")
		}
		return fixedEntries(12), nil
	}
	s := NewScanner(fetch, Options{})

	failed := s.Scan(context.Background(), "k", "u")
	assert.Equal(t, StateFailed, failed.State)
	// 失败的判定留在快照里,但要在下一轮扫描时重试。
	cached, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, StateFailed, cached.State)

	retried := s.Scan(context.Background(), "k", "u")
	assert.Equal(t, StateLoaded, retried.State)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestScannerDoesNotCacheCancellation(t *testing.T) {
	fetch := func(ctx context.Context, uid string) ([]record.LogEntry, error) {
		return nil, ctx.Err()
	}
	s := NewScanner(fetch, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	entry := s.Scan(ctx, "k", "u")
	assert.Equal(t, StateFailed, entry.State)

	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestScannerResetClearsCache(t *testing.T) {
	var calls int32
	s := NewScanner(func(ctx context.Context, uid string) ([]record.LogEntry, error) {
		atomic.AddInt32(&calls, 1)
		return fixedEntries(8), nil
	}, Options{})

	s.Scan(context.Background(), "k", "u")
	s.Reset()
	_, ok := s.Get("k")
	assert.False(t, ok)

	s.Scan(context.Background(), "k", "u")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestScannerResultOnlyForLoaded(t *testing.T) {
	s := NewScanner(func(ctx context.Context, uid string) ([]record.LogEntry, error) {
		return nil, errors.New("boom")
	}, Options{})

	assert.Nil(t, s.Result("unknown"))
	s.Scan(context.Background(), "k", "u")
	assert.Nil(t, s.Result("k"))
}

func TestScannerSnapshotIsCopy(t *testing.T) {
	s := NewScanner(func(ctx context.Context, uid string) ([]record.LogEntry, error) {
		return fixedEntries(3), nil
	}, Options{})
	s.Scan(context.Background(), "k", "u")

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	delete(snap, "k")
	_, ok := s.Get("k")
	assert.True(t, ok)
}
