package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"labdash/internal/store"
	"labdash/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	store.Store

	trades    []json.RawMessage
	machines  []model.MachineModel
	tradesErr error
}

func (s *stubStore) ListTrades(ctx context.Context, limit int) ([]json.RawMessage, error) {
	return s.trades, s.tradesErr
}

func (s *stubStore) ListMachines(ctx context.Context) ([]model.MachineModel, error) {
	return s.machines, nil
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	st := &stubStore{
		trades: []json.RawMessage{
			json.RawMessage(`{"pair":"ethusdt","machineid":"9"}`),
			json.RawMessage(`{"pair":"BTCUSDT","machineid":"2"}`),
		},
		machines: []model.MachineModel{
			{MachineID: "2", Active: true},
			{MachineID: "9", Active: true},
		},
	}
	svc := New(st, 100)
	assert.True(t, svc.LastRefresh().IsZero())

	require.NoError(t, svc.Refresh(context.Background()))

	trades := svc.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, "ETHUSDT", trades[0].NormalizedSymbol())
	assert.Equal(t, []string{"2", "9"}, svc.MachineIDs())
	assert.False(t, svc.LastRefresh().IsZero())
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	st := &stubStore{
		trades:   []json.RawMessage{json.RawMessage(`{"pair":"ETHUSDT","machineid":"9"}`)},
		machines: []model.MachineModel{{MachineID: "9", Active: true}},
	}
	svc := New(st, 100)
	require.NoError(t, svc.Refresh(context.Background()))
	last := svc.LastRefresh()

	st.tradesErr = errors.New("db locked")
	require.Error(t, svc.Refresh(context.Background()))

	// 失败的刷新不丢弃已有快照。
	assert.Len(t, svc.Trades(), 1)
	assert.Equal(t, last, svc.LastRefresh())
}

func TestRefreshWithoutStore(t *testing.T) {
	svc := New(nil, 0)
	assert.Error(t, svc.Refresh(context.Background()))
}
