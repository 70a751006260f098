package gormstore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"labdash/internal/store"
	"labdash/internal/store/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestNewStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewStore("  ")
	assert.Error(t, err)
}

func TestTradesRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rows := []json.RawMessage{
		json.RawMessage(`{"pair":"ETHUSDT","machineid":"9","candel_time":"2026-05-01 12:00:00"}`),
		json.RawMessage(`{"pair":"BTCUSDT","machineid":"2"}`),
	}
	require.NoError(t, st.InsertTrades(ctx, rows))

	got, err := st.ListTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, raw := range got {
		assert.True(t, json.Valid(raw))
	}
}

func TestListTradesHonorsLimit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, st.InsertTrades(ctx, []json.RawMessage{
			json.RawMessage(`{"pair":"ETHUSDT","machineid":"9"}`),
		}))
	}
	got, err := st.ListTrades(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestUpsertMachine(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertMachine(ctx, model.MachineModel{MachineID: "9", Active: true}))
	require.NoError(t, st.UpsertMachine(ctx, model.MachineModel{MachineID: "2", Active: true}))
	// 同一 machineid 再次写入只更新,不新增。
	require.NoError(t, st.UpsertMachine(ctx, model.MachineModel{MachineID: "9", Active: false}))

	machines, err := st.ListMachines(ctx)
	require.NoError(t, err)
	require.Len(t, machines, 2)
	assert.Equal(t, "2", machines[0].MachineID)
	assert.Equal(t, "9", machines[1].MachineID)
	assert.False(t, machines[1].Active)

	assert.Error(t, st.UpsertMachine(ctx, model.MachineModel{}))
}

func seedEventLogs(t *testing.T, st *GormStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.BotEventLogModel{
		{UID: "u-1", Source: "fetcher", MachineID: "9", Timestamp: base.Add(1 * time.Hour)},
		{UID: "u-1", Source: "operator", MachineID: "9", Timestamp: base.Add(2 * time.Hour)},
		{UID: "u-2", Source: "operator-close", MachineID: "2", Timestamp: base.Add(26 * time.Hour)},
	}
	for i := range rows {
		require.NoError(t, st.InsertBotEventLog(ctx, &rows[i]))
	}
}

func TestListBotEventLogsFilters(t *testing.T) {
	st := newTestStore(t)
	seedEventLogs(t, st)
	ctx := context.Background()

	logs, total, err := st.ListBotEventLogs(ctx, store.EventLogQuery{UID: "u-1", All: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)

	// source 使用模糊匹配。
	logs, total, err = st.ListBotEventLogs(ctx, store.EventLogQuery{Source: "operator", All: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	logs, _, err = st.ListBotEventLogs(ctx, store.EventLogQuery{MachineID: "2", All: true})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "u-2", logs[0].UID)

	from := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	logs, _, err = st.ListBotEventLogs(ctx, store.EventLogQuery{From: &from, All: true})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "u-2", logs[0].UID)
}

func TestListBotEventLogsSortAndPage(t *testing.T) {
	st := newTestStore(t)
	seedEventLogs(t, st)
	ctx := context.Background()

	// 默认按 timestamp 倒序。
	logs, total, err := st.ListBotEventLogs(ctx, store.EventLogQuery{All: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, logs, 3)
	assert.Equal(t, "u-2", logs[0].UID)

	// 白名单之外的 sort key 回落到 timestamp。
	asc, _, err := st.ListBotEventLogs(ctx, store.EventLogQuery{
		SortKey: "timestamp; DROP TABLE bot_event_log", SortAscending: true, All: true,
	})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, "u-2", asc[2].UID)

	page, total, err := st.ListBotEventLogs(ctx, store.EventLogQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)
}

func TestSignalLogsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.InsertSignalLog(ctx, &model.SignalLogModel{Symbol: "ETHUSDT", Interval: "4h", Status: "ok"}))
	require.NoError(t, st.InsertSignalLog(ctx, &model.SignalLogModel{Symbol: "BTCUSDT", Interval: "1h", Status: "ok"}))

	logs, err := st.ListSignalLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].CreatedAt.IsZero())
}
