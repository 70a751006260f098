package store

import (
	"context"
	"encoding/json"
	"time"

	"labdash/internal/store/model"
)

// EventLogQuery carries the filter, sort and pagination options for
// bot_event_log reads. Zero values mean "no filter".
type EventLogQuery struct {
	UID       string
	Source    string
	MachineID string
	From      *time.Time
	To        *time.Time

	SortKey       string
	SortAscending bool

	Page  int
	Limit int
	All   bool
}

// Store is the entry point for dashboard database access.
type Store interface {
	// ListTrades returns the newest trade payloads, most recent first.
	ListTrades(ctx context.Context, limit int) ([]json.RawMessage, error)
	// InsertTrades persists raw trade payloads as received.
	InsertTrades(ctx context.Context, rows []json.RawMessage) error

	ListMachines(ctx context.Context) ([]model.MachineModel, error)
	UpsertMachine(ctx context.Context, m model.MachineModel) error

	// ListBotEventLogs returns a page of event logs plus the unpaged total.
	ListBotEventLogs(ctx context.Context, q EventLogQuery) ([]model.BotEventLogModel, int64, error)
	InsertBotEventLog(ctx context.Context, log *model.BotEventLogModel) error

	ListSignalLogs(ctx context.Context, limit int) ([]model.SignalLogModel, error)
	InsertSignalLog(ctx context.Context, log *model.SignalLogModel) error

	// Close closes the store connection.
	Close() error
}
