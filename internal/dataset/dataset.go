// Package dataset 维护对账所需的内存快照(交易记录与机器清单),
// 由后台刷新循环定期从存储重建。
package dataset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"labdash/internal/logger"
	"labdash/internal/record"
	"labdash/internal/store"
)

type Service struct {
	store store.Store
	limit int

	mu          sync.RWMutex
	trades      []record.Trade
	machines    []record.Machine
	lastRefresh time.Time
}

func New(st store.Store, tradeLimit int) *Service {
	if tradeLimit <= 0 {
		tradeLimit = 1000
	}
	return &Service{store: st, limit: tradeLimit}
}

// Refresh rebuilds the snapshot from storage. A partial failure leaves the
// previous snapshot in place.
func (s *Service) Refresh(ctx context.Context) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("dataset 未初始化")
	}
	raws, err := s.store.ListTrades(ctx, s.limit)
	if err != nil {
		return fmt.Errorf("refresh trades failed: %w", err)
	}
	models, err := s.store.ListMachines(ctx)
	if err != nil {
		return fmt.Errorf("refresh machines failed: %w", err)
	}
	trades := record.ParseTrades(raws)
	machines := make([]record.Machine, 0, len(models))
	for _, m := range models {
		machines = append(machines, record.Machine{MachineID: m.MachineID, Active: m.Active})
	}

	s.mu.Lock()
	s.trades = trades
	s.machines = machines
	s.lastRefresh = time.Now().UTC()
	s.mu.Unlock()
	logger.Debugf("[dataset] snapshot refreshed trades=%d machines=%d", len(trades), len(machines))
	return nil
}

// Trades returns the current snapshot. Callers must not mutate the slice.
func (s *Service) Trades() []record.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trades
}

func (s *Service) Machines() []record.Machine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.machines
}

// MachineIDs returns the known machine ids in snapshot order.
func (s *Service) MachineIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.machines))
	for _, m := range s.machines {
		out = append(out, m.MachineID)
	}
	return out
}

func (s *Service) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}
