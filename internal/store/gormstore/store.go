package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"labdash/internal/record"
	"labdash/internal/store"
	"labdash/internal/store/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	// 纯 Go 的 sqlite 驱动, _pragma DSN 语法依赖它。
	_ "modernc.org/sqlite"
)

// eventLogSortKeys mirrors the whitelist the dashboard exposes. Anything else
// falls back to timestamp.
var eventLogSortKeys = map[string]bool{
	"id":            true,
	"uid":           true,
	"source":        true,
	"pl_after_comm": true,
	"plain_message": true,
	"timestamp":     true,
	"machine_id":    true,
}

// GormStore implements store.Store using Gorm + SQLite.
type GormStore struct {
	db *gorm.DB
}

var _ store.Store = (*GormStore)(nil)

// NewStore 初始化仪表盘数据库连接。
func NewStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: 数据库路径不能为空")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	models := []interface{}{
		&model.TradeRecordModel{},
		&model.MachineModel{},
		&model.BotEventLogModel{},
		&model.SignalLogModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP reads
	// while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GormDB exposes the underlying *gorm.DB (read-only reference).
func (s *GormStore) GormDB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// --------------------- Trades -------------------------

func (s *GormStore) ListTrades(ctx context.Context, limit int) ([]json.RawMessage, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	q := s.db.WithContext(ctx).Model(&model.TradeRecordModel{}).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.TradeRecordModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list trades failed: %w", err)
	}
	out := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		if len(row.Payload) == 0 {
			continue
		}
		out = append(out, json.RawMessage(row.Payload))
	}
	return out, nil
}

func (s *GormStore) InsertTrades(ctx context.Context, rows []json.RawMessage) error {
	if s == nil || s.db == nil || len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]model.TradeRecordModel, 0, len(rows))
	for _, raw := range rows {
		if len(raw) == 0 {
			continue
		}
		trade := record.ParseTrade(raw)
		m := model.TradeRecordModel{
			MachineID: trade.MachineID,
			Symbol:    trade.NormalizedSymbol(),
			Payload:   datatypes.JSON(raw),
			CreatedAt: now,
		}
		if trade.CandleTime != nil {
			unix := trade.CandleTime.Unix()
			m.CandleUnix = &unix
		}
		models = append(models, m)
	}
	if len(models) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("insert trades failed: %w", err)
	}
	return nil
}

// --------------------- Machines -------------------------

func (s *GormStore) ListMachines(ctx context.Context) ([]model.MachineModel, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	var rows []model.MachineModel
	err := s.db.WithContext(ctx).
		Order("machineid ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list machines failed: %w", err)
	}
	return rows, nil
}

func (s *GormStore) UpsertMachine(ctx context.Context, m model.MachineModel) error {
	if s == nil || s.db == nil {
		return nil
	}
	if strings.TrimSpace(m.MachineID) == "" {
		return fmt.Errorf("upsert machine: machineid cannot be empty")
	}
	m.UpdatedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "machineid"}},
		DoUpdates: clause.AssignmentColumns([]string{"active", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("upsert machine failed: %w", err)
	}
	return nil
}

// --------------------- Bot event logs -------------------------

func (s *GormStore) ListBotEventLogs(ctx context.Context, q store.EventLogQuery) ([]model.BotEventLogModel, int64, error) {
	if s == nil || s.db == nil {
		return nil, 0, fmt.Errorf("gorm store 未初始化")
	}
	base := s.db.WithContext(ctx).Model(&model.BotEventLogModel{})
	if q.UID != "" {
		base = base.Where("uid = ?", q.UID)
	}
	if q.Source != "" {
		base = base.Where("source LIKE ?", "%"+q.Source+"%")
	}
	if q.MachineID != "" {
		base = base.Where("machine_id = ?", q.MachineID)
	}
	if q.From != nil {
		base = base.Where("timestamp >= ?", q.From.UTC())
	}
	if q.To != nil {
		base = base.Where("timestamp <= ?", q.To.UTC())
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count event logs failed: %w", err)
	}

	sortKey := q.SortKey
	if !eventLogSortKeys[sortKey] {
		sortKey = "timestamp"
	}
	direction := "DESC"
	if q.SortAscending {
		direction = "ASC"
	}
	query := base.Order(fmt.Sprintf("%s %s", sortKey, direction))
	if !q.All {
		limit := q.Limit
		if limit <= 0 {
			limit = 50
		}
		page := q.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(limit).Offset((page - 1) * limit)
	}
	var rows []model.BotEventLogModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list event logs failed: %w", err)
	}
	return rows, total, nil
}

func (s *GormStore) InsertBotEventLog(ctx context.Context, log *model.BotEventLogModel) error {
	if s == nil || s.db == nil || log == nil {
		return nil
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("insert event log failed: %w", err)
	}
	return nil
}

// --------------------- Signal logs -------------------------

func (s *GormStore) ListSignalLogs(ctx context.Context, limit int) ([]model.SignalLogModel, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.SignalLogModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list signal logs failed: %w", err)
	}
	return rows, nil
}

func (s *GormStore) InsertSignalLog(ctx context.Context, log *model.SignalLogModel) error {
	if s == nil || s.db == nil || log == nil {
		return nil
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("insert signal log failed: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir failed: %w", err)
	}
	return nil
}
