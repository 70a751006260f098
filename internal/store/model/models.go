package model

import (
	"time"

	"gorm.io/datatypes"
)

// TradeRecordModel 对应 alltraderecords 表。原始行以 JSON payload 形式保留,
// 字段拼写不做规范化,读取侧由 record 适配层统一。
type TradeRecordModel struct {
	ID         int64          `gorm:"column:id;primaryKey"`
	MachineID  string         `gorm:"column:machine_id;index"`
	Symbol     string         `gorm:"column:symbol;index"`
	CandleUnix *int64         `gorm:"column:candle_unix;index"`
	Payload    datatypes.JSON `gorm:"column:payload;type:TEXT"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
}

func (TradeRecordModel) TableName() string { return "alltraderecords" }

type MachineModel struct {
	MachineID string    `gorm:"column:machineid;primaryKey"`
	Active    bool      `gorm:"column:active"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (MachineModel) TableName() string { return "machines" }

// BotEventLogModel 对应 bot_event_log 表, json_message 保留原始事件负载。
type BotEventLogModel struct {
	ID           int64          `gorm:"column:id;primaryKey"`
	UID          string         `gorm:"column:uid;index"`
	Source       string         `gorm:"column:source"`
	PLAfterComm  *float64       `gorm:"column:pl_after_comm"`
	PlainMessage string         `gorm:"column:plain_message"`
	JSONMessage  datatypes.JSON `gorm:"column:json_message;type:TEXT"`
	Timestamp    time.Time      `gorm:"column:timestamp;index"`
	MachineID    string         `gorm:"column:machine_id;index"`
}

func (BotEventLogModel) TableName() string { return "bot_event_log" }

type SignalLogModel struct {
	ID        int64          `gorm:"column:id;primaryKey"`
	Symbol    string         `gorm:"column:symbol;index"`
	Interval  string         `gorm:"column:interval"`
	Status    string         `gorm:"column:status"`
	Detail    datatypes.JSON `gorm:"column:detail;type:TEXT"`
	CreatedAt time.Time      `gorm:"column:created_at;index"`
}

func (SignalLogModel) TableName() string { return "signalprocessinglogs" }
