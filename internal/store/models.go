package store

import (
	"time"

	"gorm.io/datatypes"
)

// WalletSnapshot records one /wallet query outcome. These are point-in-time
// readbacks, not trade history.
type WalletSnapshot struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	Account      string `gorm:"column:account;index"`
	ETHAddress   string `gorm:"column:eth_address"`
	SOLAddress   string `gorm:"column:sol_address"`
	PerpsBalance string `gorm:"column:perps_balance"`
	OK           bool   `gorm:"column:ok"`
	CreatedAt    time.Time
}

func (WalletSnapshot) TableName() string { return "wallet_snapshots" }

// PointsSnapshot records one /points query outcome.
type PointsSnapshot struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	Account   string `gorm:"column:account;index"`
	Points    int    `gorm:"column:points"`
	OK        bool   `gorm:"column:ok"`
	CreatedAt time.Time
}

func (PointsSnapshot) TableName() string { return "points_snapshots" }

// RoundRecord summarizes one open→hold→close cycle. Legs holds the
// per-account outcome list as JSON.
type RoundRecord struct {
	ID         int64          `gorm:"column:id;primaryKey"`
	TraceID    string         `gorm:"column:trace_id;uniqueIndex"`
	Pairs      int            `gorm:"column:pairs"`
	OpenedLegs int            `gorm:"column:opened_legs"`
	FailedLegs int            `gorm:"column:failed_legs"`
	Legs       datatypes.JSON `gorm:"column:legs"`
	StartedAt  time.Time      `gorm:"column:started_at"`
	FinishedAt time.Time      `gorm:"column:finished_at"`
}

func (RoundRecord) TableName() string { return "round_records" }

// LegOutcome is one account's slice of a round, serialized into
// RoundRecord.Legs.
type LegOutcome struct {
	Account       string   `json:"account"`
	Direction     string   `json:"direction"`
	Ticker        string   `json:"ticker"`
	Leverage      int      `json:"leverage"`
	Amount        string   `json:"amount"`
	StopLossPct   int      `json:"stop_loss_pct"`
	Opened        bool     `json:"opened"`
	StopLossSet   bool     `json:"stop_loss_set"`
	ClosedSymbols []string `json:"closed_symbols,omitempty"`
	Error         string   `json:"error,omitempty"`
}
