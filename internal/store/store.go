// Package store persists query snapshots and round summaries to SQLite.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

// Open creates (or migrates) the SQLite database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

// FromDB wraps an existing gorm handle (used by tests with in-memory
// databases).
func FromDB(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	return newStore(db)
}

func newStore(db *gorm.DB) (*Store, error) {
	models := []interface{}{
		&WalletSnapshot{},
		&PointsSnapshot{},
		&RoundRecord{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) SaveWalletSnapshots(ctx context.Context, snaps []WalletSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&snaps).Error
}

func (s *Store) SavePointsSnapshots(ctx context.Context, snaps []PointsSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&snaps).Error
}

// SaveRound serializes the leg outcomes and writes the round summary.
func (s *Store) SaveRound(ctx context.Context, rec RoundRecord, legs []LegOutcome) error {
	raw, err := json.Marshal(legs)
	if err != nil {
		return fmt.Errorf("marshal leg outcomes: %w", err)
	}
	rec.Legs = raw
	return s.db.WithContext(ctx).Create(&rec).Error
}

// RecentRounds returns the latest round summaries, newest first.
func (s *Store) RecentRounds(ctx context.Context, limit int) ([]RoundRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []RoundRecord
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// LatestPoints returns the most recent points snapshot per account.
func (s *Store) LatestPoints(ctx context.Context) ([]PointsSnapshot, error) {
	var snaps []PointsSnapshot
	err := s.db.WithContext(ctx).
		Raw(`SELECT p.* FROM points_snapshots p
		     JOIN (SELECT account, MAX(created_at) AS created_at
		           FROM points_snapshots GROUP BY account) latest
		       ON p.account = latest.account AND p.created_at = latest.created_at
		     ORDER BY p.account`).
		Scan(&snaps).Error
	return snaps, err
}

// PruneBefore removes snapshots older than cutoff; round records are kept.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) error {
	if err := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&WalletSnapshot{}).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&PointsSnapshot{}).Error
}
