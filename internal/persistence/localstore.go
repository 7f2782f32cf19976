package persistence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TradeRecord is a row in the local queryable trade log — real or paper,
// distinguished by Paper, so drift between the two can be quantified
// after the fact.
type TradeRecord struct {
	ID              uint      `gorm:"primaryKey"`
	SessionID       string    `gorm:"index"`
	Symbol          string    `gorm:"index"`
	Paper           bool      `gorm:"index"`
	Direction       int
	Intensity       int
	Volume          float64
	EntryPrice      float64
	ExitPrice       float64
	RealizedPnL     float64
	IdempotencyKey  string    `gorm:"uniqueIndex"`
	OpenedAt        time.Time
	ClosedAt        time.Time
	Comment         string
}

// SessionRecord mirrors the Session lifecycle, durably, for audit.
type SessionRecord struct {
	ID             uint      `gorm:"primaryKey"`
	SessionID      string    `gorm:"uniqueIndex"`
	StartTime      time.Time
	InitialBalance float64
	Status         string
	EndReason      string
	EndedAt        *time.Time
}

// LocalStore is the sqlite-backed queryable store for trades and
// sessions, replacing a raw JSONL append file with something the
// drift/health endpoints can actually query.
type LocalStore struct {
	db *gorm.DB
}

func OpenLocalStore(path string) (*LocalStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&TradeRecord{}, &SessionRecord{}); err != nil {
		return nil, err
	}
	return &LocalStore{db: db}, nil
}

func (s *LocalStore) RecordTradeOpen(t TradeRecord) error {
	return s.db.Create(&t).Error
}

// RecordPaperTrade inserts a closed paper trade directly — paper trades
// have no broker idempotency key, so they're written as a single
// already-closed row rather than open-then-close. A row without a key
// gets a generated "paper-" one so the unique index accepts every trade.
func (s *LocalStore) RecordPaperTrade(t TradeRecord) error {
	t.Paper = true
	if t.IdempotencyKey == "" {
		t.IdempotencyKey = "paper-" + uuid.NewString()
	}
	return s.db.Create(&t).Error
}

// HasRecentOrder dedupes a repeated open by idempotency key, replacing
// the previous dedupe-window file scan with an indexed lookup.
func (s *LocalStore) HasRecentOrder(idempotencyKey string, within time.Duration) (bool, error) {
	var count int64
	err := s.db.Model(&TradeRecord{}).
		Where("idempotency_key = ? AND opened_at > ?", idempotencyKey, time.Now().Add(-within)).
		Count(&count).Error
	return count > 0, err
}

func (s *LocalStore) RecordTradeClose(idempotencyKey string, exitPrice, realizedPnL float64, closedAt time.Time) error {
	return s.db.Model(&TradeRecord{}).
		Where("idempotency_key = ?", idempotencyKey).
		Updates(map[string]any{"exit_price": exitPrice, "realized_pnl": realizedPnL, "closed_at": closedAt}).Error
}

func (s *LocalStore) UpsertSession(sess Session) error {
	rec := SessionRecord{
		SessionID:      sess.ID,
		StartTime:      sess.StartTime,
		InitialBalance: sess.InitialBalance,
		Status:         string(sess.Status),
		EndReason:      string(sess.EndReason),
	}
	if sess.Status == SessionStopped {
		now := time.Now().UTC()
		rec.EndedAt = &now
	}
	return s.db.Where(SessionRecord{SessionID: sess.ID}).
		Assign(rec).
		FirstOrCreate(&SessionRecord{}).Error
}

// DriftStats compares total real vs paper realized PnL for a session, to
// diagnose whether underperformance is a model problem or an execution
// problem.
func (s *LocalStore) DriftStats(sessionID string) (realPnL, paperPnL float64, err error) {
	var real, paper struct{ Total float64 }
	if err := s.db.Model(&TradeRecord{}).
		Where("session_id = ? AND paper = ?", sessionID, false).
		Select("COALESCE(SUM(realized_pnl),0) as total").Scan(&real).Error; err != nil {
		return 0, 0, err
	}
	if err := s.db.Model(&TradeRecord{}).
		Where("session_id = ? AND paper = ?", sessionID, true).
		Select("COALESCE(SUM(realized_pnl),0) as total").Scan(&paper).Error; err != nil {
		return 0, 0, err
	}
	return real.Total, paper.Total, nil
}

func (s *LocalStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
