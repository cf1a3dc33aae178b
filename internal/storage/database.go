package storage

import (
	"fmt"

	"paper-trading-go/internal/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// AccountRecord is the persisted form of one paper-trading account: the
// whole store aggregate serialized as JSON, plus a revision counter
// bumped on every save to detect concurrent writers.
type AccountRecord struct {
	gorm.Model
	AccountID string `gorm:"uniqueIndex"`
	Payload   string `gorm:"not null"`
	Revision  int64  `gorm:"not null;default:0"`
}

// OrderReceipt deduplicates order submissions: one row per
// (account, idempotency key) holding the order that was produced when
// the key was first seen.
type OrderReceipt struct {
	gorm.Model
	AccountID      string `gorm:"uniqueIndex:idx_account_idem"`
	IdempotencyKey string `gorm:"uniqueIndex:idx_account_idem"`
	OrderJSON      string `gorm:"not null"`
}

// NewDatabase creates a new database connection and performs auto-migration.
func NewDatabase(cfg *config.Database) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&AccountRecord{}, &OrderReceipt{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return db, nil
}
