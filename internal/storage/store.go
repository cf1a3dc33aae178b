package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"paper-trading-go/internal/engine"
	"paper-trading-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// History caps enforced on save. Both logs are append-only inside the
// engine; the oldest entries are dropped here once the caps are hit.
const (
	MaxStoredOrders       = 200
	MaxStoredEquityPoints = 500
)

// Defaults seed a fresh account on first load.
type Defaults struct {
	StartingCashCents int64
	Policy            models.PaperTradingPolicy
}

// Store is the storage collaborator for the paper-trading engine. It
// owns all persistent state and all concurrency control: submissions
// against the same account are serialized by a per-account mutex, and
// retried requests are deduplicated by idempotency key.
type Store struct {
	db       *gorm.DB
	logger   *zap.Logger
	engine   *engine.Engine
	defaults Defaults

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a storage collaborator over an open database.
func NewStore(db *gorm.DB, logger *zap.Logger, eng *engine.Engine, defaults Defaults) *Store {
	return &Store{
		db:       db,
		logger:   logger.Named("storage"),
		engine:   eng,
		defaults: defaults,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Store) accountLock(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[accountID] = lock
	}
	return lock
}

// Load returns the store aggregate for an account, creating a fresh one
// from the configured defaults on first access.
func (s *Store) Load(accountID string) (models.PaperTradingStore, error) {
	var record AccountRecord
	err := s.db.Where("account_id = ?", accountID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fresh := models.PaperTradingStore{
			Version:   models.StoreVersion,
			CashCents: s.defaults.StartingCashCents,
			Policy:    s.defaults.Policy,
			UpdatedAt: time.Now(),
		}
		if err := s.Save(accountID, fresh); err != nil {
			return models.PaperTradingStore{}, err
		}
		s.logger.Info("Created paper-trading account",
			zap.String("account_id", accountID),
			zap.Int64("starting_cash_cents", fresh.CashCents))
		return fresh, nil
	}
	if err != nil {
		return models.PaperTradingStore{}, fmt.Errorf("could not load account %s: %w", accountID, err)
	}

	var store models.PaperTradingStore
	if err := json.Unmarshal([]byte(record.Payload), &store); err != nil {
		return models.PaperTradingStore{}, fmt.Errorf("could not decode account %s payload: %w", accountID, err)
	}
	return store, nil
}

// Save persists the store aggregate, trimming the order and equity logs
// to their caps and bumping the revision counter.
func (s *Store) Save(accountID string, store models.PaperTradingStore) error {
	if len(store.Orders) > MaxStoredOrders {
		store.Orders = append([]models.PaperOrder(nil), store.Orders[len(store.Orders)-MaxStoredOrders:]...)
	}
	if len(store.EquityHistory) > MaxStoredEquityPoints {
		store.EquityHistory = append([]models.PaperEquityPoint(nil), store.EquityHistory[len(store.EquityHistory)-MaxStoredEquityPoints:]...)
	}

	payload, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("could not encode account %s: %w", accountID, err)
	}

	var record AccountRecord
	err = s.db.Where("account_id = ?", accountID).First(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = AccountRecord{AccountID: accountID, Payload: string(payload), Revision: 1}
		if err := s.db.Create(&record).Error; err != nil {
			return fmt.Errorf("could not create account %s: %w", accountID, err)
		}
	case err != nil:
		return fmt.Errorf("could not load account %s for save: %w", accountID, err)
	default:
		record.Payload = string(payload)
		record.Revision++
		if err := s.db.Save(&record).Error; err != nil {
			return fmt.Errorf("could not save account %s: %w", accountID, err)
		}
	}
	return nil
}

// SubmitOrder runs one order through the engine under the account's
// lock and persists the outcome. A request retried with the same
// idempotency key returns the previously produced order without
// re-executing.
func (s *Store) SubmitOrder(accountID string, input models.PaperOrderInput, idempotencyKey, source string) (models.PaperOrder, error) {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	if idempotencyKey != "" {
		var receipt OrderReceipt
		err := s.db.Where("account_id = ? AND idempotency_key = ?", accountID, idempotencyKey).First(&receipt).Error
		if err == nil {
			var order models.PaperOrder
			if err := json.Unmarshal([]byte(receipt.OrderJSON), &order); err != nil {
				return models.PaperOrder{}, fmt.Errorf("could not decode receipt for key %s: %w", idempotencyKey, err)
			}
			s.logger.Info("Replaying order for repeated idempotency key",
				zap.String("account_id", accountID),
				zap.String("idempotency_key", idempotencyKey),
				zap.String("order_id", order.ID))
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PaperOrder{}, fmt.Errorf("could not check idempotency key: %w", err)
		}
	}

	store, err := s.Load(accountID)
	if err != nil {
		return models.PaperOrder{}, err
	}

	order, newStore, err := s.engine.Execute(store, input, nil)
	if err != nil {
		return models.PaperOrder{}, err
	}
	order.IdempotencyKey = idempotencyKey
	order.Source = source

	// The appended copy in the store must match the returned order.
	if n := len(newStore.Orders); n > 0 && newStore.Orders[n-1].ID == order.ID {
		newStore.Orders[n-1] = order
	}

	if err := s.Save(accountID, newStore); err != nil {
		return models.PaperOrder{}, err
	}

	if idempotencyKey != "" {
		orderJSON, err := json.Marshal(order)
		if err != nil {
			return models.PaperOrder{}, fmt.Errorf("could not encode order receipt: %w", err)
		}
		receipt := OrderReceipt{AccountID: accountID, IdempotencyKey: idempotencyKey, OrderJSON: string(orderJSON)}
		if err := s.db.Create(&receipt).Error; err != nil {
			// The state transition is already saved; losing the receipt
			// only weakens replay, so log and continue.
			s.logger.Error("Failed to record idempotency receipt",
				zap.String("account_id", accountID),
				zap.String("idempotency_key", idempotencyKey),
				zap.Error(err))
		}
	}

	s.logger.Info("Order decided",
		zap.String("account_id", accountID),
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("side", order.Side),
		zap.String("status", order.Status),
		zap.Int64("notional_cents", order.NotionalCents))

	return order, nil
}

// UpdatePolicy validates and persists a new policy for an account.
func (s *Store) UpdatePolicy(accountID string, policy models.PaperTradingPolicy) error {
	if err := models.ValidatePolicy(policy); err != nil {
		return err
	}

	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	store, err := s.Load(accountID)
	if err != nil {
		return err
	}
	store.Policy = policy
	store.UpdatedAt = time.Now()
	return s.Save(accountID, store)
}
