package storage

import (
	"testing"
	"time"

	"paper-trading-go/internal/engine"
	"paper-trading-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fixedQuotes serves one price for every symbol.
type fixedQuotes struct {
	priceCents int64
}

func (f fixedQuotes) GetQuote(symbol string) (models.PaperQuote, error) {
	return models.PaperQuote{Symbol: symbol, PriceCents: f.priceCents, AsOf: time.Now()}, nil
}

func testDefaults() Defaults {
	return Defaults{
		StartingCashCents: 1_000_000,
		Policy: models.PaperTradingPolicy{
			MaxPositionPct:        100,
			MaxOrderNotionalCents: 500_000,
			MaxOpenPositions:      5,
			MaxDrawdownPct:        30,
		},
	}
}

// setupTest creates a Store over a fresh in-memory database.
func setupTest(t *testing.T) *Store {
	// Use a new, non-shared in-memory database for each test to ensure isolation.
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&AccountRecord{}, &OrderReceipt{})
	require.NoError(t, err)

	eng := engine.New(fixedQuotes{priceCents: 19_000})
	return NewStore(db, zap.NewNop(), eng, testDefaults())
}

func TestLoad_CreatesAccountOnFirstAccess(t *testing.T) {
	store := setupTest(t)

	aggregate, err := store.Load("alice")
	require.NoError(t, err)

	assert.Equal(t, models.StoreVersion, aggregate.Version)
	assert.Equal(t, int64(1_000_000), aggregate.CashCents)
	assert.Empty(t, aggregate.Positions)

	// A second load returns the persisted account, not a new one.
	again, err := store.Load("alice")
	require.NoError(t, err)
	assert.Equal(t, aggregate.CashCents, again.CashCents)
}

func TestSubmitOrder_PersistsFill(t *testing.T) {
	store := setupTest(t)

	order, err := store.SubmitOrder("alice", models.PaperOrderInput{
		Symbol: "AAPL", Side: models.SideBuy, Quantity: 1, Type: models.TypeMarket,
	}, "", models.SourceAPI)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFilled, order.Status)
	assert.Equal(t, models.SourceAPI, order.Source)

	aggregate, err := store.Load("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000-19_000), aggregate.CashCents)
	require.Len(t, aggregate.Positions, 1)
	require.Len(t, aggregate.Orders, 1)
	assert.Equal(t, order.ID, aggregate.Orders[0].ID)
	assert.Equal(t, models.SourceAPI, aggregate.Orders[0].Source)
}

func TestSubmitOrder_IdempotencyKeyReplays(t *testing.T) {
	store := setupTest(t)
	input := models.PaperOrderInput{
		Symbol: "AAPL", Side: models.SideBuy, Quantity: 1, Type: models.TypeMarket,
	}

	first, err := store.SubmitOrder("alice", input, "key-1", models.SourceUI)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFilled, first.Status)

	// The retried request returns the stored order without re-executing.
	second, err := store.SubmitOrder("alice", input, "key-1", models.SourceUI)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	aggregate, err := store.Load("alice")
	require.NoError(t, err)
	assert.Len(t, aggregate.Orders, 1)
	assert.Equal(t, int64(1_000_000-19_000), aggregate.CashCents)
}

func TestSubmitOrder_DistinctKeysExecuteSeparately(t *testing.T) {
	store := setupTest(t)
	input := models.PaperOrderInput{
		Symbol: "AAPL", Side: models.SideBuy, Quantity: 1, Type: models.TypeMarket,
	}

	first, err := store.SubmitOrder("alice", input, "key-1", models.SourceUI)
	require.NoError(t, err)
	second, err := store.SubmitOrder("alice", input, "key-2", models.SourceUI)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	aggregate, err := store.Load("alice")
	require.NoError(t, err)
	assert.Len(t, aggregate.Orders, 2)
}

func TestSubmitOrder_AccountsAreIsolated(t *testing.T) {
	store := setupTest(t)
	input := models.PaperOrderInput{
		Symbol: "AAPL", Side: models.SideBuy, Quantity: 1, Type: models.TypeMarket,
	}

	_, err := store.SubmitOrder("alice", input, "", models.SourceAPI)
	require.NoError(t, err)

	bob, err := store.Load("bob")
	require.NoError(t, err)
	assert.Empty(t, bob.Orders)
	assert.Equal(t, int64(1_000_000), bob.CashCents)
}

func TestSave_TrimsHistoryCaps(t *testing.T) {
	store := setupTest(t)

	aggregate, err := store.Load("alice")
	require.NoError(t, err)

	for i := 0; i < MaxStoredOrders+25; i++ {
		aggregate.Orders = append(aggregate.Orders, models.PaperOrder{
			ID:          "order",
			Status:      models.StatusRejected,
			RequestedAt: time.Now(),
		})
	}
	for i := 0; i < MaxStoredEquityPoints+25; i++ {
		aggregate.EquityHistory = append(aggregate.EquityHistory, models.PaperEquityPoint{
			At:          time.Now(),
			EquityCents: int64(i),
		})
	}
	require.NoError(t, store.Save("alice", aggregate))

	reloaded, err := store.Load("alice")
	require.NoError(t, err)
	assert.Len(t, reloaded.Orders, MaxStoredOrders)
	assert.Len(t, reloaded.EquityHistory, MaxStoredEquityPoints)
	// The newest entries survive the trim.
	assert.Equal(t, int64(MaxStoredEquityPoints+24), reloaded.EquityHistory[len(reloaded.EquityHistory)-1].EquityCents)
}

func TestUpdatePolicy(t *testing.T) {
	store := setupTest(t)

	t.Run("RejectsInvalidPolicy", func(t *testing.T) {
		policy := testDefaults().Policy
		policy.MaxPositionPct = 0
		assert.Error(t, store.UpdatePolicy("alice", policy))
	})

	t.Run("PersistsValidPolicy", func(t *testing.T) {
		policy := testDefaults().Policy
		policy.KillSwitchEnabled = true
		policy.BlockedSymbols = []string{"GME"}
		require.NoError(t, store.UpdatePolicy("alice", policy))

		aggregate, err := store.Load("alice")
		require.NoError(t, err)
		assert.True(t, aggregate.Policy.KillSwitchEnabled)
		assert.Equal(t, []string{"GME"}, aggregate.Policy.BlockedSymbols)
	})
}
