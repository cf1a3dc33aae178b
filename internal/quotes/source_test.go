package quotes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestGetQuote_NormalizesSymbols(t *testing.T) {
	src := NewSyntheticSource(time.Minute, 30*time.Second)

	upper, err := src.GetQuote("AAPL")
	require.NoError(t, err)
	lower, err := src.GetQuote("  aapl ")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", upper.Symbol)
	assert.Equal(t, "AAPL", lower.Symbol)
	assert.Equal(t, upper.PriceCents, lower.PriceCents)
}

func TestGetQuote_AlwaysPositive(t *testing.T) {
	src := NewSyntheticSource(time.Minute, 30*time.Second)

	for _, symbol := range []string{"AAPL", "MSFT", "NVDA", "X", "ZZZZZZZZZZZZ"} {
		quote, err := src.GetQuote(symbol)
		require.NoError(t, err)
		assert.Positive(t, quote.PriceCents, "symbol %s", symbol)
	}
}

func TestGetQuote_StableWithinBucket(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	src := NewSyntheticSource(time.Minute, 30*time.Second)
	src.now = fixedClock(base)
	first, err := src.GetQuote("AAPL")
	require.NoError(t, err)

	// Later call inside the same bucket and cache window.
	src.now = fixedClock(base.Add(20 * time.Second))
	second, err := src.GetQuote("AAPL")
	require.NoError(t, err)

	assert.Equal(t, first.PriceCents, second.PriceCents)
}

func TestGetQuote_DeterministicAcrossInstances(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	a := NewSyntheticSource(time.Minute, 30*time.Second)
	a.now = fixedClock(at)
	b := NewSyntheticSource(time.Minute, 30*time.Second)
	b.now = fixedClock(at)

	quoteA, err := a.GetQuote("NVDA")
	require.NoError(t, err)
	quoteB, err := b.GetQuote("NVDA")
	require.NoError(t, err)

	assert.Equal(t, quoteA.PriceCents, quoteB.PriceCents)
}

func TestGetQuote_CachePinsPriceAcrossBucketBoundary(t *testing.T) {
	// Start 5 seconds before the bucket rolls over.
	base := time.Date(2026, 3, 14, 9, 30, 55, 0, time.UTC)

	src := NewSyntheticSource(time.Minute, 30*time.Second)
	src.now = fixedClock(base)
	before, err := src.GetQuote("MSFT")
	require.NoError(t, err)

	// 10 seconds later the bucket has changed, but the cached quote is
	// still live, so a limit test computed just before submission holds.
	src.now = fixedClock(base.Add(10 * time.Second))
	after, err := src.GetQuote("MSFT")
	require.NoError(t, err)

	assert.Equal(t, before.PriceCents, after.PriceCents)
	assert.Equal(t, before.AsOf, after.AsOf)
}

func TestGetQuote_ExpiredEntriesAreEvicted(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	src := NewSyntheticSource(time.Minute, 30*time.Second)
	src.now = fixedClock(base)
	_, err := src.GetQuote("AAPL")
	require.NoError(t, err)

	src.now = fixedClock(base.Add(5 * time.Minute))
	fresh, err := src.GetQuote("AAPL")
	require.NoError(t, err)

	assert.Equal(t, base.Add(5*time.Minute), fresh.AsOf)
	src.mu.Lock()
	assert.Len(t, src.cache, 1)
	src.mu.Unlock()
}
