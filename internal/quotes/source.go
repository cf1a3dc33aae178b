package quotes

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"paper-trading-go/internal/models"
)

// Provider supplies the current price for a symbol.
type Provider interface {
	GetQuote(symbol string) (models.PaperQuote, error)
}

// Normalize canonicalizes a symbol for lookups: trimmed, uppercased.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

type cachedQuote struct {
	quote     models.PaperQuote
	expiresAt time.Time
}

// SyntheticSource is a deterministic stand-in for a live market feed.
// A symbol's base price is seeded from a stable hash of its identity,
// perturbed per coarse time bucket so prices drift over longer
// intervals while repeated calls within the same window agree. A
// short-lived cache pins the price across bucket boundaries so a limit
// test computed just before submission stays valid.
type SyntheticSource struct {
	bucket time.Duration
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cachedQuote
}

var _ Provider = (*SyntheticSource)(nil)

// NewSyntheticSource creates a synthetic quote source. Non-positive
// durations fall back to a 60s bucket and a 30s cache TTL.
func NewSyntheticSource(bucket, ttl time.Duration) *SyntheticSource {
	if bucket <= 0 {
		bucket = 60 * time.Second
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SyntheticSource{
		bucket: bucket,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]cachedQuote),
	}
}

// GetQuote returns the current synthetic price for a symbol. It never
// fails; the error is part of the Provider contract for live feeds.
func (s *SyntheticSource) GetQuote(symbol string) (models.PaperQuote, error) {
	symbol = Normalize(symbol)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.cache[symbol]; ok {
		if now.Before(entry.expiresAt) {
			return entry.quote, nil
		}
		delete(s.cache, symbol) // lazy eviction
	}

	quote := models.PaperQuote{
		Symbol:     symbol,
		PriceCents: s.priceAt(symbol, now),
		AsOf:       now,
	}
	s.cache[symbol] = cachedQuote{quote: quote, expiresAt: now.Add(s.ttl)}
	return quote, nil
}

// priceAt derives a price from the symbol hash and the time bucket.
func (s *SyntheticSource) priceAt(symbol string, now time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	seed := h.Sum64()

	// Base price in [$10, $4,910), stable per symbol.
	base := 1_000 + int64(seed%490_000)

	// Per-bucket drift of up to ±2%.
	bucketSecs := int64(s.bucket / time.Second)
	if bucketSecs < 1 {
		bucketSecs = 1
	}
	bucket := now.Unix() / bucketSecs
	rng := rand.New(rand.NewSource(int64(seed) ^ bucket))
	factor := 0.98 + 0.04*rng.Float64()

	price := int64(math.Round(float64(base) * factor))
	if price < 1 {
		price = 1
	}
	return price
}
