package api

import (
	"testing"

	"paper-trading-go/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateOrderRequest(t *testing.T) {
	testCases := []struct {
		name        string
		req         orderRequest
		expectError bool
	}{
		{
			name: "Valid market buy",
			req:  orderRequest{Symbol: "AAPL", Side: "buy", Quantity: 1, Type: "market"},
		},
		{
			name: "Valid limit sell",
			req:  orderRequest{Symbol: "msft", Side: "sell", Quantity: 0.5, Type: "limit", LimitPriceCents: 25_000},
		},
		{
			name:        "Empty symbol",
			req:         orderRequest{Symbol: "  ", Side: "buy", Quantity: 1, Type: "market"},
			expectError: true,
		},
		{
			name:        "Symbol too long",
			req:         orderRequest{Symbol: "ABCDEFGHIJKLM", Side: "buy", Quantity: 1, Type: "market"},
			expectError: true,
		},
		{
			name:        "Unknown side",
			req:         orderRequest{Symbol: "AAPL", Side: "hold", Quantity: 1, Type: "market"},
			expectError: true,
		},
		{
			name:        "Zero quantity",
			req:         orderRequest{Symbol: "AAPL", Side: "buy", Quantity: 0, Type: "market"},
			expectError: true,
		},
		{
			name:        "Negative quantity",
			req:         orderRequest{Symbol: "AAPL", Side: "buy", Quantity: -2, Type: "market"},
			expectError: true,
		},
		{
			name:        "Unknown type",
			req:         orderRequest{Symbol: "AAPL", Side: "buy", Quantity: 1, Type: "stop"},
			expectError: true,
		},
		{
			name:        "Limit without limit price",
			req:         orderRequest{Symbol: "AAPL", Side: "buy", Quantity: 1, Type: "limit"},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input, err := validateOrderRequest(tc.req)
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, input.Symbol)
			}
		})
	}
}

func TestValidateOrderRequest_NormalizesSymbol(t *testing.T) {
	input, err := validateOrderRequest(orderRequest{
		Symbol: " aapl ", Side: models.SideBuy, Quantity: 1, Type: models.TypeMarket,
	})
	assert.NoError(t, err)
	assert.Equal(t, "AAPL", input.Symbol)
}

func TestValidateOrderRequest_MarketOrderDropsLimitPrice(t *testing.T) {
	input, err := validateOrderRequest(orderRequest{
		Symbol: "AAPL", Side: models.SideBuy, Quantity: 1, Type: models.TypeMarket, LimitPriceCents: 12_345,
	})
	assert.NoError(t, err)
	assert.Zero(t, input.LimitPriceCents)
}
