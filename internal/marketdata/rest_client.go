package marketdata

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"paper-trading-go/internal/config"
	"paper-trading-go/internal/models"
	"paper-trading-go/internal/quotes"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RestClient fetches live prices from a configurable ticker endpoint.
// It satisfies quotes.Provider so it can stand in for the synthetic
// source when a real feed is available.
type RestClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ quotes.Provider = (*RestClient)(nil)

// NewRestClient creates a rate-limited REST quote client.
func NewRestClient(cfg *config.MarketData, logger *zap.Logger) *RestClient {
	client := resty.New().SetBaseURL(cfg.Endpoint)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// TickerPrice represents the response for a single ticker price.
type TickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetQuote fetches the latest price for a symbol from the ticker endpoint.
func (c *RestClient) GetQuote(symbol string) (models.PaperQuote, error) {
	symbol = quotes.Normalize(symbol)

	var ticker TickerPrice
	req := c.client.R().
		SetQueryParam("symbol", symbol).
		SetResult(&ticker).
		SetHeader("Content-Type", "application/json")
	ctx := context.Background()

	resp, err := c.doRequest(ctx, "GET", "/ticker/price", req)
	if err != nil {
		return models.PaperQuote{}, fmt.Errorf("failed to get ticker price for %s: %w", symbol, err)
	}

	result := resp.Result().(*TickerPrice)
	price, err := strconv.ParseFloat(result.Price, 64)
	if err != nil {
		return models.PaperQuote{}, fmt.Errorf("failed to parse price %q for %s: %w", result.Price, symbol, err)
	}
	priceCents := int64(math.Round(price * 100))
	if priceCents <= 0 {
		return models.PaperQuote{}, fmt.Errorf("non-positive price %q for %s", result.Price, symbol)
	}

	return models.PaperQuote{
		Symbol:     symbol,
		PriceCents: priceCents,
		AsOf:       time.Now(),
	}, nil
}
