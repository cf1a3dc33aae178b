package marketdata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a RestClient configured to use it.
func setupTestServer(handler http.Handler) (*RestClient, *httptest.Server) {
	server := httptest.NewServer(handler)

	client := resty.New().SetBaseURL(server.URL)
	logger := zap.NewNop() // Use a no-op logger for tests

	rc := &RestClient{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
	}

	return rc, server
}

func TestGetQuote(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/ticker/price", r.URL.Path)
			assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"symbol": "AAPL", "price": "190.25"}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		// Act
		quote, err := rc.GetQuote("aapl")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "AAPL", quote.Symbol)
		assert.Equal(t, int64(19_025), quote.PriceCents)
	})

	t.Run("APIError", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": "unknown symbol"}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		// Act
		quote, err := rc.GetQuote("NOPE")

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get ticker price")
		assert.Zero(t, quote.PriceCents)
	})

	t.Run("UnparsablePrice", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"symbol": "AAPL", "price": "not-a-number"}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		// Act
		_, err := rc.GetQuote("AAPL")

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse price")
	})

	t.Run("NonPositivePrice", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"symbol": "AAPL", "price": "0"}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		// Act
		_, err := rc.GetQuote("AAPL")

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "non-positive price")
	})
}
