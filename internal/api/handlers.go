package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"paper-trading-go/internal/models"
	"paper-trading-go/internal/quotes"
	"paper-trading-go/internal/risk"

	"go.uber.org/zap"
)

// defaultAccountID is used when the caller does not name an account.
const defaultAccountID = "default"

func accountID(r *http.Request) string {
	if id := r.URL.Query().Get("account"); id != "" {
		return id
	}
	return defaultAccountID
}

// orderRequest is the wire form of an order submission.
type orderRequest struct {
	Symbol          string  `json:"symbol"`
	Side            string  `json:"side"`
	Quantity        float64 `json:"quantity"`
	Type            string  `json:"type"`
	LimitPriceCents int64   `json:"limitPriceCents,omitempty"`
	Source          string  `json:"source,omitempty"`
}

// validateOrderRequest is the schema gate in front of the engine:
// anything malformed is turned away here with a 400 and never reaches
// the execution path.
func validateOrderRequest(req orderRequest) (models.PaperOrderInput, error) {
	symbol := quotes.Normalize(req.Symbol)
	if len(symbol) < 1 || len(symbol) > 12 {
		return models.PaperOrderInput{}, fmt.Errorf("symbol must be 1-12 characters, got %q", req.Symbol)
	}
	if req.Side != models.SideBuy && req.Side != models.SideSell {
		return models.PaperOrderInput{}, fmt.Errorf("side must be %q or %q, got %q", models.SideBuy, models.SideSell, req.Side)
	}
	if req.Quantity <= 0 {
		return models.PaperOrderInput{}, fmt.Errorf("quantity must be positive, got %g", req.Quantity)
	}
	if req.Type != models.TypeMarket && req.Type != models.TypeLimit {
		return models.PaperOrderInput{}, fmt.Errorf("type must be %q or %q, got %q", models.TypeMarket, models.TypeLimit, req.Type)
	}
	input := models.PaperOrderInput{
		Symbol:   symbol,
		Side:     req.Side,
		Quantity: req.Quantity,
		Type:     req.Type,
	}
	if req.Type == models.TypeLimit {
		if req.LimitPriceCents <= 0 {
			return models.PaperOrderInput{}, fmt.Errorf("limit orders require a positive limitPriceCents")
		}
		input.LimitPriceCents = req.LimitPriceCents
	}
	return input, nil
}

func (s *APIServer) submitOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	input, err := validateOrderRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	source := req.Source
	if source == "" {
		source = models.SourceAPI
	}
	if source != models.SourceUI && source != models.SourceAPI && source != models.SourceAI {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown source %q", source))
		return
	}

	order, err := s.store.SubmitOrder(accountID(r), input, r.Header.Get("Idempotency-Key"), source)
	if err != nil {
		s.logger.Error("Order submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Errorf("order submission failed"))
		return
	}

	status := http.StatusOK
	if order.Status == models.StatusRejected {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, order)
}

func (s *APIServer) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	store, err := s.store.Load(accountID(r))
	if err != nil {
		s.logger.Error("Failed to load account", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to load account"))
		return
	}

	// Most recent first.
	orders := make([]models.PaperOrder, 0, len(store.Orders))
	for i := len(store.Orders) - 1; i >= 0; i-- {
		orders = append(orders, store.Orders[i])
	}
	writeJSON(w, http.StatusOK, orders)
}

// accountResponse is the valuation view of an account.
type accountResponse struct {
	Summary   models.AccountSummary     `json:"summary"`
	Positions []models.PaperPosition    `json:"positions"`
	Policy    models.PaperTradingPolicy `json:"policy"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

func (s *APIServer) accountHandler(w http.ResponseWriter, r *http.Request) {
	store, err := s.store.Load(accountID(r))
	if err != nil {
		s.logger.Error("Failed to load account", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to load account"))
		return
	}

	summary, err := risk.Summarize(store, s.quotes)
	if err != nil {
		s.logger.Error("Failed to value account", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to value account"))
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{
		Summary:   summary,
		Positions: store.Positions,
		Policy:    store.Policy,
		UpdatedAt: store.UpdatedAt,
	})
}

func (s *APIServer) riskHandler(w http.ResponseWriter, r *http.Request) {
	store, err := s.store.Load(accountID(r))
	if err != nil {
		s.logger.Error("Failed to load account", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to load account"))
		return
	}

	summary, err := risk.Summarize(store, s.quotes)
	if err != nil {
		s.logger.Error("Failed to value account", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to value account"))
		return
	}

	writeJSON(w, http.StatusOK, risk.BuildSnapshot(store, summary, time.Now()))
}

func (s *APIServer) updatePolicyHandler(w http.ResponseWriter, r *http.Request) {
	var policy models.PaperTradingPolicy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := models.ValidatePolicy(policy); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.store.UpdatePolicy(accountID(r), policy); err != nil {
		s.logger.Error("Failed to update policy", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to update policy"))
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
