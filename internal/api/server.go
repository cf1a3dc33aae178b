package api

import (
	"context"
	"fmt"
	"net/http"

	"paper-trading-go/internal/quotes"
	"paper-trading-go/internal/storage"

	"go.uber.org/zap"
)

// APIServer exposes the paper-trading engine over HTTP.
type APIServer struct {
	server *http.Server
	store  *storage.Store
	quotes quotes.Provider
	logger *zap.Logger
}

// NewAPIServer creates a new APIServer listening on the given port.
func NewAPIServer(port int, store *storage.Store, provider quotes.Provider, logger *zap.Logger) *APIServer {
	s := &APIServer{
		store:  store,
		quotes: provider,
		logger: logger.Named("api-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/paper/orders", s.submitOrderHandler)
	mux.HandleFunc("GET /api/paper/orders", s.listOrdersHandler)
	mux.HandleFunc("GET /api/paper/account", s.accountHandler)
	mux.HandleFunc("GET /api/paper/risk", s.riskHandler)
	mux.HandleFunc("PUT /api/paper/policy", s.updatePolicyHandler)
	mux.HandleFunc("GET /health", s.healthHandler)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}
