package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"fx-arbitrage-service/internal/arbitrage"
	"fx-arbitrage-service/internal/models"
	"fx-arbitrage-service/internal/quotes"
	"fx-arbitrage-service/internal/storage"
)

// userIDHeader carries the caller identity attributed by the upstream auth
// layer. Every signal is scoped to it.
const userIDHeader = "X-User-ID"

type actionRequest struct {
	Action   string      `json:"action"`
	SignalID string      `json:"signal_id"`
	Data     requestData `json:"data"`
}

type requestData struct {
	Symbols       []string `json:"symbols"`
	MinSpreadPips *float64 `json:"min_spread_pips"`
	PortfolioID   string   `json:"portfolio_id"`
	Volume        float64  `json:"volume"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type listSignalsResponse struct {
	Signals []models.ArbitrageSignal `json:"signals"`
}

type symbolSpread struct {
	Sources   map[string]float64 `json:"sources"`
	MaxSpread float64            `json:"max_spread"`
	MinSpread float64            `json:"min_spread"`
}

type spreadsResponse struct {
	Spreads   map[string]symbolSpread `json:"spreads"`
	Timestamp time.Time               `json:"timestamp"`
}

type executeResponse struct {
	Success   bool                    `json:"success"`
	Execution *models.ExecutionResult `json:"execution"`
	Message   string                  `json:"message"`
}

// handleAction dispatches the single JSON action endpoint.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "invalid_argument", "only POST is supported")
		return
	}

	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		s.writeError(w, http.StatusUnauthorized, "unauthenticated", "missing caller identity")
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_argument", "malformed request body")
		return
	}

	switch req.Action {
	case "scan":
		s.handleScan(w, r, userID, req)
	case "list_signals":
		s.handleListSignals(w, r, userID)
	case "get_spreads":
		s.handleGetSpreads(w, r, req)
	case "execute":
		s.handleExecute(w, r, userID, req)
	default:
		s.writeError(w, http.StatusBadRequest, "invalid_argument",
			fmt.Sprintf("unknown action %q", req.Action))
	}
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request, userID string, req actionRequest) {
	minSpread := s.cfg.Scanner.MinSpreadPips
	if req.Data.MinSpreadPips != nil {
		minSpread = *req.Data.MinSpreadPips
	}
	if minSpread < 0 {
		s.writeError(w, http.StatusBadRequest, "invalid_argument", "min_spread_pips must not be negative")
		return
	}

	result, err := s.scanner.Scan(r.Context(), userID, req.Data.Symbols, minSpread)
	if err != nil {
		s.logger.Error("Scan failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "persistence_failure", "scan failed")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request, userID string) {
	signals, err := s.store.List(r.Context(), userID, s.cfg.Scanner.ListLimit)
	if err != nil {
		s.logger.Error("Failed to list signals", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "persistence_failure", "failed to list signals")
		return
	}
	s.writeJSON(w, http.StatusOK, listSignalsResponse{Signals: signals})
}

func (s *Server) handleGetSpreads(w http.ResponseWriter, r *http.Request, req actionRequest) {
	symbols := req.Data.Symbols
	if len(symbols) == 0 {
		symbols = s.cfg.Scanner.Watchlist
	}

	spreads := make(map[string]symbolSpread, len(symbols))
	var lastErr error
	for _, symbol := range symbols {
		quoteSet, err := s.provider.GetQuotes(r.Context(), symbol)
		if err != nil && !errors.Is(err, quotes.ErrSourceUnavailable) {
			s.logger.Warn("Failed to fetch quotes for spread report",
				zap.String("symbol", symbol), zap.Error(err))
			lastErr = err
			continue
		}
		if len(quoteSet) == 0 {
			lastErr = err
			continue
		}

		sources := make(map[string]float64, len(quoteSet))
		lowest, highest := quoteSet[0].Price, quoteSet[0].Price
		for _, q := range quoteSet {
			sources[q.Source] = q.Price
			if q.Price < lowest {
				lowest = q.Price
			}
			if q.Price > highest {
				highest = q.Price
			}
		}

		spreads[symbol] = symbolSpread{
			Sources:   sources,
			MaxSpread: arbitrage.SpreadPips(highest, lowest, symbol),
			MinSpread: 0,
		}
	}

	if len(spreads) == 0 && lastErr != nil {
		s.writeError(w, http.StatusBadGateway, "source_unavailable", "no quote source available")
		return
	}

	s.writeJSON(w, http.StatusOK, spreadsResponse{
		Spreads:   spreads,
		Timestamp: s.clock().UTC(),
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request, userID string, req actionRequest) {
	if req.SignalID == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_argument", "signal_id is required")
		return
	}
	if req.Data.PortfolioID == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_argument", "portfolio_id is required")
		return
	}
	if req.Data.Volume <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid_argument", "volume must be positive")
		return
	}

	signal, err := s.executor.Execute(r.Context(), userID, req.SignalID, req.Data.Volume)
	if err != nil {
		switch {
		case errors.Is(err, arbitrage.ErrInvalidArgument):
			s.writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
		case errors.Is(err, storage.ErrSignalNotFound):
			s.writeError(w, http.StatusNotFound, "not_found", "signal not found")
		case errors.Is(err, storage.ErrAlreadyExecuted):
			s.writeError(w, http.StatusConflict, "already_executed", "signal already executed")
		default:
			s.logger.Error("Execution failed", zap.String("signal_id", req.SignalID), zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "persistence_failure", "execution failed")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, executeResponse{
		Success:   true,
		Execution: signal.ExecutionResult,
		Message: fmt.Sprintf("Executed %s: bought at %s, sold at %s",
			signal.SymbolPair, signal.SourceBuy, signal.SourceSell),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}
