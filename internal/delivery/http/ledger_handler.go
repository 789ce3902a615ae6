package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"tradetrack-backend/internal/domain"
	"tradetrack-backend/internal/usecase"
)

// LedgerHandler exposes the trade and transaction CRUD endpoints.
type LedgerHandler struct {
	sessions *usecase.Sessions
	logger   zerolog.Logger
}

func NewLedgerHandler(sessions *usecase.Sessions, logger zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{
		sessions: sessions,
		logger:   logger.With().Str("component", "LedgerHandler").Logger(),
	}
}

func (h *LedgerHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/trades", h.Trades)
	mux.HandleFunc("/api/trades/delete", h.DeleteTrade)
	mux.HandleFunc("/api/transactions", h.Transactions)
	mux.HandleFunc("/api/transactions/delete", h.DeleteTransaction)
	mux.HandleFunc("/api/settings/balance", h.SetBalance)
	mux.HandleFunc("/api/reset", h.Reset)
	mux.HandleFunc("/api/export", h.Export)
}

func (h *LedgerHandler) ledger(w http.ResponseWriter, r *http.Request) (*usecase.Ledger, bool) {
	ledger, err := h.sessions.Ledger(r.Context(), Principal(r.Context()))
	if err != nil {
		h.logger.Error().Err(err).Msg("session resolution failed")
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return nil, false
	}
	return ledger, true
}

// Trades handles GET /api/trades (list, optionally filtered) and
// POST/PUT /api/trades (create or update by ?id=).
func (h *LedgerHandler) Trades(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		trades := domain.Filter(ledger.Trades(), criteriaFromQuery(r))
		writeJSON(w, trades)

	case http.MethodPost, http.MethodPut:
		var in domain.TradeInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		existingID := r.URL.Query().Get("id")
		if existingID == "" {
			// Required-field validation happens here, before the
			// permissive normalizer sees the input.
			if in.Instrument == "" || in.LotSize == "" || in.Profit == nil {
				http.Error(w, "instrument, lotSize and profit are required", http.StatusBadRequest)
				return
			}
		}
		rec, err := ledger.SaveTrade(r.Context(), in, existingID)
		if err != nil {
			h.logger.Error().Err(err).Msg("trade save failed")
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, rec)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// DeleteTrade handles DELETE /api/trades/delete?id={id}.
func (h *LedgerHandler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id parameter", http.StatusBadRequest)
		return
	}

	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}
	if err := ledger.DeleteTrade(r.Context(), id); err != nil {
		status := http.StatusBadGateway
		if err == domain.ErrNotFound {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

// Transactions handles GET and POST/PUT on /api/transactions.
func (h *LedgerHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, ledger.Transactions())

	case http.MethodPost, http.MethodPut:
		var in domain.TransactionInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		existingID := r.URL.Query().Get("id")
		if existingID == "" && in.Amount == nil {
			http.Error(w, "amount is required", http.StatusBadRequest)
			return
		}
		tx, err := ledger.SaveTransaction(r.Context(), in, existingID)
		if err != nil {
			h.logger.Error().Err(err).Msg("transaction save failed")
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, tx)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// DeleteTransaction handles DELETE /api/transactions/delete?id={id}.
func (h *LedgerHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id parameter", http.StatusBadRequest)
		return
	}

	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}
	if err := ledger.DeleteTransaction(r.Context(), id); err != nil {
		status := http.StatusBadGateway
		if err == domain.ErrNotFound {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

// SetBalance handles PUT /api/settings/balance.
func (h *LedgerHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		InitialBalance float64 `json:"initialBalance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}
	if err := ledger.SetInitialBalance(r.Context(), payload.InitialBalance); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, ledger.Settings())
}

// Reset handles POST /api/reset?confirm=true. The explicit confirm
// parameter is the upstream confirmation the destructive reset
// requires.
func (h *LedgerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		http.Error(w, "reset requires confirm=true", http.StatusBadRequest)
		return
	}

	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}
	if err := ledger.ResetAll(r.Context()); err != nil {
		// A partial reset leaves the ledger ambiguous, so this is
		// surfaced loudly rather than retried quietly.
		h.logger.Error().Err(err).Str("principal", ledger.Principal()).Msg("reset failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{"status": "reset"})
}

// Export handles GET /api/export and streams the journal as CSV.
func (h *LedgerHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="journal.csv"`)
	w.Write([]byte(usecase.ExportCSV(ledger.Trades())))
}

func criteriaFromQuery(r *http.Request) domain.FilterCriteria {
	q := r.URL.Query()
	return domain.FilterCriteria{
		DateFrom:   q.Get("from"),
		DateTo:     q.Get("to"),
		Instrument: q.Get("instrument"),
		Outcome:    domain.Outcome(q.Get("outcome")),
		Direction:  domain.Direction(q.Get("direction")),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
