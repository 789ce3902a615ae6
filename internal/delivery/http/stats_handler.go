package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"tradetrack-backend/internal/domain"
	"tradetrack-backend/internal/metrics"
	"tradetrack-backend/internal/usecase"
)

// StatsHandler serves the derived statistics the dashboard, stats page
// and calendar render. Whether stats run over the full ledger or a
// filtered subset is the caller's choice via query parameters.
type StatsHandler struct {
	sessions *usecase.Sessions
	logger   zerolog.Logger
}

func NewStatsHandler(sessions *usecase.Sessions, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		sessions: sessions,
		logger:   logger.With().Str("component", "StatsHandler").Logger(),
	}
}

func (h *StatsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats", h.Stats)
	mux.HandleFunc("/api/stats/calendar", h.Calendar)
}

// StatsResponse bundles everything derived from one snapshot.
type StatsResponse struct {
	Summary  metrics.Summary  `json:"summary"`
	Advanced metrics.Advanced `json:"advanced"`
	Balance  float64          `json:"balance"`
}

// Stats handles GET /api/stats. Filter query parameters subset the
// trades before the metrics run; the balance always folds in all
// transactions since deposits are not filterable.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ledger, err := h.sessions.Ledger(r.Context(), Principal(r.Context()))
	if err != nil {
		h.logger.Error().Err(err).Msg("session resolution failed")
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	trades := domain.Filter(ledger.Trades(), criteriaFromQuery(r))
	writeJSON(w, StatsResponse{
		Summary:  metrics.Summarize(trades),
		Advanced: metrics.Analyze(trades),
		Balance:  metrics.AccountBalance(ledger.Settings().InitialBalance, trades, ledger.Transactions()),
	})
}

// Calendar handles GET /api/stats/calendar and returns the per-day
// breakdown, optionally windowed with from/to.
func (h *StatsHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ledger, err := h.sessions.Ledger(r.Context(), Principal(r.Context()))
	if err != nil {
		h.logger.Error().Err(err).Msg("session resolution failed")
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	trades := domain.Filter(ledger.Trades(), criteriaFromQuery(r))
	writeJSON(w, metrics.DailyBreakdown(trades))
}
