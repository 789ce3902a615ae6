package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"tradetrack-backend/internal/domain"
	"tradetrack-backend/internal/metrics"
	"tradetrack-backend/internal/usecase"
)

// AdminHandler serves the cross-principal admin surface. Access is
// membership in the admins collection of the active backend.
type AdminHandler struct {
	sessions *usecase.Sessions
	logger   zerolog.Logger
}

func NewAdminHandler(sessions *usecase.Sessions, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		sessions: sessions,
		logger:   logger.With().Str("component", "AdminHandler").Logger(),
	}
}

func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/admin/users", h.Users)
	mux.HandleFunc("/api/admin/stats", h.GlobalStats)
}

func (h *AdminHandler) authorize(w http.ResponseWriter, r *http.Request) (domain.PrincipalDirectory, bool) {
	dir, ok := h.sessions.Directory()
	if !ok {
		http.Error(w, "admin surface unavailable on this backend", http.StatusNotImplemented)
		return nil, false
	}

	principal := Principal(r.Context())
	if principal == domain.LocalPrincipal {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return nil, false
	}
	isAdmin, err := dir.IsAdmin(r.Context(), principal)
	if err != nil {
		h.logger.Error().Err(err).Msg("admin check failed")
		http.Error(w, "admin check failed", http.StatusBadGateway)
		return nil, false
	}
	if !isAdmin {
		http.Error(w, "permission denied", http.StatusForbidden)
		return nil, false
	}
	return dir, true
}

// Users handles GET /api/admin/users.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	dir, ok := h.authorize(w, r)
	if !ok {
		return
	}

	principals, err := dir.ListPrincipals(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("listing principals failed")
		http.Error(w, "listing users failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, principals)
}

// GlobalStats handles GET /api/admin/stats: headline numbers summed
// over every principal's journal. Walking every collection is
// expensive on large datasets; this stays acceptable at this app's
// scale.
func (h *AdminHandler) GlobalStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	dir, ok := h.authorize(w, r)
	if !ok {
		return
	}

	principals, err := dir.ListPrincipals(r.Context())
	if err != nil {
		http.Error(w, "listing users failed", http.StatusBadGateway)
		return
	}

	type globalStats struct {
		Users       int     `json:"users"`
		Trades      int     `json:"trades"`
		TotalProfit float64 `json:"totalProfit"`
	}
	var stats globalStats
	stats.Users = len(principals)

	for _, principal := range principals {
		trades, err := h.sessions.Repository(principal).ListTrades(r.Context(), principal)
		if err != nil {
			h.logger.Warn().Err(err).Str("principal", principal).Msg("skipping principal in global stats")
			continue
		}
		s := metrics.Summarize(trades)
		stats.Trades += s.Count
		stats.TotalProfit += s.TotalProfit
	}
	writeJSON(w, stats)
}
