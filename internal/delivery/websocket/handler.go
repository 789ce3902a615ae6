package websocket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tradetrack-backend/internal/domain"
	"tradetrack-backend/internal/metrics"
	"tradetrack-backend/internal/usecase"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the journal frontend is served from other origins
	},
}

// TokenVerifier resolves the token query parameter to a principal.
// Browsers cannot set headers on websocket dials, so the token rides
// in the query string here.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (string, error)
}

// Handler streams ledger state to connected view clients. Every
// notifier broadcast for the client's principal triggers a fresh push,
// so tables, charts and the calendar are never stale.
type Handler struct {
	sessions *usecase.Sessions
	notifier *usecase.Notifier
	verifier TokenVerifier
	logger   zerolog.Logger
}

func NewHandler(sessions *usecase.Sessions, notifier *usecase.Notifier, verifier TokenVerifier, logger zerolog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		notifier: notifier,
		verifier: verifier,
		logger:   logger.With().Str("component", "WSHandler").Logger(),
	}
}

// statePayload is one full view-model push.
type statePayload struct {
	Trades       []domain.TradeRecord `json:"trades"`
	Transactions []domain.Transaction `json:"transactions"`
	Summary      metrics.Summary      `json:"summary"`
	Advanced     metrics.Advanced     `json:"advanced"`
	Balance      float64              `json:"balance"`
	Daily        []metrics.DayStats   `json:"daily"`
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	principal := domain.LocalPrincipal
	if token := r.URL.Query().Get("token"); token != "" {
		if h.verifier == nil {
			http.Error(w, "authentication not configured", http.StatusUnauthorized)
			return
		}
		uid, err := h.verifier.VerifyToken(r.Context(), token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		principal = uid
	}

	ledger, err := h.sessions.Ledger(r.Context(), principal)
	if err != nil {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.Info().Str("principal", principal).Msg("view client connected")

	// Coalescing buffer: a burst of mutations collapses into one push.
	changed := make(chan struct{}, 1)
	consumerName := "ws-" + uuid.NewString()
	h.notifier.Register(consumerName, func(ev usecase.Event) {
		if ev.Principal != ledger.Principal() {
			return
		}
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer h.notifier.Unregister(consumerName)

	if err := h.push(conn, ledger); err != nil {
		return
	}

	// Reader goroutine: the client sends nothing meaningful, but the
	// read loop is what detects a dropped connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-changed:
			if err := h.push(conn, ledger); err != nil {
				return
			}
		case <-keepalive.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Handler) push(conn *websocket.Conn, ledger *usecase.Ledger) error {
	trades := ledger.Trades()
	txs := ledger.Transactions()

	payload := statePayload{
		Trades:       trades,
		Transactions: txs,
		Summary:      metrics.Summarize(trades),
		Advanced:     metrics.Analyze(trades),
		Balance:      metrics.AccountBalance(ledger.Settings().InitialBalance, trades, txs),
		Daily:        metrics.DailyBreakdown(trades),
	}
	if err := conn.WriteJSON(payload); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
