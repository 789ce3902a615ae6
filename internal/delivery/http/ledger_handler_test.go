package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradetrack-backend/internal/domain"
	"tradetrack-backend/internal/repository"
	"tradetrack-backend/internal/usecase"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	sessions := usecase.NewSessions(repository.NewMemory(), nil, nil, usecase.NewNotifier(zerolog.Nop()), zerolog.Nop(), 0)
	t.Cleanup(sessions.Close)

	mux := http.NewServeMux()
	NewLedgerHandler(sessions, zerolog.Nop()).Register(mux)
	NewStatsHandler(sessions, zerolog.Nop()).Register(mux)
	return WithPrincipal(nil, zerolog.Nop(), mux)
}

func doJSON(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestTradesCreateAndList(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/trades",
		`{"instrument":"EURUSD","lotSize":"0.5","profit":125.5,"date":"2025-01-01"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var created domain.TradeRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.OutcomeWin, created.Status)

	rr = doJSON(t, srv, http.MethodGet, "/api/trades", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []domain.TradeRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestTradesCreateRequiresCoreFields(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/trades", `{"instrument":"EURUSD"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, srv, http.MethodPost, "/api/trades", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTradesUpdateByID(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/trades",
		`{"instrument":"EURUSD","lotSize":"0.5","profit":50,"date":"2025-01-01"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var created domain.TradeRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	// Sparse update: only profit changes, instrument carries over.
	rr = doJSON(t, srv, http.MethodPut, "/api/trades?id="+created.ID, `{"profit":-30}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var updated domain.TradeRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "EURUSD", updated.Instrument)
	assert.Equal(t, -30.0, updated.Profit)
	assert.Equal(t, domain.OutcomeLoss, updated.Status)
}

func TestTradesListFiltered(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	for _, body := range []string{
		`{"instrument":"EURUSD","lotSize":"1","profit":100,"date":"2025-01-01"}`,
		`{"instrument":"GBPUSD","lotSize":"1","profit":-50,"date":"2025-01-02"}`,
		`{"instrument":"EURUSD","lotSize":"1","profit":-20,"date":"2025-01-03"}`,
	} {
		rr := doJSON(t, srv, http.MethodPost, "/api/trades", body)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/trades?instrument=EURUSD&outcome=win", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []domain.TradeRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, 100.0, listed[0].Profit)
}

func TestDeleteTrade(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/trades",
		`{"instrument":"EURUSD","lotSize":"1","profit":10}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var created domain.TradeRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = doJSON(t, srv, http.MethodDelete, "/api/trades/delete?id="+created.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, srv, http.MethodDelete, "/api/trades/delete?id="+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, srv, http.MethodDelete, "/api/trades/delete", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTransactionsAndBalance(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPut, "/api/settings/balance", `{"initialBalance":1000}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions", `{"type":"deposit","amount":500}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, srv, http.MethodPost, "/api/transactions", `{"type":"withdrawal","amount":200}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, srv, http.MethodPost, "/api/trades",
		`{"instrument":"EURUSD","lotSize":"1","profit":100}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 1000.0+500-200+100, stats.Balance)
	assert.Equal(t, 1, stats.Summary.Count)
}

func TestTransactionsRequireAmount(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/api/transactions", `{"type":"deposit"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestResetRequiresConfirmation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/trades",
		`{"instrument":"EURUSD","lotSize":"1","profit":10}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, srv, http.MethodPost, "/api/reset", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, srv, http.MethodPost, "/api/reset?confirm=true", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/api/trades", "")
	var listed []domain.TradeRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.Empty(t, listed)
}

func TestExportCSVEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/trades",
		`{"instrument":"EURUSD","lotSize":"1","profit":50,"date":"2025-01-01"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimRight(rr.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,instrument,lot,strategy,riskReward,status,profit,notes", lines[0])
	assert.Contains(t, lines[1], "EURUSD")
}

func TestStatsCalendar(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	for _, body := range []string{
		`{"instrument":"EURUSD","lotSize":"1","profit":100,"date":"2025-01-01"}`,
		`{"instrument":"EURUSD","lotSize":"1","profit":-40,"date":"2025-01-01"}`,
	} {
		rr := doJSON(t, srv, http.MethodPost, "/api/trades", body)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/stats/calendar", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var days []struct {
		Date      string  `json:"date"`
		NetProfit float64 `json:"netProfit"`
		Trades    int     `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &days))
	require.Len(t, days, 1)
	assert.Equal(t, 60.0, days[0].NetProfit)
	assert.Equal(t, 2, days[0].Trades)
}

type staticVerifier struct {
	uid string
	err error
}

func (v staticVerifier) VerifyToken(_ context.Context, _ string) (string, error) {
	return v.uid, v.err
}

func TestWithPrincipal(t *testing.T) {
	t.Parallel()

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(Principal(r.Context())))
	})

	// No token: local principal, even without a verifier.
	rr := httptest.NewRecorder()
	WithPrincipal(nil, zerolog.Nop(), echo).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.LocalPrincipal, rr.Body.String())

	// Token without a verifier configured.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rr = httptest.NewRecorder()
	WithPrincipal(nil, zerolog.Nop(), echo).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Valid token resolves the principal.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rr = httptest.NewRecorder()
	WithPrincipal(staticVerifier{uid: "user-1"}, zerolog.Nop(), echo).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1", rr.Body.String())

	// Rejected token.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rr = httptest.NewRecorder()
	WithPrincipal(staticVerifier{err: errors.New("expired")}, zerolog.Nop(), echo).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
