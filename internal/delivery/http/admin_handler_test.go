package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradetrack-backend/internal/domain"
	"tradetrack-backend/internal/repository"
	"tradetrack-backend/internal/usecase"
)

func newAdminServer(t *testing.T) (*repository.Memory, http.Handler) {
	t.Helper()

	store := repository.NewMemory()
	sessions := usecase.NewSessions(store, nil, nil, usecase.NewNotifier(zerolog.Nop()), zerolog.Nop(), 0)
	t.Cleanup(sessions.Close)

	mux := http.NewServeMux()
	NewAdminHandler(sessions, zerolog.Nop()).Register(mux)
	return store, mux
}

func adminRequest(handler http.Handler, target, principal string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(context.WithValue(req.Context(), principalKey{}, principal))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestAdminRequiresAuthentication(t *testing.T) {
	t.Parallel()

	_, srv := newAdminServer(t)
	rr := adminRequest(srv, "/api/admin/users", domain.LocalPrincipal)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminRejectsNonAdmins(t *testing.T) {
	t.Parallel()

	_, srv := newAdminServer(t)
	rr := adminRequest(srv, "/api/admin/users", "user-1")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminListsUsers(t *testing.T) {
	t.Parallel()

	store, srv := newAdminServer(t)
	store.GrantAdmin("admin-1")
	require.NoError(t, store.UpsertTrade(context.Background(), "user-1", domain.TradeRecord{ID: "t-1", Profit: 50}))

	rr := adminRequest(srv, "/api/admin/users", "admin-1")
	require.Equal(t, http.StatusOK, rr.Code)
	var users []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	assert.Contains(t, users, "user-1")
}

func TestAdminGlobalStats(t *testing.T) {
	t.Parallel()

	store, srv := newAdminServer(t)
	store.GrantAdmin("admin-1")
	ctx := context.Background()
	require.NoError(t, store.UpsertTrade(ctx, "user-1", domain.TradeRecord{ID: "t-1", Profit: 50}))
	require.NoError(t, store.UpsertTrade(ctx, "user-2", domain.TradeRecord{ID: "t-2", Profit: -20}))

	rr := adminRequest(srv, "/api/admin/stats", "admin-1")
	require.Equal(t, http.StatusOK, rr.Code)

	var stats struct {
		Users       int     `json:"users"`
		Trades      int     `json:"trades"`
		TotalProfit float64 `json:"totalProfit"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Trades)
	assert.Equal(t, 30.0, stats.TotalProfit)
}
