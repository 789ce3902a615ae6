package repository

import (
	"context"
	"sync"

	"tradetrack-backend/internal/domain"
)

// Memory is an in-process LedgerRepository. It backs unit tests and
// serves as the reference implementation of the upsert-by-id
// semantics the other backends must match.
type Memory struct {
	mu       sync.RWMutex
	trades   map[string]map[string]domain.TradeRecord // principal -> id -> record
	txs      map[string]map[string]domain.Transaction
	settings map[string]domain.AccountSettings
	admins   map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		trades:   make(map[string]map[string]domain.TradeRecord),
		txs:      make(map[string]map[string]domain.Transaction),
		settings: make(map[string]domain.AccountSettings),
		admins:   make(map[string]bool),
	}
}

func (m *Memory) ListTrades(_ context.Context, principal string) ([]domain.TradeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.TradeRecord, 0, len(m.trades[principal]))
	for _, t := range m.trades[principal] {
		out = append(out, t)
	}
	domain.SortTradesByDate(out)
	return out, nil
}

func (m *Memory) UpsertTrade(_ context.Context, principal string, t domain.TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.trades[principal] == nil {
		m.trades[principal] = make(map[string]domain.TradeRecord)
	}
	m.trades[principal][t.ID] = t
	return nil
}

func (m *Memory) DeleteTrade(_ context.Context, principal string, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.trades[principal][id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.trades[principal], id)
	return nil
}

func (m *Memory) ListTransactions(_ context.Context, principal string) ([]domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(m.txs[principal]))
	for _, tx := range m.txs[principal] {
		out = append(out, tx)
	}
	sortTransactionsByDate(out)
	return out, nil
}

func (m *Memory) UpsertTransaction(_ context.Context, principal string, tx domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.txs[principal] == nil {
		m.txs[principal] = make(map[string]domain.Transaction)
	}
	m.txs[principal][tx.ID] = tx
	return nil
}

func (m *Memory) DeleteTransaction(_ context.Context, principal string, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.txs[principal][id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.txs[principal], id)
	return nil
}

func (m *Memory) GetSettings(_ context.Context, principal string) (domain.AccountSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[principal], nil
}

func (m *Memory) SetSettings(_ context.Context, principal string, s domain.AccountSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[principal] = s
	return nil
}

func (m *Memory) ResetAll(_ context.Context, principal string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.trades, principal)
	delete(m.txs, principal)
	delete(m.settings, principal)
	return nil
}

func (m *Memory) Close() error { return nil }

// ListPrincipals enumerates every principal that has data in any of
// the three collections.
func (m *Memory) ListPrincipals(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	for p := range m.trades {
		seen[p] = true
	}
	for p := range m.txs {
		seen[p] = true
	}
	for p := range m.settings {
		seen[p] = true
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		if p != domain.LocalPrincipal {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) IsAdmin(_ context.Context, principal string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.admins[principal], nil
}

// GrantAdmin marks a principal as admin. Test hook mirroring the
// admins collection of the live backend.
func (m *Memory) GrantAdmin(principal string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[principal] = true
}
