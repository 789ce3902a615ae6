package domain

import (
	"context"
	"errors"
)

// LocalPrincipal is the principal key used when no authenticated user
// is active. The same repository interface serves both modes, so the
// metrics and filter layers never know which backend is behind them.
const LocalPrincipal = ""

// ErrNotFound is returned when a trade or transaction id does not
// exist for the given principal.
var ErrNotFound = errors.New("record not found")

// Scope names one of the three persisted sub-collections. Change
// notifications carry the scope that mutated.
type Scope string

const (
	ScopeTrades       Scope = "trades"
	ScopeTransactions Scope = "transactions"
	ScopeSettings     Scope = "settings"
)

// LedgerRepository is the storage-agnostic persistence contract for
// one trades collection, one transactions collection and a single
// settings document per principal. Upserts are keyed by record id, so
// a repeated write with the same id overwrites instead of inserting.
type LedgerRepository interface {
	ListTrades(ctx context.Context, principal string) ([]TradeRecord, error)
	UpsertTrade(ctx context.Context, principal string, t TradeRecord) error
	DeleteTrade(ctx context.Context, principal string, id string) error

	ListTransactions(ctx context.Context, principal string) ([]Transaction, error)
	UpsertTransaction(ctx context.Context, principal string, tx Transaction) error
	DeleteTransaction(ctx context.Context, principal string, id string) error

	GetSettings(ctx context.Context, principal string) (AccountSettings, error)
	SetSettings(ctx context.Context, principal string, s AccountSettings) error

	// ResetAll clears trades, transactions and settings for the
	// principal in one logical operation. Implementations back this
	// with whatever atomic multi-write primitive the store offers.
	ResetAll(ctx context.Context, principal string) error

	Close() error
}

// LedgerWatcher is implemented by backends that can push remote
// changes. onChange fires for every new snapshot of the given
// principal's data until ctx is cancelled; the callback must be cheap
// and must not block.
type LedgerWatcher interface {
	Watch(ctx context.Context, principal string, onChange func(Scope)) error
}

// PrincipalDirectory is implemented by backends that can enumerate
// principals and answer admin-membership checks. Used only by the
// admin surface.
type PrincipalDirectory interface {
	ListPrincipals(ctx context.Context) ([]string, error)
	IsAdmin(ctx context.Context, principal string) (bool, error)
}
