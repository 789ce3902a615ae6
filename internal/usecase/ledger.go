package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"tradetrack-backend/internal/domain"
	"tradetrack-backend/internal/infrastructure/blob"
)

// BlobStore is what the ledger needs from screenshot storage. Deletes
// are best-effort; upload failures abort the save since a too-large
// inline payload cannot be persisted in the document store.
type BlobStore interface {
	Put(ctx context.Context, principal, tradeID string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, principal, tradeID string) error
}

// Ledger owns one principal's in-memory snapshot and routes every
// mutation through the persistence backend. The snapshot is a
// disposable copy of store state: a failed write leaves it untouched
// and fires no notification, and remote subscription callbacks replace
// it wholesale.
type Ledger struct {
	principal   string
	repo        domain.LedgerRepository
	blobs       BlobStore
	notifier    *Notifier
	logger      zerolog.Logger
	inlineLimit int

	mu       sync.RWMutex
	trades   []domain.TradeRecord
	txs      []domain.Transaction
	settings domain.AccountSettings
}

func NewLedger(principal string, repo domain.LedgerRepository, blobs BlobStore, notifier *Notifier, logger zerolog.Logger, inlineLimit int) *Ledger {
	if inlineLimit <= 0 {
		inlineLimit = blob.InlineLimit
	}
	return &Ledger{
		principal:   principal,
		repo:        repo,
		blobs:       blobs,
		notifier:    notifier,
		logger:      logger.With().Str("component", "Ledger").Str("principal", principal).Logger(),
		inlineLimit: inlineLimit,
	}
}

func (l *Ledger) Principal() string { return l.principal }

// Refresh reloads the snapshot from the backend without notifying.
func (l *Ledger) Refresh(ctx context.Context) error {
	trades, err := l.repo.ListTrades(ctx, l.principal)
	if err != nil {
		return fmt.Errorf("refresh trades: %w", err)
	}
	txs, err := l.repo.ListTransactions(ctx, l.principal)
	if err != nil {
		return fmt.Errorf("refresh transactions: %w", err)
	}
	settings, err := l.repo.GetSettings(ctx, l.principal)
	if err != nil {
		return fmt.Errorf("refresh settings: %w", err)
	}
	domain.SortTradesByDate(trades)

	l.mu.Lock()
	l.trades = trades
	l.txs = txs
	l.settings = settings
	l.mu.Unlock()
	return nil
}

// Trades returns a copy of the trade snapshot, sorted by date.
func (l *Ledger) Trades() []domain.TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// Transactions returns a copy of the transaction snapshot.
func (l *Ledger) Transactions() []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

func (l *Ledger) Settings() domain.AccountSettings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings
}

// SaveTrade normalizes and persists a trade. With an existingID the
// input is shallow-merged over the stored record: provided fields win,
// absent ones keep their old values. Inline screenshots above the
// limit are offloaded to blob storage before the document write.
func (l *Ledger) SaveTrade(ctx context.Context, in domain.TradeInput, existingID string) (domain.TradeRecord, error) {
	if existingID != "" {
		if existing, ok := l.findTrade(existingID); ok {
			in = mergeTradeInput(existing, in)
		}
	}
	rec := domain.Normalize(in)

	if err := l.offloadScreenshot(ctx, &rec); err != nil {
		return domain.TradeRecord{}, err
	}

	if err := l.repo.UpsertTrade(ctx, l.principal, rec); err != nil {
		return domain.TradeRecord{}, fmt.Errorf("persist trade %s: %w", rec.ID, err)
	}

	l.mu.Lock()
	replaced := false
	for i := range l.trades {
		if l.trades[i].ID == rec.ID {
			l.trades[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		l.trades = append(l.trades, rec)
	}
	domain.SortTradesByDate(l.trades)
	l.mu.Unlock()

	l.notifier.Broadcast(Event{Scope: domain.ScopeTrades, Principal: l.principal})
	return rec, nil
}

// DeleteTrade removes the record, then tries to clean up any offloaded
// screenshot. The trade deletion is the authoritative operation; a
// failed blob delete is logged and otherwise ignored.
func (l *Ledger) DeleteTrade(ctx context.Context, id string) error {
	if err := l.repo.DeleteTrade(ctx, l.principal, id); err != nil {
		return err
	}

	if l.blobs != nil {
		if err := l.blobs.Delete(ctx, l.principal, id); err != nil {
			l.logger.Warn().Err(err).Str("trade", id).Msg("screenshot cleanup failed")
		}
	}

	l.mu.Lock()
	for i := range l.trades {
		if l.trades[i].ID == id {
			l.trades = append(l.trades[:i], l.trades[i+1:]...)
			break
		}
	}
	l.mu.Unlock()

	l.notifier.Broadcast(Event{Scope: domain.ScopeTrades, Principal: l.principal})
	return nil
}

// SaveTransaction normalizes and persists a balance adjustment.
func (l *Ledger) SaveTransaction(ctx context.Context, in domain.TransactionInput, existingID string) (domain.Transaction, error) {
	if existingID != "" {
		if existing, ok := l.findTransaction(existingID); ok {
			in = mergeTransactionInput(existing, in)
		}
	}
	tx := domain.NormalizeTransaction(in)

	if err := l.repo.UpsertTransaction(ctx, l.principal, tx); err != nil {
		return domain.Transaction{}, fmt.Errorf("persist transaction %s: %w", tx.ID, err)
	}

	l.mu.Lock()
	replaced := false
	for i := range l.txs {
		if l.txs[i].ID == tx.ID {
			l.txs[i] = tx
			replaced = true
			break
		}
	}
	if !replaced {
		l.txs = append(l.txs, tx)
	}
	l.mu.Unlock()

	l.notifier.Broadcast(Event{Scope: domain.ScopeTransactions, Principal: l.principal})
	return tx, nil
}

func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	if err := l.repo.DeleteTransaction(ctx, l.principal, id); err != nil {
		return err
	}

	l.mu.Lock()
	for i := range l.txs {
		if l.txs[i].ID == id {
			l.txs = append(l.txs[:i], l.txs[i+1:]...)
			break
		}
	}
	l.mu.Unlock()

	l.notifier.Broadcast(Event{Scope: domain.ScopeTransactions, Principal: l.principal})
	return nil
}

// SetInitialBalance replaces the settings document's balance.
// Non-finite input is silently dropped.
func (l *Ledger) SetInitialBalance(ctx context.Context, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}

	settings := domain.AccountSettings{InitialBalance: value}
	if err := l.repo.SetSettings(ctx, l.principal, settings); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}

	l.mu.Lock()
	l.settings = settings
	l.mu.Unlock()

	l.notifier.Broadcast(Event{Scope: domain.ScopeSettings, Principal: l.principal})
	return nil
}

// ResetAll clears every trade, every transaction and the settings
// document for this principal. Atomicity is the backend's batch
// commit; a partial failure here must be surfaced prominently since it
// leaves the ledger ambiguous.
func (l *Ledger) ResetAll(ctx context.Context) error {
	if err := l.repo.ResetAll(ctx, l.principal); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}

	l.mu.Lock()
	l.trades = nil
	l.txs = nil
	l.settings = domain.AccountSettings{}
	l.mu.Unlock()

	for _, scope := range []domain.Scope{domain.ScopeTrades, domain.ScopeTransactions, domain.ScopeSettings} {
		l.notifier.Broadcast(Event{Scope: scope, Principal: l.principal})
	}
	return nil
}

// onRemoteChange is the subscription callback: the remote snapshot is
// authoritative, so the in-memory copy is replaced and consumers are
// told. A failed reload keeps the previous snapshot.
func (l *Ledger) onRemoteChange(scope domain.Scope) {
	if err := l.Refresh(context.Background()); err != nil {
		l.logger.Warn().Err(err).Str("scope", string(scope)).Msg("reload after remote change failed")
		return
	}
	l.notifier.Broadcast(Event{Scope: scope, Principal: l.principal})
}

func (l *Ledger) findTrade(id string) (domain.TradeRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.trades {
		if t.ID == id {
			return t, true
		}
	}
	return domain.TradeRecord{}, false
}

func (l *Ledger) findTransaction(id string) (domain.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, tx := range l.txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return domain.Transaction{}, false
}

// offloadScreenshot moves an oversized inline image into blob storage
// and swaps the reference. Small payloads and plain URLs stay as-is.
func (l *Ledger) offloadScreenshot(ctx context.Context, rec *domain.TradeRecord) error {
	if len(rec.Screenshot) <= l.inlineLimit {
		return nil
	}
	contentType, data, ok := blob.DecodeDataURL(rec.Screenshot)
	if !ok {
		return nil
	}
	if l.blobs == nil {
		l.logger.Warn().Str("trade", rec.ID).Msg("oversized inline screenshot kept inline: no blob storage configured")
		return nil
	}
	url, err := l.blobs.Put(ctx, l.principal, rec.ID, data, contentType)
	if err != nil {
		return fmt.Errorf("offload screenshot for trade %s: %w", rec.ID, err)
	}
	rec.Screenshot = url
	return nil
}

// mergeTradeInput fills blank input fields from the stored record so a
// sparse update behaves like a shallow merge where provided fields win.
// The stored status is carried only while the profit is untouched: once
// the update supplies a new profit, the outcome is re-derived from its
// sign instead of being treated as a caller override.
func mergeTradeInput(existing domain.TradeRecord, in domain.TradeInput) domain.TradeInput {
	profitOmitted := in.Profit == nil
	in.ID = existing.ID
	if in.Instrument == "" {
		in.Instrument = existing.Instrument
	}
	if in.Direction == "" {
		in.Direction = string(existing.Direction)
	}
	if in.LotSize == "" {
		in.LotSize = existing.LotSize
	}
	if in.EntryTime == "" {
		in.EntryTime = existing.EntryTime
	}
	if in.ExitTime == "" {
		in.ExitTime = existing.ExitTime
	}
	if in.RiskReward == nil {
		in.RiskReward = existing.RiskReward
	}
	if in.Strategy == "" {
		in.Strategy = existing.Strategy
	}
	if in.Profit == nil {
		in.Profit = existing.Profit
	}
	if in.Status == "" && in.Result == "" && profitOmitted {
		in.Status = string(existing.Status)
	}
	if in.Date == "" {
		in.Date = existing.Date
	}
	if in.Notes == "" {
		in.Notes = existing.Notes
	}
	if in.Screenshot == "" {
		in.Screenshot = existing.Screenshot
	}
	return in
}

func mergeTransactionInput(existing domain.Transaction, in domain.TransactionInput) domain.TransactionInput {
	in.ID = existing.ID
	if in.Type == "" {
		in.Type = string(existing.Type)
	}
	if in.Amount == nil {
		in.Amount = existing.Amount
	}
	if in.Date == "" {
		in.Date = existing.Date
	}
	if in.Notes == "" {
		in.Notes = existing.Notes
	}
	return in
}
