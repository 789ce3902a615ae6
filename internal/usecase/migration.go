package usecase

import (
	"context"
	"fmt"

	"tradetrack-backend/internal/domain"
)

// LedgerImporter is implemented by backends that can take a whole
// dataset in one batched atomic commit. Migration prefers it over
// record-at-a-time writes.
type LedgerImporter interface {
	ImportAll(ctx context.Context, principal string, trades []domain.TradeRecord, txs []domain.Transaction, settings *domain.AccountSettings) error
}

// migrateLocal copies any pre-existing local-fallback data into the
// principal's remote collections, then clears the local copy. Record
// ids double as document keys, so running this twice overwrites
// instead of duplicating; after the local clear a second run is a
// no-op anyway.
func (s *Sessions) migrateLocal(ctx context.Context, principal string) error {
	trades, err := s.local.ListTrades(ctx, domain.LocalPrincipal)
	if err != nil {
		return err
	}
	txs, err := s.local.ListTransactions(ctx, domain.LocalPrincipal)
	if err != nil {
		return err
	}
	settings, err := s.local.GetSettings(ctx, domain.LocalPrincipal)
	if err != nil {
		return err
	}

	hasSettings := settings != (domain.AccountSettings{})
	if len(trades) == 0 && len(txs) == 0 && !hasSettings {
		return nil
	}

	if importer, ok := s.remote.(LedgerImporter); ok {
		var sp *domain.AccountSettings
		if hasSettings {
			sp = &settings
		}
		if err := importer.ImportAll(ctx, principal, trades, txs, sp); err != nil {
			return err
		}
	} else {
		for _, t := range trades {
			if err := s.remote.UpsertTrade(ctx, principal, t); err != nil {
				return fmt.Errorf("migrate trade %s: %w", t.ID, err)
			}
		}
		for _, tx := range txs {
			if err := s.remote.UpsertTransaction(ctx, principal, tx); err != nil {
				return fmt.Errorf("migrate transaction %s: %w", tx.ID, err)
			}
		}
		if hasSettings {
			if err := s.remote.SetSettings(ctx, principal, settings); err != nil {
				return fmt.Errorf("migrate settings: %w", err)
			}
		}
	}

	if err := s.local.ResetAll(ctx, domain.LocalPrincipal); err != nil {
		return fmt.Errorf("clear local data after migration: %w", err)
	}

	s.logger.Info().
		Str("principal", principal).
		Int("trades", len(trades)).
		Int("transactions", len(txs)).
		Msg("migrated local journal to remote backend")
	return nil
}
