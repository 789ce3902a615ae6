package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"tradetrack-backend/internal/domain"
)

// Sessions hands out one Ledger per principal. The unauthenticated
// session runs against the local fallback store; authenticated
// sessions run against the remote backend, after the one-shot
// migration of any pre-existing local data.
type Sessions struct {
	local       domain.LedgerRepository
	remote      domain.LedgerRepository // nil for local-only deployments
	blobs       BlobStore
	notifier    *Notifier
	logger      zerolog.Logger
	inlineLimit int

	mu      sync.Mutex
	ledgers map[string]*Ledger
	watches map[string]context.CancelFunc
}

func NewSessions(local, remote domain.LedgerRepository, blobs BlobStore, notifier *Notifier, logger zerolog.Logger, inlineLimit int) *Sessions {
	return &Sessions{
		local:       local,
		remote:      remote,
		blobs:       blobs,
		notifier:    notifier,
		logger:      logger.With().Str("component", "Sessions").Logger(),
		inlineLimit: inlineLimit,
		ledgers:     make(map[string]*Ledger),
		watches:     make(map[string]context.CancelFunc),
	}
}

// Ledger resolves the session for a principal, creating and priming it
// on first use. An empty principal, or a deployment without a remote
// backend, yields the local-fallback session.
func (s *Sessions) Ledger(ctx context.Context, principal string) (*Ledger, error) {
	if s.remote == nil {
		principal = domain.LocalPrincipal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ledger, ok := s.ledgers[principal]; ok {
		return ledger, nil
	}

	repo := s.local
	var blobs BlobStore
	if principal != domain.LocalPrincipal {
		repo = s.remote
		blobs = s.blobs
		if err := s.migrateLocal(ctx, principal); err != nil {
			return nil, fmt.Errorf("migrate local data for %s: %w", principal, err)
		}
	}

	ledger := NewLedger(principal, repo, blobs, s.notifier, s.logger, s.inlineLimit)
	if err := ledger.Refresh(ctx); err != nil {
		return nil, err
	}

	if principal != domain.LocalPrincipal {
		if watcher, ok := repo.(domain.LedgerWatcher); ok {
			watchCtx, cancel := context.WithCancel(context.Background())
			if err := watcher.Watch(watchCtx, principal, ledger.onRemoteChange); err != nil {
				cancel()
				s.logger.Warn().Err(err).Str("principal", principal).Msg("remote subscription unavailable")
			} else {
				s.watches[principal] = cancel
			}
		}
	}

	s.ledgers[principal] = ledger
	return ledger, nil
}

// Directory exposes principal enumeration for the admin surface, when
// the active backend supports it.
func (s *Sessions) Directory() (domain.PrincipalDirectory, bool) {
	repo := s.remote
	if repo == nil {
		repo = s.local
	}
	dir, ok := repo.(domain.PrincipalDirectory)
	return dir, ok
}

// Repository returns the backend a given principal's data lives in.
func (s *Sessions) Repository(principal string) domain.LedgerRepository {
	if principal == domain.LocalPrincipal || s.remote == nil {
		return s.local
	}
	return s.remote
}

func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.watches {
		cancel()
	}
	s.watches = make(map[string]context.CancelFunc)
}
