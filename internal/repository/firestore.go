package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradetrack-backend/internal/domain"
)

const (
	usersCollection  = "users"
	adminsCollection = "admins"
	settingsDocID    = "account"
)

// Firestore is the principal-scoped remote LedgerRepository. Layout:
//
//	users/{principal}/trades/{id}
//	users/{principal}/transactions/{id}
//	users/{principal}/settings/account
//	admins/{principal}
//
// Document ids are the record ids, so repeating a write overwrites
// instead of inserting. ResetAll and the migration path rely on the
// store's batched commit for atomicity.
type Firestore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (r *Firestore) trades(principal string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection).Doc(principal).Collection("trades")
}

func (r *Firestore) transactions(principal string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection).Doc(principal).Collection("transactions")
}

func (r *Firestore) settings(principal string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(principal).
		Collection("settings").Doc(settingsDocID)
}

func (r *Firestore) ListTrades(ctx context.Context, principal string) ([]domain.TradeRecord, error) {
	iter := r.trades(principal).Documents(ctx)
	defer iter.Stop()

	var out []domain.TradeRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list trades for %s: %w", principal, err)
		}
		var t domain.TradeRecord
		if err := doc.DataTo(&t); err != nil {
			return nil, fmt.Errorf("decode trade %s: %w", doc.Ref.ID, err)
		}
		if t.ID == "" {
			t.ID = doc.Ref.ID
		}
		out = append(out, t)
	}
	domain.SortTradesByDate(out)
	return out, nil
}

func (r *Firestore) UpsertTrade(ctx context.Context, principal string, t domain.TradeRecord) error {
	_, err := r.trades(principal).Doc(t.ID).Set(ctx, t)
	return err
}

func (r *Firestore) DeleteTrade(ctx context.Context, principal string, id string) error {
	return r.deleteDoc(ctx, r.trades(principal).Doc(id))
}

func (r *Firestore) ListTransactions(ctx context.Context, principal string) ([]domain.Transaction, error) {
	iter := r.transactions(principal).Documents(ctx)
	defer iter.Stop()

	var out []domain.Transaction
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list transactions for %s: %w", principal, err)
		}
		var tx domain.Transaction
		if err := doc.DataTo(&tx); err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", doc.Ref.ID, err)
		}
		if tx.ID == "" {
			tx.ID = doc.Ref.ID
		}
		out = append(out, tx)
	}
	sortTransactionsByDate(out)
	return out, nil
}

func (r *Firestore) UpsertTransaction(ctx context.Context, principal string, tx domain.Transaction) error {
	_, err := r.transactions(principal).Doc(tx.ID).Set(ctx, tx)
	return err
}

func (r *Firestore) DeleteTransaction(ctx context.Context, principal string, id string) error {
	return r.deleteDoc(ctx, r.transactions(principal).Doc(id))
}

// deleteDoc keeps the not-found contract of the other backends:
// Firestore deletes are blind, so existence is checked first.
func (r *Firestore) deleteDoc(ctx context.Context, ref *firestore.DocumentRef) error {
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrNotFound
		}
		return err
	}
	_, err := ref.Delete(ctx)
	return err
}

func (r *Firestore) GetSettings(ctx context.Context, principal string) (domain.AccountSettings, error) {
	doc, err := r.settings(principal).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.AccountSettings{}, nil
		}
		return domain.AccountSettings{}, err
	}
	var settings domain.AccountSettings
	if err := doc.DataTo(&settings); err != nil {
		return domain.AccountSettings{}, err
	}
	return settings, nil
}

func (r *Firestore) SetSettings(ctx context.Context, principal string, settings domain.AccountSettings) error {
	_, err := r.settings(principal).Set(ctx, settings)
	return err
}

// ResetAll deletes every trade, every transaction and the settings
// document in one batched commit. Batches cap at 500 writes; a journal
// bigger than that is split and only the final batch carries the
// settings delete.
func (r *Firestore) ResetAll(ctx context.Context, principal string) error {
	refs, err := r.collectRefs(ctx, r.trades(principal))
	if err != nil {
		return err
	}
	txRefs, err := r.collectRefs(ctx, r.transactions(principal))
	if err != nil {
		return err
	}
	refs = append(refs, txRefs...)
	refs = append(refs, r.settings(principal))

	const batchLimit = 500
	for start := 0; start < len(refs); start += batchLimit {
		end := start + batchLimit
		if end > len(refs) {
			end = len(refs)
		}
		batch := r.client.Batch()
		for _, ref := range refs[start:end] {
			batch.Delete(ref)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("reset %s: %w", principal, err)
		}
	}
	return nil
}

func (r *Firestore) collectRefs(ctx context.Context, col *firestore.CollectionRef) ([]*firestore.DocumentRef, error) {
	iter := col.DocumentRefs(ctx)
	var out []*firestore.DocumentRef
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
}

// ImportAll writes a whole dataset in batched commits, used by the
// local-to-remote migration. Ids double as document keys so the import
// is an overwrite when repeated.
func (r *Firestore) ImportAll(ctx context.Context, principal string, trades []domain.TradeRecord, txs []domain.Transaction, settings *domain.AccountSettings) error {
	type write struct {
		ref *firestore.DocumentRef
		val any
	}
	writes := make([]write, 0, len(trades)+len(txs)+1)
	for _, t := range trades {
		writes = append(writes, write{r.trades(principal).Doc(t.ID), t})
	}
	for _, tx := range txs {
		writes = append(writes, write{r.transactions(principal).Doc(tx.ID), tx})
	}
	if settings != nil {
		writes = append(writes, write{r.settings(principal), *settings})
	}

	const batchLimit = 500
	for start := 0; start < len(writes); start += batchLimit {
		end := start + batchLimit
		if end > len(writes) {
			end = len(writes)
		}
		batch := r.client.Batch()
		for _, w := range writes[start:end] {
			batch.Set(w.ref, w.val)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("import for %s: %w", principal, err)
		}
	}
	return nil
}

func (r *Firestore) Close() error { return r.client.Close() }

// Watch streams change notifications for all three collections until
// ctx is cancelled. Every new snapshot, including the initial one,
// invokes onChange with the scope that changed.
func (r *Firestore) Watch(ctx context.Context, principal string, onChange func(domain.Scope)) error {
	go r.watchQuery(ctx, r.trades(principal).Query, domain.ScopeTrades, onChange)
	go r.watchQuery(ctx, r.transactions(principal).Query, domain.ScopeTransactions, onChange)
	go r.watchDoc(ctx, r.settings(principal), domain.ScopeSettings, onChange)
	return nil
}

func (r *Firestore) watchQuery(ctx context.Context, q firestore.Query, scope domain.Scope, onChange func(domain.Scope)) {
	iter := q.Snapshots(ctx)
	defer iter.Stop()
	for {
		if _, err := iter.Next(); err != nil {
			return
		}
		onChange(scope)
	}
}

func (r *Firestore) watchDoc(ctx context.Context, ref *firestore.DocumentRef, scope domain.Scope, onChange func(domain.Scope)) {
	iter := ref.Snapshots(ctx)
	defer iter.Stop()
	for {
		if _, err := iter.Next(); err != nil {
			return
		}
		onChange(scope)
	}
}

// ListPrincipals walks the user document refs. DocumentRefs also
// yields parents that only exist through their subcollections, which
// is the normal shape for this layout.
func (r *Firestore) ListPrincipals(ctx context.Context) ([]string, error) {
	iter := r.client.Collection(usersCollection).DocumentRefs(ctx)
	var out []string
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ref.ID)
	}
}

func (r *Firestore) IsAdmin(ctx context.Context, principal string) (bool, error) {
	_, err := r.client.Collection(adminsCollection).Doc(principal).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
