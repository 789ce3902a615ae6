package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradetrack-backend/internal/domain"
)

// Postgres is the pgx-backed LedgerRepository for self-hosted
// deployments that prefer a SQL store over Firestore. Rows are keyed
// by (principal, id), matching the document-store layout.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (r *Postgres) ListTrades(ctx context.Context, principal string) ([]domain.TradeRecord, error) {
	rows, err := r.pool.Query(ctx, `
		select id, instrument, direction, lot_size, entry_time, exit_time,
			risk_reward, strategy, profit, status, date, notes, screenshot
		from trades
		where principal = $1
		order by date asc`, principal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		if err := rows.Scan(
			&t.ID, &t.Instrument, &t.Direction, &t.LotSize, &t.EntryTime,
			&t.ExitTime, &t.RiskReward, &t.Strategy, &t.Profit, &t.Status,
			&t.Date, &t.Notes, &t.Screenshot,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Postgres) UpsertTrade(ctx context.Context, principal string, t domain.TradeRecord) error {
	_, err := r.pool.Exec(ctx, `
		insert into trades
		(principal, id, instrument, direction, lot_size, entry_time, exit_time,
			risk_reward, strategy, profit, status, date, notes, screenshot)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		on conflict (principal, id) do update set
			instrument = excluded.instrument,
			direction = excluded.direction,
			lot_size = excluded.lot_size,
			entry_time = excluded.entry_time,
			exit_time = excluded.exit_time,
			risk_reward = excluded.risk_reward,
			strategy = excluded.strategy,
			profit = excluded.profit,
			status = excluded.status,
			date = excluded.date,
			notes = excluded.notes,
			screenshot = excluded.screenshot`,
		principal, t.ID, t.Instrument, t.Direction, t.LotSize, t.EntryTime,
		t.ExitTime, t.RiskReward, t.Strategy, t.Profit, t.Status, t.Date,
		t.Notes, t.Screenshot,
	)
	return err
}

func (r *Postgres) DeleteTrade(ctx context.Context, principal string, id string) error {
	tag, err := r.pool.Exec(ctx,
		`delete from trades where principal = $1 and id = $2`, principal, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Postgres) ListTransactions(ctx context.Context, principal string) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		select id, type, amount, date, notes
		from transactions
		where principal = $1
		order by date asc`, principal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.Type, &tx.Amount, &tx.Date, &tx.Notes); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *Postgres) UpsertTransaction(ctx context.Context, principal string, tx domain.Transaction) error {
	_, err := r.pool.Exec(ctx, `
		insert into transactions (principal, id, type, amount, date, notes)
		values ($1,$2,$3,$4,$5,$6)
		on conflict (principal, id) do update set
			type = excluded.type,
			amount = excluded.amount,
			date = excluded.date,
			notes = excluded.notes`,
		principal, tx.ID, tx.Type, tx.Amount, tx.Date, tx.Notes,
	)
	return err
}

func (r *Postgres) DeleteTransaction(ctx context.Context, principal string, id string) error {
	tag, err := r.pool.Exec(ctx,
		`delete from transactions where principal = $1 and id = $2`, principal, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Postgres) GetSettings(ctx context.Context, principal string) (domain.AccountSettings, error) {
	var settings domain.AccountSettings
	err := r.pool.QueryRow(ctx,
		`select initial_balance from settings where principal = $1`, principal).
		Scan(&settings.InitialBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AccountSettings{}, nil
	}
	return settings, err
}

func (r *Postgres) SetSettings(ctx context.Context, principal string, settings domain.AccountSettings) error {
	_, err := r.pool.Exec(ctx, `
		insert into settings (principal, initial_balance)
		values ($1, $2)
		on conflict (principal) do update set initial_balance = excluded.initial_balance`,
		principal, settings.InitialBalance,
	)
	return err
}

// ResetAll clears all three collections in a single transaction.
func (r *Postgres) ResetAll(ctx context.Context, principal string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, stmt := range []string{
		`delete from trades where principal = $1`,
		`delete from transactions where principal = $1`,
		`delete from settings where principal = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, principal); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Postgres) Close() error {
	r.pool.Close()
	return nil
}

func (r *Postgres) ListPrincipals(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		select distinct principal from trades where principal <> ''
		union
		select distinct principal from settings where principal <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Postgres) IsAdmin(ctx context.Context, principal string) (bool, error) {
	var found string
	err := r.pool.QueryRow(ctx,
		`select principal from admins where principal = $1`, principal).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
