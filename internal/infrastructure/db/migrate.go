package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the minimal tables the ledger needs. This keeps
// setup simple (no external migration tool) while still giving
// durable persistence for self-hosted deployments.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists trades (
			principal text not null default '',
			id text not null,
			instrument text not null default '',
			direction text not null default 'buy',
			lot_size text not null default '',
			entry_time text not null default '',
			exit_time text not null default '',
			risk_reward double precision not null default 0,
			strategy text not null default '',
			profit double precision not null default 0,
			status text not null default 'win',
			date text not null default '',
			notes text not null default '',
			screenshot text not null default '',
			primary key (principal, id)
		);`,
		`create index if not exists trades_principal_date_idx on trades(principal, date);`,
		`create table if not exists transactions (
			principal text not null default '',
			id text not null,
			type text not null,
			amount double precision not null,
			date text not null default '',
			notes text not null default '',
			primary key (principal, id)
		);`,
		`create table if not exists settings (
			principal text primary key,
			initial_balance double precision not null default 0
		);`,
		`create table if not exists admins (
			principal text primary key
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
