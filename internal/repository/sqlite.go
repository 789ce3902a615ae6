package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"tradetrack-backend/internal/domain"
)

// sqliteSchema keys every row by (principal, id) so the local fallback
// store and the remote document store address records identically.
// That is what makes the local-to-remote migration an overwrite rather
// than an insert when run twice.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trades (
	principal TEXT NOT NULL DEFAULT '',
	id TEXT NOT NULL,
	instrument TEXT NOT NULL DEFAULT '',
	direction TEXT NOT NULL DEFAULT 'buy',
	lot_size TEXT NOT NULL DEFAULT '',
	entry_time TEXT NOT NULL DEFAULT '',
	exit_time TEXT NOT NULL DEFAULT '',
	risk_reward REAL NOT NULL DEFAULT 0,
	strategy TEXT NOT NULL DEFAULT '',
	profit REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'win',
	date TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	screenshot TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (principal, id)
);

CREATE TABLE IF NOT EXISTS transactions (
	principal TEXT NOT NULL DEFAULT '',
	id TEXT NOT NULL,
	type TEXT NOT NULL,
	amount REAL NOT NULL,
	date TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (principal, id)
);

CREATE TABLE IF NOT EXISTS settings (
	principal TEXT PRIMARY KEY,
	initial_balance REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(principal, date);
`

// SQLite is the process-local durable LedgerRepository. It plays the
// role browser local storage plays in the web client: the fallback
// backend while no authenticated principal is active, and the source
// side of the one-shot migration once one appears.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) ListTrades(ctx context.Context, principal string) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instrument, direction, lot_size, entry_time, exit_time,
			risk_reward, strategy, profit, status, date, notes, screenshot
		FROM trades
		WHERE principal = ?
		ORDER BY date ASC, rowid ASC`, principal)
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

func (s *SQLite) UpsertTrade(ctx context.Context, principal string, t domain.TradeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
		(principal, id, instrument, direction, lot_size, entry_time, exit_time,
			risk_reward, strategy, profit, status, date, notes, screenshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(principal, id) DO UPDATE SET
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

func (s *SQLite) DeleteTrade(ctx context.Context, principal string, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM trades WHERE principal = ? AND id = ?`, principal, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLite) ListTransactions(ctx context.Context, principal string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, amount, date, notes
		FROM transactions
		WHERE principal = ?
		ORDER BY date ASC, rowid ASC`, principal)
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

func (s *SQLite) UpsertTransaction(ctx context.Context, principal string, tx domain.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (principal, id, type, amount, date, notes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(principal, id) DO UPDATE SET
			type = excluded.type,
			amount = excluded.amount,
			date = excluded.date,
			notes = excluded.notes`,
		principal, tx.ID, tx.Type, tx.Amount, tx.Date, tx.Notes,
	)
	return err
}

func (s *SQLite) DeleteTransaction(ctx context.Context, principal string, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE principal = ? AND id = ?`, principal, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLite) GetSettings(ctx context.Context, principal string) (domain.AccountSettings, error) {
	var settings domain.AccountSettings
	err := s.db.QueryRowContext(ctx,
		`SELECT initial_balance FROM settings WHERE principal = ?`, principal).
		Scan(&settings.InitialBalance)
	if err == sql.ErrNoRows {
		return domain.AccountSettings{}, nil
	}
	return settings, err
}

func (s *SQLite) SetSettings(ctx context.Context, principal string, settings domain.AccountSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (principal, initial_balance)
		VALUES (?, ?)
		ON CONFLICT(principal) DO UPDATE SET initial_balance = excluded.initial_balance`,
		principal, settings.InitialBalance,
	)
	return err
}

// ResetAll clears all three collections inside one transaction, so a
// partial reset is never observable.
func (s *SQLite) ResetAll(ctx context.Context, principal string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM trades WHERE principal = ?`,
		`DELETE FROM transactions WHERE principal = ?`,
		`DELETE FROM settings WHERE principal = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, principal); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) Close() error { return s.db.Close() }

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
