package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendwise/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the persistence boundary for the whole ledger:
// transactions, the category set and savings goals. Every write is a full,
// committed statement or transaction; there are no partial updates.
type SQLiteRepository struct {
	db *sql.DB
}

// PendingSyncTransaction is the minimal row shape the mirror worker needs
// to queue a sync.
type PendingSyncTransaction struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- transactions ---

// ListTransactions returns the full ledger in insertion order. The
// aggregation engine operates on this snapshot; callers wanting
// newest-first display should reverse it themselves.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, category, tx_date FROM transactions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// RecentTransactions returns up to limit transactions, newest date first.
func (r *SQLiteRepository) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, category, tx_date
		 FROM transactions ORDER BY tx_date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		var (
			tx      core.Transaction
			dateStr string
		)
		if err := rows.Scan(&tx.ID, &tx.Description, &tx.Amount.Cents, &tx.Category, &dateStr); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", dateStr, err)
		}
		tx.Date = d
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// AppendTransaction inserts one transaction and returns its assigned id.
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (description, amount_cents, category, tx_date, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		tx.Description, tx.Amount.Cents, tx.Category, tx.Date.String(), nowRFC3339())
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category)
	return id, nil
}

// GetTransaction fetches a single transaction, or nil when it is gone.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	var (
		tx      core.Transaction
		dateStr string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, description, amount_cents, category, tx_date FROM transactions WHERE id = ?`, id).
		Scan(&tx.ID, &tx.Description, &tx.Amount.Cents, &tx.Category, &dateStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	tx.Date = d
	return &tx, nil
}

// DeleteTransaction removes a transaction by id. Deleting a missing id is
// not an error; the caller treats it as a no-op.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// --- categories ---

// ListCategories returns the category set in its persisted order.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return names, nil
}

func (r *SQLiteRepository) CategoryExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("category exists %q: %w", name, err)
	}
	return true, nil
}

func (r *SQLiteRepository) CountCategories(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// AddCategory appends a category at the end of the ordered set.
func (r *SQLiteRepository) AddCategory(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, position)
		 SELECT ?, COALESCE(MAX(position), 0) + 1 FROM categories`, name)
	if err != nil {
		return fmt.Errorf("insert category %q: %w", name, err)
	}
	return nil
}

// DeleteCategoryReassigning removes a category and retags every transaction
// that referenced it to the fallback bucket, in a single SQL transaction.
// It returns how many transactions were reassigned.
func (r *SQLiteRepository) DeleteCategoryReassigning(ctx context.Context, name string) (int64, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete category: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx,
		`UPDATE transactions SET category = ? WHERE category = ?`, core.FallbackCategory, name)
	if err != nil {
		return 0, fmt.Errorf("reassign transactions: %w", err)
	}
	reassigned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, name); err != nil {
		return 0, fmt.Errorf("delete category %q: %w", name, err)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete category: %w", err)
	}

	slog.InfoContext(ctx, "Category deleted",
		"name", name,
		"reassigned_transactions", reassigned,
		"fallback", core.FallbackCategory)
	return reassigned, nil
}

// --- goals ---

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, target_cents, target_date, current_cents, created_at
		 FROM goals ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

// GetGoal fetches a goal by id, or nil when it is gone.
func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (*core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, target_cents, target_date, current_cents, created_at
		 FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanGoal(scan func(...any) error) (core.Goal, error) {
	var (
		g          core.Goal
		dateStr    string
		createdStr string
	)
	if err := scan(&g.ID, &g.Name, &g.TargetAmount.Cents, &dateStr, &g.CurrentAmount.Cents, &createdStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Goal{}, err
		}
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse stored target date %q: %w", dateStr, err)
	}
	g.TargetDate = d
	createdAt, err := time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse stored created_at %q: %w", createdStr, err)
	}
	g.CreatedAt = createdAt
	return g, nil
}

func (r *SQLiteRepository) AddGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, name, target_cents, target_date, current_cents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.TargetAmount.Cents, g.TargetDate.String(), g.CurrentAmount.Cents,
		g.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert goal %q: %w", g.Name, err)
	}

	slog.InfoContext(ctx, "Goal saved",
		"id", g.ID,
		"name", g.Name,
		"target_cents", g.TargetAmount.Cents,
		"target_date", g.TargetDate.String())
	return nil
}

// UpdateGoal overwrites a goal's editable fields (name, target, deadline).
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, target_cents = ?, target_date = ? WHERE id = ?`,
		g.Name, g.TargetAmount.Cents, g.TargetDate.String(), g.ID)
	if err != nil {
		return false, fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete goal %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ContributeToGoal persists a contribution as one atomic unit: the goal's
// new running amount and the linked expense transaction either both land
// or neither does.
func (r *SQLiteRepository) ContributeToGoal(ctx context.Context, updated core.Goal, linked core.Transaction) (int64, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin contribution: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx,
		`UPDATE goals SET current_cents = ? WHERE id = ?`, updated.CurrentAmount.Cents, updated.ID)
	if err != nil {
		return 0, fmt.Errorf("update goal amount: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return 0, sql.ErrNoRows
	}

	ins, err := dbTx.ExecContext(ctx,
		`INSERT INTO transactions (description, amount_cents, category, tx_date, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		linked.Description, linked.Amount.Cents, linked.Category, linked.Date.String(), nowRFC3339())
	if err != nil {
		return 0, fmt.Errorf("insert contribution transaction: %w", err)
	}
	txID, err := ins.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("contribution transaction id: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit contribution: %w", err)
	}

	slog.InfoContext(ctx, "Goal contribution saved",
		"goal_id", updated.ID,
		"current_cents", updated.CurrentAmount.Cents,
		"transaction_id", txID)
	return txID, nil
}

// --- mirror sync bookkeeping ---

// GetPendingSyncTransactions returns transactions not yet mirrored to the
// backup ledger, oldest first.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM transactions
		 WHERE synced = 0 AND sync_error = 0 ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncTransaction
	for rows.Next() {
		var (
			p          PendingSyncTransaction
			createdStr string
		)
		if err := rows.Scan(&p.ID, &p.Version, &createdStr); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		createdAt, err := time.Parse(time.RFC3339, createdStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored created_at %q: %w", createdStr, err)
		}
		p.CreatedAt = createdAt
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync: %w", err)
	}
	return pending, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET synced = 1, sync_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
