// Package storage keeps a SQLite journal of committed records so the
// in-memory store can be rebuilt after a restart.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/store"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

type RepositoryOption func(*SQLiteRepository)

func WithLogger(logger *slog.Logger) RepositoryOption {
	return func(r *SQLiteRepository) { r.logger = logger }
}

func NewSQLiteRepository(dbPath string, opts ...RepositoryOption) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Serialize writers; the journal is written from one observer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	r := &SQLiteRepository{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Observe is a store.Observer. Journal failures are logged and never
// reach the caller of the store mutation.
func (r *SQLiteRepository) Observe(ctx context.Context, e store.Event) {
	if err := r.Record(ctx, e); err != nil {
		r.logger.ErrorContext(ctx, "Failed to journal event",
			"kind", e.Kind,
			"error", err)
	}
}

// Record writes one committed store event to the journal.
func (r *SQLiteRepository) Record(ctx context.Context, e store.Event) error {
	switch e.Kind {
	case store.TransactionAdded:
		return insertTransaction(ctx, r.db, *e.Transaction)
	case store.PaymentAdded:
		return insertPayment(ctx, r.db, *e.Payment)
	case store.ShiftAdded:
		return insertShift(ctx, r.db, *e.Shift)
	case store.PaymentStatusChanged:
		return r.updatePaymentStatus(ctx, e.Payment.ID, e.Payment.Status, e.At)
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, db execer, tx core.Transaction) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (id, type, category, amount_cents, description, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, string(tx.Type), tx.Category, tx.Amount.Cents, tx.Description,
		tx.Date.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
	}
	return nil
}

func insertPayment(ctx context.Context, db execer, p core.Payment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO payments (id, name, amount_cents, due_date, status, type)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Amount.Cents, p.DueDate.Format(dateLayout), string(p.Status), string(p.Type))
	if err != nil {
		return fmt.Errorf("insert payment %s: %w", p.ID, err)
	}
	return nil
}

func insertShift(ctx context.Context, db execer, s core.Shift) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO shifts (id, work_date, hours, hourly_rate_cents, bonus_cents, deductions_cents)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.Date.Format(dateLayout), s.Hours.String(), s.HourlyRate.Cents,
		nullCents(s.Bonus), nullCents(s.Deductions))
	if err != nil {
		return fmt.Errorf("insert shift %s: %w", s.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) updatePaymentStatus(ctx context.Context, id string, status core.PaymentStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), at.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("update payment %s status: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update payment %s status: %w", id, &core.NotFoundError{Kind: "payment", ID: id})
	}

	r.logger.DebugContext(ctx, "Payment status journaled", "id", id, "status", status)
	return nil
}

// Import writes every record of snap in a single transaction. It is used to
// persist seed data into an empty journal. snap is in store order, so it is
// written back to front to keep the journal oldest first.
func (r *SQLiteRepository) Import(ctx context.Context, snap store.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for i := len(snap.Transactions) - 1; i >= 0; i-- {
		if err := insertTransaction(ctx, tx, snap.Transactions[i]); err != nil {
			return err
		}
	}
	for i := len(snap.Payments) - 1; i >= 0; i-- {
		if err := insertPayment(ctx, tx, snap.Payments[i]); err != nil {
			return err
		}
	}
	for i := len(snap.Shifts) - 1; i >= 0; i-- {
		if err := insertShift(ctx, tx, snap.Shifts[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	r.logger.InfoContext(ctx, "Snapshot imported into journal", "records", snap.Len())
	return nil
}

// Load reads the whole journal back as a snapshot in store order (most
// recent first), ready for store.Restore.
func (r *SQLiteRepository) Load(ctx context.Context) (store.Snapshot, error) {
	var snap store.Snapshot
	var err error

	if snap.Transactions, err = r.loadTransactions(ctx); err != nil {
		return store.Snapshot{}, err
	}
	if snap.Payments, err = r.loadPayments(ctx); err != nil {
		return store.Snapshot{}, err
	}
	if snap.Shifts, err = r.loadShifts(ctx); err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

func (r *SQLiteRepository) loadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, category, amount_cents, description, occurred_at
		FROM transactions ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx         core.Transaction
			typ, when  string
			amountCent int64
		)
		if err := rows.Scan(&tx.ID, &typ, &tx.Category, &amountCent, &tx.Description, &when); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, when)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: parse date %q: %w", tx.ID, when, err)
		}
		tx.Type = core.TransactionType(typ)
		tx.Amount = core.Money{Cents: amountCent}
		tx.Date = t
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) loadPayments(ctx context.Context) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount_cents, due_date, status, type
		FROM payments ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var (
			p                core.Payment
			due, status, typ string
			amountCents      int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &amountCents, &due, &status, &typ); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		d, err := core.ParseDate(due)
		if err != nil {
			return nil, fmt.Errorf("payment %s: %w", p.ID, err)
		}
		p.Amount = core.Money{Cents: amountCents}
		p.DueDate = d
		p.Status = core.PaymentStatus(status)
		p.Type = core.PaymentType(typ)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) loadShifts(ctx context.Context) ([]core.Shift, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, work_date, hours, hourly_rate_cents, bonus_cents, deductions_cents
		FROM shifts ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("query shifts: %w", err)
	}
	defer rows.Close()

	var out []core.Shift
	for rows.Next() {
		var (
			s                 core.Shift
			date, hours       string
			rateCents         int64
			bonus, deductions sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &date, &hours, &rateCents, &bonus, &deductions); err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("shift %s: %w", s.ID, err)
		}
		h, err := decimal.NewFromString(hours)
		if err != nil {
			return nil, fmt.Errorf("shift %s: parse hours %q: %w", s.ID, hours, err)
		}
		s.Date = d
		s.Hours = h
		s.HourlyRate = core.Money{Cents: rateCents}
		s.Bonus = centsPtr(bonus)
		s.Deductions = centsPtr(deductions)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shifts: %w", err)
	}
	return out, nil
}

// IsEmpty reports whether the journal holds no records at all.
func (r *SQLiteRepository) IsEmpty(ctx context.Context) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM transactions)
		     + (SELECT COUNT(*) FROM payments)
		     + (SELECT COUNT(*) FROM shifts)`).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count journal records: %w", err)
	}
	return n == 0, nil
}

func nullCents(m *core.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: m.Cents, Valid: true}
}

func centsPtr(n sql.NullInt64) *core.Money {
	if !n.Valid {
		return nil
	}
	return &core.Money{Cents: n.Int64}
}
