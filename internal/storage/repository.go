// Package storage implements ledger.Store on SQL databases: an embedded SQLite
// file for single-user installs and Postgres (Supabase) for hosted ones.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/loan"
	"finanzas/internal/log"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string { return string(d) }

// timeLayout is fixed width so that timestamps stored as text sort correctly.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Repository is a ledger.Store backed by database/sql. Queries are written
// with ? placeholders and rebound for Postgres.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	logger  *log.Logger
}

var _ ledger.Store = (*Repository)(nil)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	repo, err := open(SQLite, dbPath, logger)
	if err != nil {
		return nil, err
	}
	repo.db.SetMaxOpenConns(1)
	return repo, nil
}

func NewPostgresRepository(dsn string, logger *log.Logger) (*Repository, error) {
	return open(Postgres, dsn, logger)
}

func open(d Dialect, dsn string, logger *log.Logger) (*Repository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:      db,
		dialect: d,
		now:     time.Now,
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rebind turns ? placeholders into $1..$n for Postgres.
func (r *Repository) rebind(q string) string {
	if r.dialect != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

const txColumns = `id, owner_id, kind, description, amount_cents, category, date,
	is_recurring, recurrence_interval_days, notes, last_occurrence, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		tx                   core.Transaction
		kind, category       string
		cents                int64
		interval             int64
		date, last           string
		createdAt, updatedAt string
	)
	err := s.Scan(&tx.ID, &tx.OwnerID, &kind, &tx.Description, &cents, &category, &date,
		&tx.IsRecurring, &interval, &tx.Notes, &last, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Kind = core.Kind(kind)
	tx.Category = core.Category(category)
	tx.Amount = core.Cents(cents)
	tx.RecurrenceIntervalDays = int(interval)

	if tx.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	if last != "" {
		if tx.LastOccurrence, err = core.ParseDate(last); err != nil {
			return core.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
	}
	if tx.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s created_at: %w", tx.ID, err)
	}
	if tx.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s updated_at: %w", tx.ID, err)
	}
	return tx, nil
}

func dateText(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func (r *Repository) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	now := r.now().UTC()
	tx.ID = uuid.NewString()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	q := r.rebind(`INSERT INTO transactions (` + txColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		tx.ID, tx.OwnerID, string(tx.Kind), tx.Description, tx.Amount.Cents, string(tx.Category), tx.Date.String(),
		tx.IsRecurring, tx.RecurrenceIntervalDays, tx.Notes, dateText(tx.LastOccurrence),
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	r.logger.DebugContext(ctx, "Transaction stored",
		log.NewFields().
			WithOwner(tx.OwnerID).
			WithTransaction(tx.ID, string(tx.Kind), string(tx.Category), tx.Amount.Cents, tx.Date.String()).
			WithOperation(log.OpCreate).
			ToSlice()...)
	return tx, nil
}

func (r *Repository) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	cur, err := r.Get(ctx, tx.OwnerID, tx.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.CreatedAt = cur.CreatedAt
	tx.UpdatedAt = r.now().UTC()
	if tx.LastOccurrence.IsZero() {
		tx.LastOccurrence = cur.LastOccurrence
	}

	q := r.rebind(`UPDATE transactions SET kind = ?, description = ?, amount_cents = ?, category = ?,
		date = ?, is_recurring = ?, recurrence_interval_days = ?, notes = ?, last_occurrence = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`)
	res, err := r.db.ExecContext(ctx, q,
		string(tx.Kind), tx.Description, tx.Amount.Cents, string(tx.Category), tx.Date.String(),
		tx.IsRecurring, tx.RecurrenceIntervalDays, tx.Notes, dateText(tx.LastOccurrence),
		tx.UpdatedAt.Format(timeLayout), tx.ID, tx.OwnerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := affectedOne(res); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM transactions WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affectedOne(res)
}

func (r *Repository) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT `+txColumns+` FROM transactions WHERE id = ? AND owner_id = ?`), id, ownerID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *Repository) List(ctx context.Context, ownerID string, f ledger.Filter) ([]core.Transaction, error) {
	var (
		where = []string{"owner_id = ?"}
		args  = []any{ownerID}
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To.String())
	}
	q := `SELECT ` + txColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date, created_at, id`
	return r.queryTransactions(ctx, r.rebind(q), args...)
}

func (r *Repository) ListRecurring(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		r.rebind(`SELECT `+txColumns+` FROM transactions WHERE is_recurring = ? ORDER BY date, created_at, id`), true)
}

func (r *Repository) queryTransactions(ctx context.Context, q string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) MarkOccurrence(ctx context.Context, ownerID, id string, last core.Date) error {
	res, err := r.db.ExecContext(ctx,
		r.rebind(`UPDATE transactions SET last_occurrence = ?, updated_at = ? WHERE id = ? AND owner_id = ?`),
		dateText(last), r.now().UTC().Format(timeLayout), id, ownerID)
	if err != nil {
		return fmt.Errorf("mark occurrence: %w", err)
	}
	return affectedOne(res)
}

func (r *Repository) SaveSimulation(ctx context.Context, s loan.Saved) (loan.Saved, error) {
	s.ID = uuid.NewString()
	s.CreatedAt = r.now().UTC()
	_, err := r.db.ExecContext(ctx, r.rebind(`INSERT INTO saved_simulations
		(id, owner_id, name, principal, annual_rate_percent, term_months, monthly_payment, total_interest, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, s.OwnerID, s.Name, s.Principal, s.AnnualRatePercent, s.TermMonths,
		s.MonthlyPayment, s.TotalInterest, s.CreatedAt.Format(timeLayout))
	if err != nil {
		return loan.Saved{}, fmt.Errorf("insert simulation: %w", err)
	}
	return s, nil
}

func (r *Repository) ListSimulations(ctx context.Context, ownerID string) ([]loan.Saved, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT id, owner_id, name, principal, annual_rate_percent,
		term_months, monthly_payment, total_interest, created_at
		FROM saved_simulations WHERE owner_id = ? ORDER BY created_at DESC, id`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("query simulations: %w", err)
	}
	defer rows.Close()

	out := make([]loan.Saved, 0)
	for rows.Next() {
		var (
			s         loan.Saved
			term      int64
			createdAt string
		)
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Principal, &s.AnnualRatePercent,
			&term, &s.MonthlyPayment, &s.TotalInterest, &createdAt); err != nil {
			return nil, fmt.Errorf("scan simulation: %w", err)
		}
		s.TermMonths = int(term)
		if s.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("simulation %s created_at: %w", s.ID, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulations: %w", err)
	}
	return out, nil
}

func (r *Repository) DeleteSimulation(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		r.rebind(`DELETE FROM saved_simulations WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return fmt.Errorf("delete simulation: %w", err)
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
