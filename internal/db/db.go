package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/shopspring/decimal"

	"github.com/lox/walletwise/internal/types"
)

const (
	// DefaultLimit is the number of transactions returned when no limit is given
	DefaultLimit = 50

	// dates are stored as fixed-width UTC text so they sort lexically
	dateLayout = "2006-01-02 15:04:05.000000000"
)

var (
	// ErrMissingFields is returned when a transaction lacks an amount, payee or UPI ID
	ErrMissingFields = errors.New("missing required transaction fields")

	// ErrInvalidAmount is returned when the amount is not a positive number
	ErrInvalidAmount = errors.New("invalid transaction amount")

	// ErrNotFound is returned when a transaction ID doesn't exist
	ErrNotFound = errors.New("transaction not found")
)

// DB represents a SQLite database connection
type DB struct {
	db       *sql.DB
	logger   *log.Logger
	timezone *time.Location
	now      func() time.Time
}

// New creates a new database connection, applying any pending migrations.
// timezone is used to bucket transactions into calendar months.
func New(dataDir string, logger *log.Logger, timezone *time.Location) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "walletwise.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set database pragmas: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	if timezone == nil {
		timezone = time.Local
	}

	logger.Debug("Opened database", "path", dbPath, "timezone", timezone)

	return &DB{
		db:       db,
		logger:   logger,
		timezone: timezone,
		now:      time.Now,
	}, nil
}

// SaveTransaction validates and stores a confirmed payment, stamped with the current time
func (d *DB) SaveTransaction(ctx context.Context, nt types.NewTransaction) (*types.Transaction, error) {
	if strings.TrimSpace(nt.Amount) == "" || strings.TrimSpace(nt.Payee) == "" || strings.TrimSpace(nt.UPIID) == "" {
		return nil, ErrMissingFields
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(nt.Amount))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, nt.Amount)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %q must be greater than zero", ErrInvalidAmount, nt.Amount)
	}

	category := nt.Category
	if category == "" {
		category = types.CategoryFood
	}

	tx := &types.Transaction{
		ID:       uuid.NewString(),
		Amount:   amount,
		Payee:    nt.Payee,
		UPIID:    nt.UPIID,
		Notes:    nt.Notes,
		Category: category,
		Date:     d.now().UTC(),
	}

	d.logger.Debug("Storing transaction", "id", tx.ID, "amount", tx.Amount, "payee", tx.Payee, "upi_id", tx.UPIID)

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount, payee, upi_id, notes, category, transaction_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.Amount.String(), tx.Payee, tx.UPIID, tx.Notes, tx.Category, tx.Date.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	return tx, nil
}

// Get returns a single transaction by ID
func (d *DB) Get(ctx context.Context, id string) (*types.Transaction, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, amount, payee, upi_id, notes, category, transaction_date
		FROM transactions WHERE id = ?
	`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return &tx, nil
}

// GetTransactions returns the most recent transactions, newest first.
// A limit of zero or less uses DefaultLimit.
func (d *DB) GetTransactions(ctx context.Context, limit int) ([]types.Transaction, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, amount, payee, upi_id, notes, category, transaction_date
		FROM transactions
		ORDER BY transaction_date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	return scanTransactions(rows)
}

// GetTransactionsBetween returns transactions dated within [start, end], newest first
func (d *DB) GetTransactionsBetween(ctx context.Context, start, end time.Time) ([]types.Transaction, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, amount, payee, upi_id, notes, category, transaction_date
		FROM transactions
		WHERE transaction_date >= ? AND transaction_date <= ?
		ORDER BY transaction_date DESC
	`, start.UTC().Format(dateLayout), end.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions between %s and %s: %w", start, end, err)
	}
	return scanTransactions(rows)
}

// GetTransactionsByCategory returns total spending per category, largest first
func (d *DB) GetTransactionsByCategory(ctx context.Context) ([]types.CategoryTotal, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT category, amount FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query category spending: %w", err)
	}
	return d.categoryTotals(rows)
}

// GetCategorySpendingByPeriod returns category totals for transactions within [start, end]
func (d *DB) GetCategorySpendingByPeriod(ctx context.Context, start, end time.Time) ([]types.CategoryTotal, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT category, amount FROM transactions
		WHERE transaction_date >= ? AND transaction_date <= ?
	`, start.UTC().Format(dateLayout), end.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query category spending by period: %w", err)
	}
	return d.categoryTotals(rows)
}

// GetMonthlySpending returns total spending per YYYY-MM month in the store's timezone, oldest first
func (d *DB) GetMonthlySpending(ctx context.Context) ([]types.MonthlyTotal, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT transaction_date, amount FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly spending: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var date string
		var amount decimal.Decimal
		if err := rows.Scan(&date, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly spending row: %w", err)
		}
		t, err := parseDate(date)
		if err != nil {
			d.logger.Warn("Skipping transaction with bad date", "date", date, "error", err)
			continue
		}
		month := t.In(d.timezone).Format("2006-01")
		totals[month] = totals[month].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly spending: %w", err)
	}

	months := make([]types.MonthlyTotal, 0, len(totals))
	for month, amount := range totals {
		months = append(months, types.MonthlyTotal{Month: month, Amount: amount})
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month < months[j].Month
	})
	return months, nil
}

// Count returns the total number of transactions
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) categoryTotals(rows *sql.Rows) ([]types.CategoryTotal, error) {
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category string
		var amount decimal.Decimal
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		totals[category] = totals[category].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	categories := make([]types.CategoryTotal, 0, len(totals))
	for name, amount := range totals {
		categories = append(categories, types.CategoryTotal{Name: name, Amount: amount})
	}
	sort.Slice(categories, func(i, j int) bool {
		if c := categories[i].Amount.Cmp(categories[j].Amount); c != 0 {
			return c > 0
		}
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (types.Transaction, error) {
	var tx types.Transaction
	var date string
	if err := row.Scan(&tx.ID, &tx.Amount, &tx.Payee, &tx.UPIID, &tx.Notes, &tx.Category, &date); err != nil {
		return types.Transaction{}, err
	}
	t, err := parseDate(date)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("failed to parse transaction date %q: %w", date, err)
	}
	tx.Date = t
	return tx, nil
}

func scanTransactions(rows *sql.Rows) ([]types.Transaction, error) {
	defer rows.Close()

	txs := []types.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
