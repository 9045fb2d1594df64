/*
Package sqlite provides a SQLite-backed implementation of the epf store.

PURPOSE:
  Implements epf.AccountStore and epf.RateStore using SQLite. The same
  schema runs on PostgreSQL (store/postgres) with only dialect changes.

KEY TABLES:
  epf_accounts:  One row per employer relationship, owned by one user
  epf_rates:     Per-financial-year interest rate overrides

STORAGE FORMATS:
  - Money and rates are TEXT holding the exact decimal string
  - Dates are TEXT in YYYY-MM-DD (sortable, timezone free)
  - Audit timestamps are TEXT in RFC3339 UTC

INDEXES:
  - idx_epf_accounts_user_start: Listing a user's accounts in start order
    (the engine's input order; ties fall back to rowid = insertion order)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite allows one writer at a time;
  the mutex keeps "database is locked" errors out of request handlers.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers never block
  on the single writer.

USAGE:
  store, err := sqlite.New("./data/networth.db")
  if err != nil {
      log.Fatal().Err(err).Msg("open store")
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - epf/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
  - store/postgres: Shared-database implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/networth/epf"
	"github.com/warp/networth/generic"
)

// Store implements epf.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ epf.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS epf_accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		organization_name TEXT NOT NULL,
		epf_amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'INR',
		credit_day INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_epf_accounts_user_start
		ON epf_accounts(user_id, start_date);

	CREATE TABLE IF NOT EXISTS epf_rates (
		financial_year INTEGER PRIMARY KEY,
		annual_rate TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ACCOUNT STORE (epf.AccountStore interface)
// =============================================================================

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, a epf.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO epf_accounts
		(id, user_id, organization_name, epf_amount, currency, credit_day, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.UserID, a.OrganizationName,
		a.EPFAmount.Value.String(), currencyOrDefault(a.EPFAmount.Currency),
		a.CreditDay, a.StartDate.String(), nullDate(a.EndDate),
		now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateAccount
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// GetAccount retrieves one of the user's accounts.
func (s *Store) GetAccount(ctx context.Context, userID generic.UserID, id generic.AccountID) (epf.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectAccounts+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return epf.Account{}, fmt.Errorf("failed to query account: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return epf.Account{}, err
		}
		return epf.Account{}, generic.ErrAccountNotFound
	}
	return scanAccount(rows)
}

// ListAccounts returns a user's accounts ordered by start date.
func (s *Store) ListAccounts(ctx context.Context, userID generic.UserID) ([]epf.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectAccounts+` WHERE user_id = ? ORDER BY start_date ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []epf.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount replaces the mutable fields of an account.
func (s *Store) UpdateAccount(ctx context.Context, a epf.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE epf_accounts SET
			organization_name = ?,
			epf_amount = ?,
			currency = ?,
			credit_day = ?,
			start_date = ?,
			end_date = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`,
		a.OrganizationName, a.EPFAmount.Value.String(), currencyOrDefault(a.EPFAmount.Currency),
		a.CreditDay, a.StartDate.String(), nullDate(a.EndDate),
		time.Now().UTC().Format(time.RFC3339),
		a.ID, a.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return requireOneRow(res)
}

// DeleteAccount removes one of the user's accounts.
func (s *Store) DeleteAccount(ctx context.Context, userID generic.UserID, id generic.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM epf_accounts WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return requireOneRow(res)
}

const selectAccounts = `
	SELECT id, user_id, organization_name, epf_amount, currency, credit_day,
	       start_date, end_date, created_at, updated_at
	FROM epf_accounts`

func scanAccount(rows *sql.Rows) (epf.Account, error) {
	var (
		a                    epf.Account
		amount, currency     string
		startDate            string
		endDate              sql.NullString
		createdAt, updatedAt string
	)

	err := rows.Scan(
		&a.ID, &a.UserID, &a.OrganizationName, &amount, &currency, &a.CreditDay,
		&startDate, &endDate, &createdAt, &updatedAt,
	)
	if err != nil {
		return a, fmt.Errorf("failed to scan account: %w", err)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return a, fmt.Errorf("account %s: epf_amount: %w", a.ID, err)
	}
	a.EPFAmount = generic.NewAmountFromDecimal(value, generic.Currency(currency))
	if a.StartDate, err = generic.ParseDate(startDate); err != nil {
		return a, fmt.Errorf("account %s: %w", a.ID, err)
	}
	if endDate.Valid {
		end, err := generic.ParseDate(endDate.String)
		if err != nil {
			return a, fmt.Errorf("account %s: %w", a.ID, err)
		}
		a.EndDate = &end
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return a, fmt.Errorf("account %s: created_at: %w", a.ID, err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return a, fmt.Errorf("account %s: updated_at: %w", a.ID, err)
	}
	return a, nil
}

// =============================================================================
// RATE STORE (epf.RateStore interface)
// =============================================================================

// SaveRates replaces the stored rate schedule atomically.
func (s *Store) SaveRates(ctx context.Context, rates epf.RateSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM epf_rates"); err != nil {
		return fmt.Errorf("failed to clear rates: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, fy := range rates.Years() {
		_, err := sqlTx.ExecContext(ctx,
			"INSERT INTO epf_rates (financial_year, annual_rate, updated_at) VALUES (?, ?, ?)",
			fy, rates[fy].String(), now,
		)
		if err != nil {
			return fmt.Errorf("failed to save rate for %d: %w", fy, err)
		}
	}

	return sqlTx.Commit()
}

// LoadRates returns the stored rate schedule (empty when none saved).
func (s *Store) LoadRates(ctx context.Context) (epf.RateSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT financial_year, annual_rate FROM epf_rates ORDER BY financial_year")
	if err != nil {
		return nil, fmt.Errorf("failed to query rates: %w", err)
	}
	defer rows.Close()

	rates := epf.RateSchedule{}
	for rows.Next() {
		var (
			fy   int
			rate string
		)
		if err := rows.Scan(&fy, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		d, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("rate for %d: %w", fy, err)
		}
		rates[fy] = d
	}
	return rates, rows.Err()
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset removes every account and rate. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM epf_accounts; DELETE FROM epf_rates;")
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func nullDate(tp *generic.TimePoint) sql.NullString {
	if tp == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: tp.String(), Valid: true}
}

func currencyOrDefault(c generic.Currency) string {
	if c == "" {
		return string(generic.INR)
	}
	return string(c)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrAccountNotFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		serr.ExtendedCode == sqlite3.ErrConstraintUnique
}
