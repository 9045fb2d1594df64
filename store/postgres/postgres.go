// Package postgres implements the epf store on PostgreSQL through a pgx
// connection pool. Schema and semantics mirror store/sqlite.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/warp/networth/epf"
	"github.com/warp/networth/generic"
)

// Store implements epf.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ epf.Store = (*Store)(nil)

// New connects to databaseURL, verifies the connection and migrates.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS epf_accounts (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		organization_name TEXT NOT NULL,
		epf_amount NUMERIC(14, 2) NOT NULL CHECK (epf_amount > 0),
		currency TEXT NOT NULL DEFAULT 'INR',
		credit_day SMALLINT NOT NULL CHECK (credit_day BETWEEN 1 AND 31),
		start_date DATE NOT NULL,
		end_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_epf_accounts_user_start
		ON epf_accounts(user_id, start_date, seq);

	CREATE TABLE IF NOT EXISTS epf_rates (
		financial_year INTEGER PRIMARY KEY,
		annual_rate NUMERIC(6, 3) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`)
	return err
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) CreateAccount(ctx context.Context, a epf.Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO epf_accounts
		(id, user_id, organization_name, epf_amount, currency, credit_day, start_date, end_date)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)
	`,
		string(a.ID), string(a.UserID), a.OrganizationName,
		a.EPFAmount.Value.String(), currencyOrDefault(a.EPFAmount.Currency),
		a.CreditDay, a.StartDate.Time, endTime(a.EndDate),
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return generic.ErrDuplicateAccount
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID generic.UserID, id generic.AccountID) (epf.Account, error) {
	row := s.pool.QueryRow(ctx, selectAccounts+` WHERE id = $1 AND user_id = $2`, string(id), string(userID))
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return epf.Account{}, generic.ErrAccountNotFound
	}
	return a, err
}

func (s *Store) ListAccounts(ctx context.Context, userID generic.UserID) ([]epf.Account, error) {
	rows, err := s.pool.Query(ctx, selectAccounts+` WHERE user_id = $1 ORDER BY start_date, seq`, string(userID))
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

func (s *Store) UpdateAccount(ctx context.Context, a epf.Account) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE epf_accounts SET
			organization_name = $3,
			epf_amount = $4::numeric,
			currency = $5,
			credit_day = $6,
			start_date = $7,
			end_date = $8,
			updated_at = now()
		WHERE id = $1 AND user_id = $2
	`,
		string(a.ID), string(a.UserID), a.OrganizationName,
		a.EPFAmount.Value.String(), currencyOrDefault(a.EPFAmount.Currency),
		a.CreditDay, a.StartDate.Time, endTime(a.EndDate),
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return generic.ErrAccountNotFound
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID generic.UserID, id generic.AccountID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM epf_accounts WHERE id = $1 AND user_id = $2`, string(id), string(userID))
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return generic.ErrAccountNotFound
	}
	return nil
}

const selectAccounts = `
	SELECT id, user_id, organization_name, epf_amount::text, currency, credit_day,
	       start_date, end_date, created_at, updated_at
	FROM epf_accounts`

func scanAccount(row pgx.Row) (epf.Account, error) {
	var (
		a                epf.Account
		id, userID       string
		amount, currency string
		creditDay        int16
		start            time.Time
		end              *time.Time
	)
	err := row.Scan(&id, &userID, &a.OrganizationName, &amount, &currency, &creditDay,
		&start, &end, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("failed to scan account: %w", err)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return a, fmt.Errorf("account %s: %w", id, err)
	}
	a.ID = generic.AccountID(id)
	a.UserID = generic.UserID(userID)
	a.EPFAmount = generic.NewAmountFromDecimal(value, generic.Currency(currency))
	a.CreditDay = int(creditDay)
	a.StartDate = generic.FromTime(start)
	if end != nil {
		e := generic.FromTime(*end)
		a.EndDate = &e
	}
	return a, nil
}

// =============================================================================
// RATES
// =============================================================================

func (s *Store) SaveRates(ctx context.Context, rates epf.RateSchedule) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM epf_rates`); err != nil {
			return fmt.Errorf("failed to clear rates: %w", err)
		}
		batch := &pgx.Batch{}
		for _, fy := range rates.Years() {
			batch.Queue(`INSERT INTO epf_rates (financial_year, annual_rate) VALUES ($1, $2::numeric)`, fy, rates[fy].String())
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (s *Store) LoadRates(ctx context.Context) (epf.RateSchedule, error) {
	rows, err := s.pool.Query(ctx, `SELECT financial_year, annual_rate::text FROM epf_rates ORDER BY financial_year`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates: %w", err)
	}
	defer rows.Close()

	rates := epf.RateSchedule{}
	for rows.Next() {
		var (
			fy   int32
			rate string
		)
		if err := rows.Scan(&fy, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		d, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("rate for %d: %w", fy, err)
		}
		rates[int(fy)] = d
	}
	return rates, rows.Err()
}

func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE epf_accounts, epf_rates`)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func endTime(tp *generic.TimePoint) *time.Time {
	if tp == nil {
		return nil
	}
	t := tp.Time
	return &t
}

func currencyOrDefault(c generic.Currency) string {
	if c == "" {
		return string(generic.INR)
	}
	return string(c)
}

// isPgUniqueViolation checks for SQLSTATE 23505.
func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
