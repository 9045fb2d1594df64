/*
store.go - Persistence interfaces for EPF accounts and rates

PURPOSE:
  Defines the boundary between the HTTP layer and the database. The engine
  never touches a store: handlers load a snapshot of the user's accounts,
  then compute.

OWNERSHIP:
  Every account belongs to exactly one user. Lookups and deletes take the
  user ID so one user can never read or remove another user's account;
  a mismatch is reported as generic.ErrAccountNotFound.

IMPLEMENTATIONS:
  - store/memory: In-memory for tests and demos
  - store/sqlite: Default single-node storage
  - store/postgres: Shared PostgreSQL via pgx

SEE ALSO:
  - api/handlers.go: Only consumer
*/
package epf

import (
	"context"

	"github.com/warp/networth/generic"
)

// AccountStore persists EPF accounts.
type AccountStore interface {
	// CreateAccount inserts a new account. The ID must be set by the caller.
	CreateAccount(ctx context.Context, a Account) error

	// GetAccount returns ErrAccountNotFound for unknown IDs or other users' accounts.
	GetAccount(ctx context.Context, userID generic.UserID, id generic.AccountID) (Account, error)

	// ListAccounts returns a user's accounts ordered by start date.
	ListAccounts(ctx context.Context, userID generic.UserID) ([]Account, error)

	// UpdateAccount replaces the mutable fields of an existing account.
	UpdateAccount(ctx context.Context, a Account) error

	DeleteAccount(ctx context.Context, userID generic.UserID, id generic.AccountID) error
}

// RateStore persists the per-year interest rate overrides.
type RateStore interface {
	// SaveRates replaces the stored schedule.
	SaveRates(ctx context.Context, rates RateSchedule) error

	LoadRates(ctx context.Context) (RateSchedule, error)
}

// Store is everything the HTTP layer needs.
type Store interface {
	AccountStore
	RateStore
}
