package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/networth/epf"
	"github.com/warp/networth/generic"
	"github.com/warp/networth/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testAccount(id, user, org string, start generic.TimePoint) epf.Account {
	return epf.Account{
		ID:               generic.AccountID(id),
		UserID:           generic.UserID(user),
		OrganizationName: org,
		EPFAmount:        generic.NewAmount(1800.50, generic.INR),
		CreditDay:        15,
		StartDate:        start,
	}
}

// =============================================================================
// ACCOUNT CRUD
// =============================================================================

func TestAccounts_CreateGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAccount("acc-1", "u1", "Acme", generic.NewTimePoint(2020, time.June, 1))
	end := generic.NewTimePoint(2022, time.March, 31)
	a.EndDate = &end
	require.NoError(t, store.CreateAccount(ctx, a))

	got, err := store.GetAccount(ctx, "u1", "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.OrganizationName)
	assert.True(t, got.EPFAmount.Value.Equal(decimal.RequireFromString("1800.5")))
	assert.Equal(t, generic.INR, got.EPFAmount.Currency)
	assert.Equal(t, 15, got.CreditDay)
	assert.True(t, got.StartDate.Equal(a.StartDate))
	require.NotNil(t, got.EndDate)
	assert.True(t, got.EndDate.Equal(end))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestAccounts_DamagedRow_ReturnsError(t *testing.T) {
	tests := []struct {
		name   string
		column string
		value  string
	}{
		{"amount", "epf_amount", "18OO.50"},
		{"created at", "created_at", "yesterday"},
		{"updated at", "updated_at", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN: A stored account whose row was edited outside the store
			path := filepath.Join(t.TempDir(), "networth.db")
			store, err := sqlite.New(path)
			require.NoError(t, err)
			t.Cleanup(func() { store.Close() })
			ctx := context.Background()
			require.NoError(t, store.CreateAccount(ctx, testAccount("acc-1", "u1", "Acme", generic.NewTimePoint(2020, time.June, 1))))

			raw, err := sql.Open("sqlite3", path)
			require.NoError(t, err)
			defer raw.Close()
			_, err = raw.Exec("UPDATE epf_accounts SET "+tt.column+" = ? WHERE id = ?", tt.value, "acc-1")
			require.NoError(t, err)

			// WHEN: Reading it back
			_, getErr := store.GetAccount(ctx, "u1", "acc-1")
			_, listErr := store.ListAccounts(ctx, "u1")

			// THEN: The damage surfaces instead of a zero value
			require.Error(t, getErr)
			assert.Contains(t, getErr.Error(), tt.column)
			assert.Error(t, listErr)
		})
	}
}

func TestAccounts_DuplicateID_Conflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAccount("acc-1", "u1", "Acme", generic.NewTimePoint(2020, time.June, 1))
	require.NoError(t, store.CreateAccount(ctx, a))

	err := store.CreateAccount(ctx, a)
	assert.ErrorIs(t, err, generic.ErrDuplicateAccount)
}

func TestAccounts_OtherUser_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, testAccount("acc-1", "u1", "Acme", generic.NewTimePoint(2020, time.June, 1))))

	_, err := store.GetAccount(ctx, "u2", "acc-1")
	assert.ErrorIs(t, err, generic.ErrAccountNotFound)
	assert.ErrorIs(t, store.DeleteAccount(ctx, "u2", "acc-1"), generic.ErrAccountNotFound)
}

func TestAccounts_ListOrderedByStartDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, testAccount("c", "u1", "Initech", generic.NewTimePoint(2023, time.January, 1))))
	require.NoError(t, store.CreateAccount(ctx, testAccount("a", "u1", "Acme", generic.NewTimePoint(2018, time.July, 1))))
	require.NoError(t, store.CreateAccount(ctx, testAccount("b", "u1", "Globex", generic.NewTimePoint(2020, time.March, 1))))
	require.NoError(t, store.CreateAccount(ctx, testAccount("x", "u2", "Other", generic.NewTimePoint(2019, time.March, 1))))

	accounts, err := store.ListAccounts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, []string{"Acme", "Globex", "Initech"},
		[]string{accounts[0].OrganizationName, accounts[1].OrganizationName, accounts[2].OrganizationName})

	none, err := store.ListAccounts(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAccounts_UpdateAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAccount("acc-1", "u1", "Acme", generic.NewTimePoint(2020, time.June, 1))
	require.NoError(t, store.CreateAccount(ctx, a))

	a.OrganizationName = "Acme Corp"
	a.EPFAmount = generic.NewAmountFromInt(2400, generic.INR)
	require.NoError(t, store.UpdateAccount(ctx, a))

	got, err := store.GetAccount(ctx, "u1", "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.OrganizationName)
	assert.Equal(t, "2400", got.EPFAmount.Value.String())
	assert.Nil(t, got.EndDate)

	missing := a
	missing.ID = "nope"
	assert.ErrorIs(t, store.UpdateAccount(ctx, missing), generic.ErrAccountNotFound)

	require.NoError(t, store.DeleteAccount(ctx, "u1", "acc-1"))
	_, err = store.GetAccount(ctx, "u1", "acc-1")
	assert.ErrorIs(t, err, generic.ErrAccountNotFound)
}

// =============================================================================
// RATES
// =============================================================================

func TestRates_SaveReplacesSchedule(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty, err := store.LoadRates(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.SaveRates(ctx, epf.StatutoryRates()))
	require.NoError(t, store.SaveRates(ctx, epf.RateSchedule{
		2022: decimal.RequireFromString("8.15"),
		2023: decimal.RequireFromString("8.25"),
	}))

	rates, err := store.LoadRates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2022, 2023}, rates.Years())
	assert.True(t, rates[2022].Equal(decimal.RequireFromString("8.15")))
}

func TestReset_ClearsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, testAccount("acc-1", "u1", "Acme", generic.NewTimePoint(2020, time.June, 1))))
	require.NoError(t, store.SaveRates(ctx, epf.StatutoryRates()))
	require.NoError(t, store.Reset(ctx))

	accounts, err := store.ListAccounts(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, accounts)
	rates, err := store.LoadRates(ctx)
	require.NoError(t, err)
	assert.Empty(t, rates)
}
