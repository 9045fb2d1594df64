package epf_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/networth/epf"
	"github.com/warp/networth/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

func inr(n int64) generic.Amount {
	return generic.NewAmountFromInt(n, generic.INR)
}

func account(id, org string, monthly int64, start generic.TimePoint) epf.Account {
	return epf.Account{
		ID:               generic.AccountID(id),
		UserID:           "user-1",
		OrganizationName: org,
		EPFAmount:        inr(monthly),
		CreditDay:        start.Day(),
		StartDate:        start,
	}
}

func rows(s epf.Summary, typ epf.RowType) []epf.TimelineRow {
	var out []epf.TimelineRow
	for _, r := range s.Timeline {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

func assertAmount(t *testing.T, want int64, got generic.Amount, msg string) {
	t.Helper()
	assert.True(t, got.Value.Equal(decimal.NewFromInt(want)), "%s: want %d, got %s", msg, want, got.Value)
}

// simulateYearInterest recomputes one year's raw interest month by month,
// independent of the engine: balance before each month after the first.
func simulateYearInterest(monthly float64, months int, rate float64) float64 {
	total := 0.0
	balance := 0.0
	for m := 0; m < months; m++ {
		if m > 0 {
			total += balance * (rate / 100 / 12)
		}
		balance += monthly
	}
	return total
}

// =============================================================================
// BOUNDARY TESTS
// =============================================================================

func TestTimeline_EmptyInput_ZeroSummary(t *testing.T) {
	s := epf.ComputeTimeline(nil, date(2025, time.June, 1))

	assert.True(t, s.TotalCurrentBalance.IsZero())
	assert.True(t, s.TotalContributions.IsZero())
	assert.True(t, s.TotalInterest.IsZero())
	require.NotNil(t, s.Timeline, "timeline serializes as [] not null")
	assert.Empty(t, s.Timeline)
}

func TestTimeline_StartsToday_NoMonthsYet(t *testing.T) {
	// GIVEN: An account starting on the observation date
	// WHEN: Computing the timeline
	// THEN: The half-open window [today, today) is empty
	today := date(2025, time.June, 10)
	s := epf.ComputeTimeline([]epf.Account{account("a", "Acme", 5000, today)}, today)

	contrib := rows(s, epf.RowContribution)
	require.Len(t, contrib, 1)
	assert.Equal(t, 0, contrib[0].Months)
	assert.Nil(t, contrib[0].EndDate)
	assertAmount(t, 0, contrib[0].Total, "row total")
	assertAmount(t, 0, s.TotalContributions, "total contributions")
	assert.Empty(t, rows(s, epf.RowInterest))
}

func TestTimeline_FutureStart_DegenerateWindow(t *testing.T) {
	s := epf.ComputeTimeline([]epf.Account{account("a", "Acme", 5000, date(2026, time.January, 1))}, date(2025, time.June, 1))

	assertAmount(t, 0, s.TotalCurrentBalance, "balance")
	assert.Equal(t, 0, rows(s, epf.RowContribution)[0].Months)
}

// =============================================================================
// SINGLE ACCOUNT
// =============================================================================

func TestTimeline_TwoFullYears_InterestPerYear(t *testing.T) {
	// GIVEN: 1000/month from 1 April 2022, observed 1 April 2024
	// THEN: 24 months; FY 2022-2023 and FY 2023-2024 are both credited
	s := epf.ComputeTimeline(
		[]epf.Account{account("a", "Acme", 1000, date(2022, time.April, 1))},
		date(2024, time.April, 1),
	)

	contrib := rows(s, epf.RowContribution)
	require.Len(t, contrib, 1)
	assert.Equal(t, 24, contrib[0].Months)
	assertAmount(t, 24000, s.TotalContributions, "contributions")

	interest := rows(s, epf.RowInterest)
	require.Len(t, interest, 2)

	first := interest[0]
	assert.Equal(t, "FY 2022-2023", first.FinancialYearLabel())
	assert.True(t, first.InterestCreditDate.Equal(date(2023, time.March, 31)))
	// Opening balances 1000..11000 at 8.25% / 12: 453.75
	want := simulateYearInterest(1000, 12, 8.25)
	assert.InDelta(t, 453.75, want, 1e-9)
	assertAmount(t, 454, first.Total, "FY 2022-2023 interest")

	second := interest[1]
	assert.Equal(t, 2023, second.FinancialYear)
	// Opening balances 12000..23000: 1443.75
	assertAmount(t, 1444, second.Total, "FY 2023-2024 interest")

	assertAmount(t, 1898, s.TotalInterest, "total interest")
	assertAmount(t, 25898, s.TotalCurrentBalance, "balance")
}

func TestTimeline_OngoingYear_InterestNotCredited(t *testing.T) {
	// GIVEN: Contributions through FY 2024-2025, observed the day before 31 March
	// THEN: The year's interest is accrued but not part of the balance
	accounts := []epf.Account{account("a", "Acme", 1000, date(2024, time.April, 1))}

	s := epf.ComputeTimeline(accounts, date(2025, time.March, 30))
	assert.Empty(t, rows(s, epf.RowInterest))
	assertAmount(t, 0, s.TotalInterest, "interest before credit")
	assertAmount(t, 12000, s.TotalCurrentBalance, "balance before credit")

	// WHEN: Observed on the credit date itself
	s = epf.ComputeTimeline(accounts, date(2025, time.March, 31))
	interest := rows(s, epf.RowInterest)
	require.Len(t, interest, 1)
	assertAmount(t, 454, interest[0].Total, "interest on credit date")
}

func TestTimeline_MarchStart_NoEmptyInterestRow(t *testing.T) {
	// GIVEN: The first contribution is the only one in FY 2019-2020
	accounts := []epf.Account{account("a", "Acme", 1000, date(2020, time.March, 1))}

	// WHEN: Observed after FY 2020-2021 is credited
	s := epf.ComputeTimeline(accounts, date(2021, time.April, 1))

	// THEN: FY 2019-2020 never accrued and has no row
	// Opening balances Apr..Mar: 1000..12000, 78000 * 0.006875 = 536.25
	interest := rows(s, epf.RowInterest)
	require.Len(t, interest, 1)
	assert.Equal(t, 2020, interest[0].FinancialYear)
	assertAmount(t, 536, interest[0].Total, "FY 2020-2021")
	assertAmount(t, 13000, s.TotalContributions, "contributions")

	ledger := epf.NewEngine().Ledger(accounts, date(2021, time.April, 1))
	require.Len(t, ledger, 13)
	assert.Equal(t, 2019, ledger[0].FinancialYear)
	assert.True(t, ledger[0].Interest.IsZero())
}

func TestTimeline_Rounding_NearestWholeRupee(t *testing.T) {
	// 1234 * (1+..+11) * 0.006875 = 559.9275
	s := epf.ComputeTimeline(
		[]epf.Account{account("a", "Acme", 1234, date(2022, time.April, 1))},
		date(2023, time.April, 1),
	)
	interest := rows(s, epf.RowInterest)
	require.Len(t, interest, 1)
	assert.InDelta(t, 559.9275, simulateYearInterest(1234, 12, 8.25), 1e-9)
	assertAmount(t, 560, interest[0].Total, "rounded up")

	// 1001 * 66 * 0.006875 = 454.20375
	s = epf.ComputeTimeline(
		[]epf.Account{account("a", "Acme", 1001, date(2022, time.April, 1))},
		date(2023, time.April, 1),
	)
	assertAmount(t, 454, s.TotalInterest, "rounded down")
	assert.True(t, s.TotalInterest.Value.Equal(s.TotalInterest.Value.Round(0)))
}

func TestTimeline_MonthEndStart_ClampsWithoutDrift(t *testing.T) {
	// GIVEN: Employment starting 31 January in a leap year
	ledger := epf.NewEngine().Ledger(
		[]epf.Account{account("a", "Acme", 1000, date(2024, time.January, 31))},
		date(2024, time.May, 1),
	)

	require.Len(t, ledger, 4)
	assert.Equal(t, "2024-01-31", ledger[0].Date.String())
	assert.Equal(t, "2024-02-29", ledger[1].Date.String())
	assert.Equal(t, "2024-03-31", ledger[2].Date.String())
	assert.Equal(t, "2024-04-30", ledger[3].Date.String())
}

// =============================================================================
// MULTIPLE EMPLOYMENTS
// =============================================================================

func TestTimeline_SequentialAccounts_NextStartEndsWindow(t *testing.T) {
	a := account("a", "Acme", 1800, date(2020, time.January, 1))
	b := account("b", "Globex", 2400, date(2021, time.January, 1))

	// Input deliberately out of order: the engine sorts.
	s := epf.ComputeTimeline([]epf.Account{b, a}, date(2021, time.June, 15))

	contrib := rows(s, epf.RowContribution)
	require.Len(t, contrib, 2)

	assert.Equal(t, "Acme", contrib[0].Organization)
	assert.Equal(t, 12, contrib[0].Months)
	require.NotNil(t, contrib[0].EndDate)
	assert.True(t, contrib[0].EndDate.Equal(b.StartDate))

	assert.Equal(t, "Globex", contrib[1].Organization)
	assert.Nil(t, contrib[1].EndDate, "latest employment is Present")
	assert.Equal(t, 6, contrib[1].Months)

	assertAmount(t, 12*1800+6*2400, s.TotalContributions, "contributions")
}

func TestTimeline_JobSwitchMidYear_BalanceCarriesAcross(t *testing.T) {
	// Opening balances May..Oct: 1000..6000, Nov..Mar: 8000..16000
	// (21000 + 60000) * 0.006875 = 556.875
	s := epf.ComputeTimeline([]epf.Account{
		account("a", "Acme", 1000, date(2022, time.April, 1)),
		account("b", "Globex", 2000, date(2022, time.October, 1)),
	}, date(2023, time.April, 1))

	assertAmount(t, 18000, s.TotalContributions, "contributions")
	assertAmount(t, 557, s.TotalInterest, "interest")
	assertAmount(t, 18557, s.TotalCurrentBalance, "balance")
}

func TestTimeline_ContributionRowsPrecedeInterestRows(t *testing.T) {
	s := epf.ComputeTimeline([]epf.Account{
		account("a", "Acme", 1000, date(2019, time.April, 1)),
		account("b", "Globex", 2000, date(2021, time.July, 1)),
	}, date(2024, time.May, 1))

	require.Len(t, s.Timeline, 2+5)
	assert.Equal(t, epf.RowContribution, s.Timeline[0].Type)
	assert.Equal(t, epf.RowContribution, s.Timeline[1].Type)
	for i, fy := range []int{2019, 2020, 2021, 2022, 2023} {
		row := s.Timeline[2+i]
		assert.Equal(t, epf.RowInterest, row.Type)
		assert.Equal(t, fy, row.FinancialYear)
	}
}

func TestTimeline_ExplicitEndDate_LeavesGap(t *testing.T) {
	// GIVEN: Acme ends 1 July 2020, Globex starts 1 January 2021
	a := account("a", "Acme", 1000, date(2020, time.January, 1))
	end := date(2020, time.July, 1)
	a.EndDate = &end
	b := account("b", "Globex", 1000, date(2021, time.January, 1))

	s := epf.ComputeTimeline([]epf.Account{a, b}, date(2021, time.March, 15))

	contrib := rows(s, epf.RowContribution)
	assert.Equal(t, 6, contrib[0].Months, "no contributions during the gap")
	assert.True(t, contrib[0].EndDate.Equal(end))
	assert.Equal(t, 3, contrib[1].Months)
}

func TestTimeline_LatestAccountWithEndDate_NotPresent(t *testing.T) {
	a := account("a", "Acme", 1000, date(2020, time.January, 1))
	end := date(2020, time.April, 1)
	a.EndDate = &end

	s := epf.ComputeTimeline([]epf.Account{a}, date(2022, time.January, 1))

	contrib := rows(s, epf.RowContribution)
	require.NotNil(t, contrib[0].EndDate)
	assert.Equal(t, 3, contrib[0].Months)
}

func TestTimeline_FutureNextStart_EndsWindow(t *testing.T) {
	// GIVEN: Globex is already agreed for 1 January 2026
	a := account("a", "Acme", 1000, date(2024, time.January, 1))
	b := account("b", "Globex", 1000, date(2026, time.January, 1))

	// WHEN: Observed on 1 January 2025
	s := epf.ComputeTimeline([]epf.Account{a, b}, date(2025, time.January, 1))

	// THEN: Acme runs up to Globex's start, Globex has not begun
	contrib := rows(s, epf.RowContribution)
	assert.Equal(t, 24, contrib[0].Months)
	require.NotNil(t, contrib[0].EndDate)
	assert.True(t, contrib[0].EndDate.Equal(b.StartDate))
	assert.Equal(t, 0, contrib[1].Months)
	assertAmount(t, 24000, s.TotalContributions, "contributions")

	// Only FY 2023-2024 has reached its credit date: 3000 * 0.006875
	interest := rows(s, epf.RowInterest)
	require.Len(t, interest, 1)
	assert.Equal(t, 2023, interest[0].FinancialYear)
	assertAmount(t, 21, interest[0].Total, "FY 2023-2024")
}

func TestTimeline_SameStartDate_KeepsInputOrder(t *testing.T) {
	start := date(2022, time.January, 1)
	s := epf.ComputeTimeline([]epf.Account{
		account("a", "First", 1000, start),
		account("b", "Second", 1000, start),
	}, date(2022, time.June, 1))

	contrib := rows(s, epf.RowContribution)
	assert.Equal(t, "First", contrib[0].Organization)
	assert.Equal(t, 0, contrib[0].Months, "window ends where the tied account starts")
	assert.Equal(t, "Second", contrib[1].Organization)
	assert.Equal(t, 5, contrib[1].Months)
}

// =============================================================================
// RATES
// =============================================================================

func TestTimeline_RateSchedule_OverridesFlatRate(t *testing.T) {
	engine := epf.NewEngine()
	engine.Rates = epf.StatutoryRates()

	s := engine.Timeline(
		[]epf.Account{account("a", "Acme", 1000, date(2022, time.April, 1))},
		date(2023, time.April, 1),
	)

	interest := rows(s, epf.RowInterest)
	require.Len(t, interest, 1)
	assert.True(t, interest[0].Rate.Equal(decimal.RequireFromString("8.15")))
	// 66000 * 8.15 / 1200 = 448.25
	assertAmount(t, 448, interest[0].Total, "FY 2022-2023 at 8.15%")
}

func TestTimeline_CustomAnnualRate(t *testing.T) {
	engine := epf.NewEngine()
	engine.AnnualRate = decimal.NewFromInt(12)

	s := engine.Timeline(
		[]epf.Account{account("a", "Acme", 1000, date(2022, time.April, 1))},
		date(2023, time.April, 1),
	)
	// 66000 * 0.01 = 660
	assertAmount(t, 660, s.TotalInterest, "interest at 12%")
}

func TestRateFor_FallsBackToAnnualRate(t *testing.T) {
	engine := epf.NewEngine()
	engine.Rates = epf.RateSchedule{2021: decimal.RequireFromString("8.1")}

	assert.True(t, engine.RateFor(2021).Equal(decimal.RequireFromString("8.1")))
	assert.True(t, engine.RateFor(2030).Equal(epf.DefaultAnnualRate))
	assert.Equal(t, []int{2021}, engine.Rates.Years())
}

// =============================================================================
// PURITY
// =============================================================================

func TestTimeline_SameInputSameAsOf_IdenticalOutput(t *testing.T) {
	accounts := []epf.Account{
		account("b", "Globex", 2400, date(2021, time.January, 1)),
		account("a", "Acme", 1800, date(2019, time.August, 15)),
	}
	asOf := date(2024, time.September, 1)

	first := epf.ComputeTimeline(accounts, asOf)
	second := epf.ComputeTimeline(accounts, asOf)

	assert.Equal(t, first, second)
	assert.Equal(t, generic.AccountID("b"), accounts[0].ID, "input order untouched")
}

// =============================================================================
// LEDGER
// =============================================================================

func TestLedger_OpeningBalanceEarnsInterest(t *testing.T) {
	ledger := epf.NewEngine().Ledger(
		[]epf.Account{account("a", "Acme", 1000, date(2022, time.April, 1))},
		date(2022, time.July, 1),
	)

	require.Len(t, ledger, 3)
	assert.True(t, ledger[0].Interest.IsZero(), "first month has no prior balance")
	assertAmount(t, 1000, ledger[1].OpeningBalance, "May opening")
	assert.True(t, ledger[1].Interest.Value.Equal(decimal.RequireFromString("6.875")))
	assertAmount(t, 3000, ledger[2].ClosingBalance, "June closing")
	assert.Equal(t, 2022, ledger[2].FinancialYear)
}
