/*
interest.go - Financial-year interest accrual

PURPOSE:
  Walks the merged monthly contributions of all employments in date order,
  accruing one month of interest on the balance carried into each month and
  bucketing it by the financial year of that month.

ACCRUAL RULE:
  For every event after the first:
    interest += openingBalance * (annualRate / 100 / 12)
  then the event's contribution is added to the balance. A month's own
  deposit earns nothing in that month.

  Interest is credited once per financial year, on 31 March. Until that date
  has passed the year's accrual is not part of the balance.

RATES:
  The annual rate is a policy value declared each year by the EPFO board.
  RateSchedule carries per-year overrides; years without an entry use the
  engine's flat AnnualRate (8.25 by default).

SEE ALSO:
  - engine.go: Uses walk() to build rows and totals
  - generic/period.go: Financial year placement
*/
package epf

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/networth/generic"
)

// DefaultAnnualRate is the statutory EPF rate (percent per annum) for
// FY 2023-24 onwards.
var DefaultAnnualRate = decimal.RequireFromString("8.25")

// =============================================================================
// RATE SCHEDULE
// =============================================================================

// RateSchedule maps a financial year (labelled by its starting calendar
// year) to the annual interest rate in percent.
type RateSchedule map[int]decimal.Decimal

// Years returns the scheduled years in ascending order.
func (rs RateSchedule) Years() []int {
	years := make([]int, 0, len(rs))
	for y := range rs {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// StatutoryRates returns the rates declared by EPFO for recent years.
func StatutoryRates() RateSchedule {
	return RateSchedule{
		2015: decimal.RequireFromString("8.8"),
		2016: decimal.RequireFromString("8.65"),
		2017: decimal.RequireFromString("8.55"),
		2018: decimal.RequireFromString("8.65"),
		2019: decimal.RequireFromString("8.5"),
		2020: decimal.RequireFromString("8.5"),
		2021: decimal.RequireFromString("8.1"),
		2022: decimal.RequireFromString("8.15"),
		2023: decimal.RequireFromString("8.25"),
		2024: decimal.RequireFromString("8.25"),
	}
}

// =============================================================================
// ACCRUAL WALK
// =============================================================================

var twelve = decimal.NewFromInt(12)
var hundred = decimal.NewFromInt(100)

// yearAccrual is the unrounded interest of one financial year.
type yearAccrual struct {
	Year     int
	Rate     decimal.Decimal
	Interest decimal.Decimal
}

// mergeEvents orders all contributions by date. Same-day events keep the
// order of their employments.
func mergeEvents(perAccount [][]ContributionEvent) []ContributionEvent {
	var merged []ContributionEvent
	for _, events := range perAccount {
		merged = append(merged, events...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}

// walk runs the running-balance accrual over date-ordered events. The
// returned years are in first-appearance order, which is ascending because
// events are sorted.
func (e *Engine) walk(events []ContributionEvent) ([]LedgerEntry, []yearAccrual) {
	var (
		ledger  = make([]LedgerEntry, 0, len(events))
		years   []yearAccrual
		index   = make(map[int]int)
		balance = decimal.Zero
	)

	for k, ev := range events {
		fy := e.Period.YearOf(ev.Date)

		// The first contribution opens the balance and never accrues, so it
		// does not open a financial year on its own.
		interest := decimal.Zero
		if k > 0 {
			i, ok := index[fy]
			if !ok {
				i = len(years)
				index[fy] = i
				years = append(years, yearAccrual{Year: fy, Rate: e.RateFor(fy), Interest: decimal.Zero})
			}
			interest = balance.Mul(years[i].Rate.Div(hundred).Div(twelve))
			years[i].Interest = years[i].Interest.Add(interest)
		}

		opening := balance
		balance = balance.Add(ev.Amount.Value)

		ledger = append(ledger, LedgerEntry{
			Date:           ev.Date,
			Organization:   ev.Organization,
			FinancialYear:  fy,
			OpeningBalance: generic.NewAmountFromDecimal(opening, ev.Amount.Currency),
			Interest:       generic.NewAmountFromDecimal(interest, ev.Amount.Currency),
			Contribution:   ev.Amount,
			ClosingBalance: generic.NewAmountFromDecimal(balance, ev.Amount.Currency),
		})
	}
	return ledger, years
}
