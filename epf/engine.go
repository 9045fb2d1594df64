/*
engine.go - EPF timeline engine

PURPOSE:
  Turns a user's EPF accounts into the passbook summary shown on the
  dashboard: one contribution row per employment, one interest row per
  credited financial year, and the running totals.

ALGORITHM:
  1. Order accounts by start date (ties keep input order)
  2. Derive each employment window [start, end) - see contribution.go
  3. Expand every window into monthly contributions
  4. Emit one contribution row per account (amount * months)
  5. Merge all contributions by date and accrue interest - see interest.go
  6. Emit an interest row for each financial year whose 31 March credit
     date is on or before asOf, rounded to whole rupees
  7. Balance = contributions + credited interest

PURITY:
  The engine never reads the clock. asOf is the observation date: it ends
  the latest open employment and decides which years have been credited.
  Same accounts + same asOf = same Summary. Passing a future asOf projects
  the passbook forward.

USAGE:
  summary := epf.ComputeTimeline(accounts, generic.Today())

  engine := epf.NewEngine()
  engine.Rates = epf.StatutoryRates()
  summary := engine.Timeline(accounts, asOf)

SEE ALSO:
  - contribution.go: Windows and the monthly schedule
  - interest.go: Accrual walk and rate schedule
  - api/present.go: en-IN formatting of the result
*/
package epf

import (
	"github.com/shopspring/decimal"
	"github.com/warp/networth/generic"
)

// Engine holds the policy values of the computation. The zero value is not
// usable; call NewEngine.
type Engine struct {
	// AnnualRate is the flat rate in percent for years missing from Rates.
	AnnualRate decimal.Decimal

	// Rates overrides AnnualRate per financial year. May be nil.
	Rates RateSchedule

	// Period places months into interest years (April-March).
	Period generic.PeriodConfig

	Currency generic.Currency
}

// NewEngine returns an engine with the flat default rate.
func NewEngine() *Engine {
	return &Engine{
		AnnualRate: DefaultAnnualRate,
		Period:     generic.IndianFinancialYear,
		Currency:   generic.INR,
	}
}

// ComputeTimeline runs the default engine.
func ComputeTimeline(accounts []Account, asOf generic.TimePoint) Summary {
	return NewEngine().Timeline(accounts, asOf)
}

// RateFor returns the annual percent rate applied to financial year fy.
func (e *Engine) RateFor(fy int) decimal.Decimal {
	if r, ok := e.Rates[fy]; ok {
		return r
	}
	return e.AnnualRate
}

// creditDate is the day a financial year's interest lands: its last day.
func (e *Engine) creditDate(fy int) generic.TimePoint {
	return e.Period.PeriodOfYear(fy).End
}

// Timeline computes the passbook summary as of the given date.
func (e *Engine) Timeline(accounts []Account, asOf generic.TimePoint) Summary {
	summary := Summary{
		TotalCurrentBalance: generic.NewAmountFromInt(0, e.Currency),
		TotalContributions:  generic.NewAmountFromInt(0, e.Currency),
		TotalInterest:       generic.NewAmountFromInt(0, e.Currency),
		Timeline:            []TimelineRow{},
		AsOf:                asOf,
	}

	wins := windows(accounts, asOf)
	perAccount := make([][]ContributionEvent, len(wins))

	for i, w := range wins {
		events := w.contributions()
		perAccount[i] = events

		total := w.account.EPFAmount.Mul(decimal.NewFromInt(int64(len(events))))
		summary.Timeline = append(summary.Timeline, TimelineRow{
			Type:                RowContribution,
			AccountID:           w.account.ID,
			Organization:        w.account.OrganizationName,
			MonthlyContribution: w.account.EPFAmount,
			StartDate:           w.account.StartDate,
			EndDate:             w.shownEnd,
			Months:              len(events),
			Total:               total,
		})
		summary.TotalContributions = summary.TotalContributions.Add(total)
	}

	_, years := e.walk(mergeEvents(perAccount))
	for _, y := range years {
		credit := e.creditDate(y.Year)
		if credit.After(asOf) {
			continue
		}
		interest := generic.NewAmountFromDecimal(y.Interest, e.Currency).RoundWhole()
		summary.Timeline = append(summary.Timeline, TimelineRow{
			Type:               RowInterest,
			FinancialYear:      y.Year,
			InterestCreditDate: credit,
			Rate:               y.Rate,
			Total:              interest,
		})
		summary.TotalInterest = summary.TotalInterest.Add(interest)
	}

	summary.TotalCurrentBalance = summary.TotalContributions.Add(summary.TotalInterest)
	return summary
}

// Ledger returns the month-by-month walk behind the timeline, including
// months whose interest has not been credited yet.
func (e *Engine) Ledger(accounts []Account, asOf generic.TimePoint) []LedgerEntry {
	wins := windows(accounts, asOf)
	perAccount := make([][]ContributionEvent, len(wins))
	for i, w := range wins {
		perAccount[i] = w.contributions()
	}
	ledger, _ := e.walk(mergeEvents(perAccount))
	return ledger
}
