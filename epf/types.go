// Package epf implements the Employee Provident Fund timeline: monthly
// contributions per employment, interest accrued per financial year, and
// the combined passbook summary.
package epf

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/networth/generic"
)

// =============================================================================
// ACCOUNT - One employer relationship
// =============================================================================

// Account is a user's EPF membership with one employer.
type Account struct {
	ID               generic.AccountID
	UserID           generic.UserID
	OrganizationName string
	EPFAmount        generic.Amount // fixed monthly contribution
	CreditDay        int            // day of month the contribution is credited; informational
	StartDate        generic.TimePoint

	// EndDate is the exit date when known. Nil means the employment runs
	// until the next account starts (or until today for the latest one).
	EndDate *generic.TimePoint

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContributionEvent is one synthetic monthly deposit.
type ContributionEvent struct {
	Date         generic.TimePoint
	Amount       generic.Amount
	Organization string
}

// =============================================================================
// TIMELINE - Engine output
// =============================================================================

type RowType string

const (
	RowContribution RowType = "contribution"
	RowInterest     RowType = "interest"
)

// TimelineRow is either a contribution summary for one employment or the
// interest credited for one financial year.
type TimelineRow struct {
	Type RowType

	// Contribution rows
	AccountID           generic.AccountID
	Organization        string
	MonthlyContribution generic.Amount
	StartDate           generic.TimePoint
	EndDate             *generic.TimePoint // nil while the employment is ongoing
	Months              int

	// Interest rows
	FinancialYear      int
	InterestCreditDate generic.TimePoint
	Rate               decimal.Decimal // annual percent applied to the year

	// Total is the window's contribution sum on contribution rows and the
	// rounded interest on interest rows.
	Total generic.Amount
}

// FinancialYearLabel renders the row's "FY 2024-2025" label.
func (r TimelineRow) FinancialYearLabel() string {
	return generic.FinancialYearLabel(r.FinancialYear)
}

// Summary is the passbook view of all of a user's EPF accounts.
type Summary struct {
	TotalCurrentBalance generic.Amount
	TotalContributions  generic.Amount
	TotalInterest       generic.Amount
	Timeline            []TimelineRow
	AsOf                generic.TimePoint
}

// LedgerEntry is one month of the merged passbook walk.
type LedgerEntry struct {
	Date           generic.TimePoint
	Organization   string
	FinancialYear  int
	OpeningBalance generic.Amount
	Interest       generic.Amount // unrounded, accrued on the opening balance
	Contribution   generic.Amount
	ClosingBalance generic.Amount // opening + contribution; interest is credited yearly
}
