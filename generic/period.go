package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Accounting window
// =============================================================================

// Period is an inclusive date range [Start, End].
//
// Examples:
//   - Calendar year 2025: Jan 1 - Dec 31
//   - Indian financial year 2025: Apr 1 2025 - Mar 31 2026
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// PeriodType defines how periods are calculated
type PeriodType string

const (
	PeriodCalendarYear PeriodType = "calendar_year" // Jan 1 - Dec 31
	PeriodFiscalYear   PeriodType = "fiscal_year"   // Custom start (e.g., Apr 1)
)

// PeriodConfig defines how to place a date into a yearly period.
type PeriodConfig struct {
	Type PeriodType

	// For fiscal year: which month starts the fiscal year (1-12)
	FiscalYearStartMonth time.Month
}

// IndianFinancialYear is the April-March year used for EPF interest,
// income tax and most Indian statements.
var IndianFinancialYear = PeriodConfig{Type: PeriodFiscalYear, FiscalYearStartMonth: time.April}

// =============================================================================
// PERIOD CALCULATOR - Determines which period a date falls into
// =============================================================================

// PeriodFor returns the period that contains the given date
func (pc PeriodConfig) PeriodFor(date TimePoint) Period {
	switch pc.Type {
	case PeriodFiscalYear:
		return pc.fiscalYearPeriod(pc.YearOf(date))
	default:
		return Period{Start: NewTimePoint(date.Year(), time.January, 1), End: NewTimePoint(date.Year(), time.December, 31)}
	}
}

// YearOf returns the label year of the period containing date: the calendar
// year in which that period starts. 15 Feb 2025 is in financial year 2024.
func (pc PeriodConfig) YearOf(date TimePoint) int {
	if pc.Type != PeriodFiscalYear {
		return date.Year()
	}
	if date.Month() < pc.FiscalYearStartMonth {
		return date.Year() - 1
	}
	return date.Year()
}

// PeriodOfYear returns the period labelled by year.
func (pc PeriodConfig) PeriodOfYear(year int) Period {
	if pc.Type != PeriodFiscalYear {
		return Period{Start: NewTimePoint(year, time.January, 1), End: NewTimePoint(year, time.December, 31)}
	}
	return pc.fiscalYearPeriod(year)
}

func (pc PeriodConfig) fiscalYearPeriod(year int) Period {
	fiscalStart := NewTimePoint(year, pc.FiscalYearStartMonth, 1)
	fiscalEnd := fiscalStart.AddYears(1).AddDays(-1)
	return Period{Start: fiscalStart, End: fiscalEnd}
}

// FinancialYearLabel renders "FY 2024-2025" for the year starting in 2024.
func FinancialYearLabel(year int) string {
	return fmt.Sprintf("FY %d-%d", year, year+1)
}
