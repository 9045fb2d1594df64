package api

import (
	"time"

	"github.com/warp/networth/epf"
	"github.com/warp/networth/generic"
)

const timestampLayout = time.RFC3339

// Presenter renders engine output for display. The engine works on plain
// dates; every user-facing string is produced here.
type Presenter struct {
	DateLayout string // Go layout for row dates
	OpenEnded  string // end date label of an ongoing employment
}

// IndianPresenter formats dates the way en-IN does (31/03/2024).
var IndianPresenter = Presenter{
	DateLayout: "02/01/2006",
	OpenEnded:  "Present",
}

func (p Presenter) Date(tp generic.TimePoint) string {
	return tp.Format(p.DateLayout)
}

func (p Presenter) EndDate(tp *generic.TimePoint) string {
	if tp == nil {
		return p.OpenEnded
	}
	return p.Date(*tp)
}

// Summary converts a computed summary to its wire shape.
func (p Presenter) Summary(s epf.Summary) TimelineSummaryDTO {
	dto := TimelineSummaryDTO{
		TotalCurrentBalance: s.TotalCurrentBalance.Float64(),
		TotalContributions:  s.TotalContributions.Float64(),
		TotalInterest:       s.TotalInterest.Float64(),
		AsOf:                p.Date(s.AsOf),
		Timeline:            make([]TimelineRowDTO, 0, len(s.Timeline)),
	}
	for _, row := range s.Timeline {
		dto.Timeline = append(dto.Timeline, p.Row(row))
	}
	return dto
}

func (p Presenter) Row(row epf.TimelineRow) TimelineRowDTO {
	dto := TimelineRowDTO{
		Type:              string(row.Type),
		TotalContribution: row.Total.Float64(),
	}
	switch row.Type {
	case epf.RowContribution:
		monthly := row.MonthlyContribution.Float64()
		months := row.Months
		dto.AccountID = string(row.AccountID)
		dto.Organization = row.Organization
		dto.MonthlyContribution = &monthly
		dto.StartDate = p.Date(row.StartDate)
		dto.EndDate = p.EndDate(row.EndDate)
		dto.ContributionMonths = &months
	case epf.RowInterest:
		rate, _ := row.Rate.Float64()
		dto.FinancialYear = row.FinancialYearLabel()
		dto.InterestCreditDate = p.Date(row.InterestCreditDate)
		dto.InterestRate = &rate
	}
	return dto
}

// Ledger converts the monthly walk. Interest is shown to the paisa.
func (p Presenter) Ledger(entries []epf.LedgerEntry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		interest, _ := e.Interest.Value.Round(2).Float64()
		dtos[i] = LedgerEntryDTO{
			Date:           p.Date(e.Date),
			Organization:   e.Organization,
			FinancialYear:  generic.FinancialYearLabel(e.FinancialYear),
			OpeningBalance: e.OpeningBalance.Float64(),
			Interest:       interest,
			Contribution:   e.Contribution.Float64(),
			ClosingBalance: e.ClosingBalance.Float64(),
		}
	}
	return dtos
}
