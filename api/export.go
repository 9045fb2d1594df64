package api

import (
	"fmt"
	"net/http"

	"github.com/warp/networth/epf"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timelineSheet   = "Timeline"
)

var timelineHeaders = []string{
	"Type", "Organization", "Monthly Contribution", "Start Date", "End Date",
	"Months", "Financial Year", "Interest Credit Date", "Rate (%)", "Total",
}

// ExportTimeline streams the timeline as an Excel workbook.
// GET /api/users/{userID}/epf/timeline.xlsx?as_of=YYYY-MM-DD
func (h *Handler) ExportTimeline(w http.ResponseWriter, r *http.Request) {
	accounts, asOf, ok := h.loadForCompute(w, r)
	if !ok {
		return
	}
	summary := h.Engine().Timeline(accounts, asOf)

	f, err := h.timelineWorkbook(summary)
	if err != nil {
		h.internalError(w, r, "Failed to build workbook", err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("epf-%s-%s.xlsx", userParam(r), asOf.Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(w); err != nil {
		h.internalError(w, r, "Failed to write workbook", err)
	}
}

// timelineWorkbook lays out one row per timeline row followed by the totals.
func (h *Handler) timelineWorkbook(s epf.Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", timelineSheet); err != nil {
		return nil, err
	}

	for col, title := range timelineHeaders {
		if err := setCell(f, col+1, 1, title); err != nil {
			return nil, err
		}
	}

	p := h.Presenter
	rowNo := 2
	for _, row := range s.Timeline {
		values := make([]any, len(timelineHeaders))
		values[0] = string(row.Type)
		switch row.Type {
		case epf.RowContribution:
			values[1] = row.Organization
			values[2] = row.MonthlyContribution.Float64()
			values[3] = p.Date(row.StartDate)
			values[4] = p.EndDate(row.EndDate)
			values[5] = row.Months
		case epf.RowInterest:
			rate, _ := row.Rate.Float64()
			values[6] = row.FinancialYearLabel()
			values[7] = p.Date(row.InterestCreditDate)
			values[8] = rate
		}
		values[9] = row.Total.Float64()

		for col, v := range values {
			if v == nil {
				continue
			}
			if err := setCell(f, col+1, rowNo, v); err != nil {
				return nil, err
			}
		}
		rowNo++
	}

	rowNo++
	totals := []struct {
		label string
		value float64
	}{
		{"Total Contributions", s.TotalContributions.Float64()},
		{"Total Interest", s.TotalInterest.Float64()},
		{"Current Balance", s.TotalCurrentBalance.Float64()},
	}
	for _, t := range totals {
		if err := setCell(f, 9, rowNo, t.label); err != nil {
			return nil, err
		}
		if err := setCell(f, 10, rowNo, t.value); err != nil {
			return nil, err
		}
		rowNo++
	}
	return f, nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(timelineSheet, cell, value)
}
