/*
Package factory provides JSON to Go interest-rate policy conversion.

PURPOSE:
  Converts JSON rate policy documents into a configured epf.Engine. The
  EPFO board declares a new rate every year; operators update a JSON file
  or call PUT /api/rates instead of shipping code.

JSON SCHEMA:
  {
    "id": "epfo-statutory",
    "name": "EPFO declared rates",
    "default_rate": "8.25",
    "period_type": "fiscal_year",
    "fiscal_year_start": 4,
    "rates": [
      {"financial_year": 2021, "rate": "8.1"},
      {"financial_year": 2022, "rate": "8.15"}
    ]
  }

  Rates are annual percentages. Numbers may be quoted or bare.
  financial_year is the calendar year the April-March year starts in.

KEY FEATURES:
  - Validates rates are within [0, 100]
  - Rejects duplicate years
  - Defaults to the April financial year and 8.25% flat rate

USAGE:
  f := factory.NewRateFactory()
  engine, err := f.ParseRatePolicy(jsonString)
  summary := engine.Timeline(accounts, asOf)

SEE ALSO:
  - epf/interest.go: RateSchedule and DefaultAnnualRate
  - config/config.go: EPF_RATES_FILE loading
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/networth/epf"
	"github.com/warp/networth/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RatePolicyJSON is the JSON representation of a rate policy.
type RatePolicyJSON struct {
	ID              string           `json:"id,omitempty"`
	Name            string           `json:"name,omitempty"`
	DefaultRate     *decimal.Decimal `json:"default_rate,omitempty"`
	PeriodType      string           `json:"period_type,omitempty"`
	FiscalYearStart int              `json:"fiscal_year_start,omitempty"` // Month 1-12
	Rates           []YearRateJSON   `json:"rates"`
}

// YearRateJSON is one financial year's declared rate.
type YearRateJSON struct {
	FinancialYear int             `json:"financial_year"`
	Rate          decimal.Decimal `json:"rate"`
}

// =============================================================================
// RATE FACTORY
// =============================================================================

// RateFactory converts JSON rate policies to engines.
type RateFactory struct{}

// NewRateFactory creates a new rate factory.
func NewRateFactory() *RateFactory {
	return &RateFactory{}
}

// ParseRatePolicy parses a JSON string into a configured engine.
func (f *RateFactory) ParseRatePolicy(jsonStr string) (*epf.Engine, error) {
	pj, err := f.Decode([]byte(jsonStr))
	if err != nil {
		return nil, err
	}
	return f.FromJSON(pj)
}

// Decode reads a policy document without applying defaults.
func (f *RateFactory) Decode(data []byte) (RatePolicyJSON, error) {
	var pj RatePolicyJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return pj, fmt.Errorf("failed to parse rate policy JSON: %w", err)
	}
	return pj, nil
}

// FromJSON converts RatePolicyJSON to an engine.
func (f *RateFactory) FromJSON(pj RatePolicyJSON) (*epf.Engine, error) {
	engine := epf.NewEngine()
	engine.Period = parsePeriodConfig(pj.PeriodType, pj.FiscalYearStart)

	if pj.DefaultRate != nil {
		if err := checkRate(*pj.DefaultRate); err != nil {
			return nil, fmt.Errorf("default_rate: %w", err)
		}
		engine.AnnualRate = *pj.DefaultRate
	}

	schedule, err := f.Schedule(pj.Rates)
	if err != nil {
		return nil, err
	}
	engine.Rates = schedule
	return engine, nil
}

// Schedule validates per-year entries into a RateSchedule.
func (f *RateFactory) Schedule(entries []YearRateJSON) (epf.RateSchedule, error) {
	schedule := make(epf.RateSchedule, len(entries))
	for _, e := range entries {
		if e.FinancialYear < 1952 || e.FinancialYear > 9998 {
			return nil, fmt.Errorf("financial_year %d: %w", e.FinancialYear, generic.ErrInvalidRate)
		}
		if _, dup := schedule[e.FinancialYear]; dup {
			return nil, fmt.Errorf("financial_year %d listed twice: %w", e.FinancialYear, generic.ErrInvalidRate)
		}
		if err := checkRate(e.Rate); err != nil {
			return nil, fmt.Errorf("financial_year %d: %w", e.FinancialYear, err)
		}
		schedule[e.FinancialYear] = e.Rate
	}
	return schedule, nil
}

// ToJSON converts an engine back to its policy document.
func (f *RateFactory) ToJSON(engine *epf.Engine) RatePolicyJSON {
	rate := engine.AnnualRate
	pj := RatePolicyJSON{
		DefaultRate:     &rate,
		PeriodType:      string(engine.Period.Type),
		FiscalYearStart: int(engine.Period.FiscalYearStartMonth),
		Rates:           []YearRateJSON{},
	}
	for _, fy := range engine.Rates.Years() {
		pj.Rates = append(pj.Rates, YearRateJSON{FinancialYear: fy, Rate: engine.Rates[fy]})
	}
	return pj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

var maxRate = decimal.NewFromInt(100)

func checkRate(r decimal.Decimal) error {
	if r.IsNegative() || r.GreaterThan(maxRate) {
		return fmt.Errorf("rate %s outside [0, 100]: %w", r, generic.ErrInvalidRate)
	}
	return nil
}

func parsePeriodConfig(periodType string, fiscalMonth int) generic.PeriodConfig {
	switch periodType {
	case "calendar_year":
		return generic.PeriodConfig{Type: generic.PeriodCalendarYear}
	default:
		pc := generic.IndianFinancialYear
		if fiscalMonth >= 1 && fiscalMonth <= 12 {
			pc.FiscalYearStartMonth = time.Month(fiscalMonth)
		}
		return pc
	}
}

// =============================================================================
// PRESETS
// =============================================================================

// StatutoryRatesJSON returns the EPFO declared rates as a policy document.
func StatutoryRatesJSON() string {
	pj := NewRateFactory().ToJSON(&epf.Engine{
		AnnualRate: epf.DefaultAnnualRate,
		Rates:      epf.StatutoryRates(),
		Period:     generic.IndianFinancialYear,
	})
	pj.ID = "epfo-statutory"
	pj.Name = "EPFO declared rates"
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}
