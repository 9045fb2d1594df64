/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the epf domain model from the external contract consumed by the UI.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

  JSON keys are camelCase, matching the passbook contract the frontend
  already renders (totalCurrentBalance, timeline[].interestCreditDate, ...).

TYPES:
  Accounts:
    AccountDTO, AccountRequest

  Timeline:
    TimelineSummaryDTO, TimelineRowDTO, LedgerEntryDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request types carry go-playground/validator tags for shape checks
  (required, ranges). Business rules (positive amount, end after start,
  no overlapping employments) live in epf.Validate.

SEE ALSO:
  - handlers.go: Uses these types
  - present.go: Summary to DTO conversion
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/networth/epf"
	"github.com/warp/networth/generic"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO represents an EPF account in API responses.
type AccountDTO struct {
	ID               string  `json:"id"`
	UserID           string  `json:"userId"`
	OrganizationName string  `json:"organizationName"`
	EPFAmount        float64 `json:"epfAmount"`
	CreditDay        int     `json:"creditDay"`
	StartDate        string  `json:"startDate"`
	EndDate          *string `json:"endDate,omitempty"`
	CreatedAt        string  `json:"createdAt,omitempty"`
	UpdatedAt        string  `json:"updatedAt,omitempty"`
}

// AccountRequest is the body of create and update calls.
type AccountRequest struct {
	OrganizationName string           `json:"organizationName" validate:"required,max=200"`
	EPFAmount        *decimal.Decimal `json:"epfAmount" validate:"required"`
	CreditDay        int              `json:"creditDay" validate:"required,min=1,max=31"`
	StartDate        string           `json:"startDate" validate:"required"`
	EndDate          *string          `json:"endDate,omitempty"`
}

// =============================================================================
// TIMELINE
// =============================================================================

// TimelineSummaryDTO is the passbook summary.
type TimelineSummaryDTO struct {
	TotalCurrentBalance float64          `json:"totalCurrentBalance"`
	TotalContributions  float64          `json:"totalContributions"`
	TotalInterest       float64          `json:"totalInterest"`
	AsOf                string           `json:"asOf"`
	Timeline            []TimelineRowDTO `json:"timeline"`
}

// TimelineRowDTO is either a contribution row or an interest row; fields
// of the other variant are omitted.
type TimelineRowDTO struct {
	Type string `json:"type"`

	AccountID           string   `json:"accountId,omitempty"`
	Organization        string   `json:"organization,omitempty"`
	MonthlyContribution *float64 `json:"monthlyContribution,omitempty"`
	StartDate           string   `json:"startDate,omitempty"`
	EndDate             string   `json:"endDate,omitempty"`
	ContributionMonths  *int     `json:"contributionMonths,omitempty"`

	FinancialYear      string   `json:"financialYear,omitempty"`
	InterestCreditDate string   `json:"interestCreditDate,omitempty"`
	InterestRate       *float64 `json:"interestRate,omitempty"`

	TotalContribution float64 `json:"totalContribution"`
}

// LedgerEntryDTO is one month of the passbook walk.
type LedgerEntryDTO struct {
	Date           string  `json:"date"`
	Organization   string  `json:"organization"`
	FinancialYear  string  `json:"financialYear"`
	OpeningBalance float64 `json:"openingBalance"`
	Interest       float64 `json:"interest"`
	Contribution   float64 `json:"contribution"`
	ClosingBalance float64 `json:"closingBalance"`
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details any               `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAccountDTO(a epf.Account) AccountDTO {
	dto := AccountDTO{
		ID:               string(a.ID),
		UserID:           string(a.UserID),
		OrganizationName: a.OrganizationName,
		EPFAmount:        a.EPFAmount.Float64(),
		CreditDay:        a.CreditDay,
		StartDate:        a.StartDate.Format(generic.DateLayout),
	}
	if a.EndDate != nil {
		end := a.EndDate.Format(generic.DateLayout)
		dto.EndDate = &end
	}
	if !a.CreatedAt.IsZero() {
		dto.CreatedAt = a.CreatedAt.Format(timestampLayout)
	}
	if !a.UpdatedAt.IsZero() {
		dto.UpdatedAt = a.UpdatedAt.Format(timestampLayout)
	}
	return dto
}

func toAccountDTOs(accounts []epf.Account) []AccountDTO {
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	return dtos
}
