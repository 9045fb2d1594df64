/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built employment histories that populate the store with
	realistic EPF data for demos. Each scenario targets one user and shows
	a specific behaviour of the timeline.

AVAILABLE SCENARIOS:

	single-employer:  One ongoing employment since 2019
	job-switch:       Three employers, one starting on the 31st
	career-break:     Explicit exit date, gap, then a new job
	new-joiner:       Employment starting today (no months yet)

HOW SCENARIOS WORK:
 1. Reset the store (accounts and rates)
 2. Persist the current rate schedule again
 3. Create the scenario's accounts

USAGE VIA API:

	POST /api/scenarios/load
	{"scenarioId": "job-switch"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/networth/epf"
	"github.com/warp/networth/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	accounts func(today generic.TimePoint) []epf.Account
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "single-employer",
			Name:        "Single Employer",
			Description: "One ongoing employment with a fixed monthly contribution",
			UserID:      "demo-single",
		},
		accounts: func(generic.TimePoint) []epf.Account {
			return []epf.Account{
				demoAccount("demo-single", "single-infosys", "Infosys", 1800, 10, date(2019, time.July, 1), nil),
			}
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "job-switch",
			Name:        "Job Switch",
			Description: "Three employers; each new start ends the previous window",
			UserID:      "demo-switch",
		},
		accounts: func(generic.TimePoint) []epf.Account {
			return []epf.Account{
				demoAccount("demo-switch", "switch-razorpay", "Razorpay", 3600, 1, date(2023, time.September, 1), nil),
				demoAccount("demo-switch", "switch-tcs", "Tata Consultancy Services", 1800, 15, date(2018, time.June, 15), nil),
				demoAccount("demo-switch", "switch-wipro", "Wipro", 2400, 31, date(2021, time.January, 31), nil),
			}
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "career-break",
			Name:        "Career Break",
			Description: "Exit date recorded, eighteen months off, then a new employer",
			UserID:      "demo-break",
		},
		accounts: func(generic.TimePoint) []epf.Account {
			exit := date(2020, time.March, 31)
			return []epf.Account{
				demoAccount("demo-break", "break-accenture", "Accenture", 1500, 5, date(2017, time.April, 1), &exit),
				demoAccount("demo-break", "break-flipkart", "Flipkart", 3000, 5, date(2021, time.October, 1), nil),
			}
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "new-joiner",
			Name:        "New Joiner",
			Description: "Employment starting today; no contribution has been made yet",
			UserID:      "demo-new",
		},
		accounts: func(today generic.TimePoint) []epf.Account {
			return []epf.Account{
				demoAccount("demo-new", "new-zerodha", "Zerodha", 5000, today.Day(), today, nil),
			}
		},
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.loadScenario(r.Context(), s); err != nil {
		h.internalError(w, r, fmt.Sprintf("Failed to load scenario %s", s.ID), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": s.ID, "userId": s.UserID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type resetter interface {
	Reset(ctx context.Context) error
}

func (h *Handler) loadScenario(ctx context.Context, s scenario) error {
	rs, ok := h.Store.(resetter)
	if !ok {
		return fmt.Errorf("store %T cannot be reset", h.Store)
	}
	if err := rs.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	if rates := h.Engine().Rates; len(rates) > 0 {
		if err := h.Store.SaveRates(ctx, rates); err != nil {
			return err
		}
	}

	for _, a := range s.accounts(h.Now()) {
		if err := h.Store.CreateAccount(ctx, a); err != nil {
			return fmt.Errorf("account %s: %w", a.ID, err)
		}
	}

	h.mu.Lock()
	h.currentScenario = s.ID
	h.mu.Unlock()
	return nil
}

func demoAccount(user, id, org string, monthly int64, creditDay int, start generic.TimePoint, end *generic.TimePoint) epf.Account {
	return epf.Account{
		ID:               generic.AccountID(id),
		UserID:           generic.UserID(user),
		OrganizationName: org,
		EPFAmount:        generic.NewAmountFromInt(monthly, generic.INR),
		CreditDay:        creditDay,
		StartDate:        start,
		EndDate:          end,
	}
}

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}
