/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario loads cleanly into both stores and that the
	resulting timelines show the behaviour the scenario advertises.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/networth/epf"
	"github.com/warp/networth/generic"
	"github.com/warp/networth/store/sqlite"
)

func TestScenario_AllLoadIntoSQLite(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	h, _ := setupTestHandler(t, store)
	ctx := context.Background()

	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			require.NoError(t, h.loadScenario(ctx, s))

			accounts, err := store.ListAccounts(ctx, generic.UserID(s.UserID))
			require.NoError(t, err)
			assert.NotEmpty(t, accounts)
			require.NoError(t, epf.Validate(accounts, epf.ValidationOptions{RejectOverlaps: true}))
		})
	}
}

func TestScenario_JobSwitch(t *testing.T) {
	// GIVEN: The job-switch scenario
	h, router := setupTestHandler(t, nil)

	// WHEN: Loading it over HTTP
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", map[string]string{"scenarioId": "job-switch"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: Accounts come back in start order and each start ends the previous window
	rec = do(t, router, http.MethodGet, "/api/users/demo-switch/epf/timeline?as_of=2024-04-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[TimelineSummaryDTO](t, rec)

	require.GreaterOrEqual(t, len(summary.Timeline), 3)
	assert.Equal(t, "Tata Consultancy Services", summary.Timeline[0].Organization)
	assert.Equal(t, "31/01/2021", summary.Timeline[0].EndDate)
	assert.Equal(t, "Wipro", summary.Timeline[1].Organization)
	assert.Equal(t, "01/09/2023", summary.Timeline[1].EndDate)
	assert.Equal(t, "Present", summary.Timeline[2].EndDate)
	assert.Equal(t, 7, *summary.Timeline[2].ContributionMonths)

	rec = do(t, router, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "job-switch", decodeBody[ScenarioDTO](t, rec).ID)
	assert.Equal(t, "job-switch", h.currentScenario)
}

func TestScenario_CareerBreakShowsExitDate(t *testing.T) {
	h, _ := setupTestHandler(t, nil)
	s, ok := findScenario("career-break")
	require.True(t, ok)
	require.NoError(t, h.loadScenario(context.Background(), s))

	accounts, err := h.Store.ListAccounts(context.Background(), "demo-break")
	require.NoError(t, err)
	summary := h.Engine().Timeline(accounts, testToday)

	first := summary.Timeline[0]
	require.NotNil(t, first.EndDate)
	assert.Equal(t, "31/03/2020", h.Presenter.EndDate(first.EndDate))
	assert.Equal(t, 36, first.Months)
}

func TestScenario_NewJoinerHasNoMonths(t *testing.T) {
	h, router := setupTestHandler(t, nil)
	s, _ := findScenario("new-joiner")
	require.NoError(t, h.loadScenario(context.Background(), s))

	rec := do(t, router, http.MethodGet, "/api/users/demo-new/epf/timeline", nil)
	summary := decodeBody[TimelineSummaryDTO](t, rec)

	assert.Equal(t, 0.0, summary.TotalCurrentBalance)
	require.Len(t, summary.Timeline, 1)
	assert.Equal(t, 0, *summary.Timeline[0].ContributionMonths)
}

func TestScenario_ReloadKeepsRates(t *testing.T) {
	h, router := setupTestHandler(t, nil)
	rec := do(t, router, http.MethodPut, "/api/rates", `{"rates":[{"financial_year":2022,"rate":"8.15"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	s, _ := findScenario("single-employer")
	require.NoError(t, h.loadScenario(context.Background(), s))

	stored, err := h.Store.LoadRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2022}, stored.Years())
}

func TestScenario_Unknown(t *testing.T) {
	_, router := setupTestHandler(t, nil)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", map[string]string{"scenarioId": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/scenarios/load", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/scenarios", nil)
	assert.Len(t, decodeBody[[]ScenarioDTO](t, rec), len(scenarios))
}
