package epf

import (
	"sort"

	"github.com/warp/networth/generic"
)

// =============================================================================
// MONTHLY SCHEDULE - generic.Schedule for a fixed monthly deposit
// =============================================================================

// MonthlySchedule emits Amount on the start date and on the same day of
// every following month. Each date is derived from Start, not from the
// previous event, so a 31st start gives Feb 28 then Mar 31 rather than
// drifting to the 28th.
type MonthlySchedule struct {
	Start        generic.TimePoint
	Amount       generic.Amount
	Organization string
}

var _ generic.Schedule = MonthlySchedule{}

func (s MonthlySchedule) Events(from, to generic.TimePoint) []generic.Event {
	var events []generic.Event
	for n := 0; ; n++ {
		at := s.Start.AddMonths(n)
		if !at.Before(to) {
			break
		}
		if at.Before(from) {
			continue
		}
		events = append(events, generic.Event{At: at, Amount: s.Amount, Source: s.Organization})
	}
	return events
}

// =============================================================================
// EMPLOYMENT WINDOWS
// =============================================================================

// window is the half-open active range [account.StartDate, end) of one
// account after ordering.
type window struct {
	account Account
	end     generic.TimePoint

	// shownEnd is what the timeline reports as the end date; nil is "Present".
	shownEnd *generic.TimePoint
}

// sortAccounts returns a start-date ordered copy. Accounts starting on the
// same day keep their input order.
func sortAccounts(accounts []Account) []Account {
	sorted := make([]Account, len(accounts))
	copy(sorted, accounts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})
	return sorted
}

// windows derives each account's active range. An employment ends at the
// earlier of its explicit EndDate and the next account's start, even when
// that bound lies after asOf. Only an unbounded last window runs to asOf.
func windows(accounts []Account, asOf generic.TimePoint) []window {
	sorted := sortAccounts(accounts)
	out := make([]window, len(sorted))

	for i, a := range sorted {
		var shown *generic.TimePoint
		if i+1 < len(sorted) {
			next := sorted[i+1].StartDate
			shown = &next
		}
		if a.EndDate != nil && (shown == nil || a.EndDate.Before(*shown)) {
			end := *a.EndDate
			shown = &end
		}

		end := asOf
		if shown != nil {
			end = *shown
		}
		out[i] = window{account: a, end: end, shownEnd: shown}
	}
	return out
}

// contributions expands a window into its monthly events.
func (w window) contributions() []ContributionEvent {
	schedule := MonthlySchedule{
		Start:        w.account.StartDate,
		Amount:       w.account.EPFAmount,
		Organization: w.account.OrganizationName,
	}
	events := schedule.Events(w.account.StartDate, w.end)
	out := make([]ContributionEvent, len(events))
	for i, e := range events {
		out[i] = ContributionEvent{Date: e.At, Amount: e.Amount, Organization: e.Source}
	}
	return out
}
