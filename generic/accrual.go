package generic

// =============================================================================
// SCHEDULE - Interface for periodic cash flows
// =============================================================================

// Schedule generates the dated cash flows of a recurring instrument
// (EPF contribution, RD instalment, SIP) for a time range.
type Schedule interface {
	// Events returns the flows falling in [from, to).
	Events(from, to TimePoint) []Event
}

// Event is a single dated flow.
type Event struct {
	At     TimePoint
	Amount Amount
	Source string
}
