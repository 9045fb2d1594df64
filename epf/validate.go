package epf

import (
	"strings"

	"github.com/warp/networth/generic"
)

// ValidationOptions controls the checks that span several accounts.
type ValidationOptions struct {
	// RejectOverlaps fails when an explicit EndDate runs past the next
	// employment's start. Without it the engine silently cuts the window
	// at the next start.
	RejectOverlaps bool
}

// ValidateAccount checks the fields of a single account.
func ValidateAccount(a Account) error {
	verr := &generic.ValidationError{AccountID: a.ID}

	if strings.TrimSpace(a.OrganizationName) == "" {
		verr.Add("organizationName", "must not be empty")
	}
	if !a.EPFAmount.IsPositive() {
		verr.Add("epfAmount", "must be greater than zero")
	}
	if a.CreditDay < 1 || a.CreditDay > 31 {
		verr.Add("creditDay", "must be between 1 and 31")
	}
	if a.StartDate.IsZero() {
		verr.Add("startDate", "is required")
	}
	if a.EndDate != nil && !a.EndDate.After(a.StartDate) {
		verr.Add("endDate", "must be after startDate")
	}

	return verr.OrNil()
}

// Validate checks every account and, if asked, the employment sequence.
func Validate(accounts []Account, opts ValidationOptions) error {
	for _, a := range accounts {
		if err := ValidateAccount(a); err != nil {
			return err
		}
	}
	if !opts.RejectOverlaps {
		return nil
	}

	sorted := sortAccounts(accounts)
	for i := 0; i+1 < len(sorted); i++ {
		cur, next := sorted[i], sorted[i+1]
		if cur.EndDate != nil && cur.EndDate.After(next.StartDate) {
			return &generic.OverlapError{
				First:     cur.OrganizationName,
				Second:    next.OrganizationName,
				EndDate:   *cur.EndDate,
				NextStart: next.StartDate,
			}
		}
	}
	return nil
}
