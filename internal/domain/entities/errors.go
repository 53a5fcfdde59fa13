package entities

import "errors"

// Domain errors
var (
	// Reconciliation
	ErrNoLinkableDeal        = errors.New("no linkable deal for account")
	ErrCrossAccountDeal      = errors.New("linked deal belongs to a different account")
	ErrReconcileInconsistent = errors.New("uniqueness conflict but no matching row found")

	// Lookups
	ErrMeetingNotFound     = errors.New("meeting not found")
	ErrDealNotFound        = errors.New("deal not found")
	ErrAnalysisJobNotFound = errors.New("analysis job not found")

	// Analysis jobs
	ErrAnalysisJobFinished = errors.New("analysis job already finished")

	// Generic errors
	ErrInvalidRequest = errors.New("invalid request")
)
