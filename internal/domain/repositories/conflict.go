package repositories

import (
	"errors"
	"fmt"
)

// ConflictKind names a unique constraint the store can reject a write on
type ConflictKind string

const (
	// ConflictMeetingExternalID is a second meeting for (account_id, external_id)
	ConflictMeetingExternalID ConflictKind = "uq_meetings_account_external_id"
	// ConflictMeetingNaturalKey is a second meeting for (account_id, title, start_time, host_email)
	ConflictMeetingNaturalKey ConflictKind = "uq_meetings_natural_key"
	// ConflictLinkExternalID is a second scheduled link for the same external_id
	ConflictLinkExternalID ConflictKind = "uq_scheduled_links_external_id"
	// ConflictUnknown is any other unique violation
	ConflictUnknown ConflictKind = "unknown"
)

// ConflictError reports a unique-constraint violation, classified by the
// constraint that fired.
type ConflictError struct {
	Kind       ConflictKind
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unique violation on %s: %v", e.Constraint, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// ConflictKindOf returns the conflict kind carried by err, if any
func ConflictKindOf(err error) (ConflictKind, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// KindForConstraint maps a constraint name onto its conflict kind
func KindForConstraint(name string) ConflictKind {
	switch ConflictKind(name) {
	case ConflictMeetingExternalID, ConflictMeetingNaturalKey, ConflictLinkExternalID:
		return ConflictKind(name)
	}
	return ConflictUnknown
}
