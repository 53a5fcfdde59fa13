package ingest

import (
	"errors"
	"fmt"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// Fatal pipeline errors. Everything else is degraded and only shows up on
// the Report.
var (
	ErrInvalidRef            = errors.New("account id and external id are required")
	ErrMetadataUnavailable   = errors.New("meeting metadata unavailable")
	ErrMeetingNotReady       = errors.New("meeting not known to the transcription service yet")
	ErrNoLinkableDeal        = entities.ErrNoLinkableDeal
	ErrCrossAccountDeal      = entities.ErrCrossAccountDeal
	ErrReconcileInconsistent = entities.ErrReconcileInconsistent
)

// PipelineError is a fatal run failure with enough context to retry it
type PipelineError struct {
	Step       State
	AccountID  string
	ExternalID string
	Err        error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("meeting sync %s/%s failed while %s: %v", e.AccountID, e.ExternalID, e.Step, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// StepOf returns the step a pipeline error failed in
func StepOf(err error) (State, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Step, true
	}
	return "", false
}
