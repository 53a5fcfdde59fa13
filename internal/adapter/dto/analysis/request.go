package analysis

// TriggerRequest asks for analysis of a stored meeting transcript
type TriggerRequest struct {
	MeetingID string `json:"meetingId" validate:"required,uuid"`
	AccountID string `json:"accountId" validate:"required"`
}

// CompleteJobRequest reports the outcome of an analysis job
type CompleteJobRequest struct {
	AccountID string `json:"accountId" validate:"required"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty" validate:"max=2000"`
}
