package meeting

// SyncRequest asks for one upstream meeting to be ingested
type SyncRequest struct {
	AccountID  string `json:"accountId" validate:"required,max=255"`
	ExternalID string `json:"externalId" validate:"required,max=255"`
}

// TranscriptionWebhookRequest is the event the transcription service posts
// when a meeting changes state. ClientReferenceID carries the account id.
type TranscriptionWebhookRequest struct {
	MeetingID         string `json:"meeting_id" validate:"required"`
	EventType         string `json:"event_type" validate:"required"`
	ClientReferenceID string `json:"client_reference_id"`
}
