package meeting

// JobDispatchEntryResponse is one analysis job outcome
type JobDispatchEntryResponse struct {
	JobType string  `json:"jobType"`
	Success bool    `json:"success"`
	JobID   *string `json:"jobId,omitempty"`
	Error   string  `json:"error,omitempty"`
	Queued  bool    `json:"queued"`
}

// SyncReportResponse is the result of one ingestion run
type SyncReportResponse struct {
	MeetingID                 string                     `json:"meetingId"`
	DealID                    string                     `json:"dealId"`
	WasNewMeeting             bool                       `json:"wasNewMeeting"`
	TranscriptSegmentsFetched int                        `json:"transcriptSegmentsFetched"`
	TranscriptSegmentsStored  int                        `json:"transcriptSegmentsStored"`
	HighlightsFetched         int                        `json:"highlightsFetched"`
	HighlightsStored          int                        `json:"highlightsStored"`
	HasSummary                bool                       `json:"hasSummary"`
	JobDispatchReport         []JobDispatchEntryResponse `json:"jobDispatchReport"`
	NotificationOutcome       string                     `json:"notificationOutcome"`
	DealUpdated               bool                       `json:"dealUpdated"`
	ArchiveKey                string                     `json:"archiveKey,omitempty"`
	State                     string                     `json:"state"`
	Warnings                  []string                   `json:"warnings"`
}

// WebhookAckResponse acknowledges an inbound event
type WebhookAckResponse struct {
	Status string              `json:"status"`
	Event  string              `json:"event"`
	Report *SyncReportResponse `json:"report,omitempty"`
}
