package errors

// ErrorCode identifies an application error class in API responses.
type ErrorCode int32

const (
	ErrorCode_UNSPECIFIED ErrorCode = 0

	// General
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1006
	ErrorCode_PROCESSING_FAILED ErrorCode = 1007

	// Webhooks
	ErrorCode_WEBHOOK_INVALID_SIGNATURE ErrorCode = 2000

	// Ingestion pipeline
	ErrorCode_UPSTREAM_UNAVAILABLE   ErrorCode = 3000
	ErrorCode_MEETING_NOT_READY      ErrorCode = 3001
	ErrorCode_NO_LINKABLE_DEAL       ErrorCode = 3002
	ErrorCode_CROSS_ACCOUNT_DEAL     ErrorCode = 3003
	ErrorCode_RECONCILE_INCONSISTENT ErrorCode = 3004
	ErrorCode_ANALYSIS_JOB_FINISHED  ErrorCode = 3005
	ErrorCode_ANALYSIS_QUEUE_FAILED  ErrorCode = 3006
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:               "UNSPECIFIED",
	ErrorCode_INTERNAL:                  "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:          "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                 "NOT_FOUND",
	ErrorCode_INVALID_PAYLOAD:           "INVALID_PAYLOAD",
	ErrorCode_PROCESSING_FAILED:         "PROCESSING_FAILED",
	ErrorCode_WEBHOOK_INVALID_SIGNATURE: "WEBHOOK_INVALID_SIGNATURE",
	ErrorCode_UPSTREAM_UNAVAILABLE:      "UPSTREAM_UNAVAILABLE",
	ErrorCode_MEETING_NOT_READY:         "MEETING_NOT_READY",
	ErrorCode_NO_LINKABLE_DEAL:          "NO_LINKABLE_DEAL",
	ErrorCode_CROSS_ACCOUNT_DEAL:        "CROSS_ACCOUNT_DEAL",
	ErrorCode_RECONCILE_INCONSISTENT:    "RECONCILE_INCONSISTENT",
	ErrorCode_ANALYSIS_JOB_FINISHED:     "ANALYSIS_JOB_FINISHED",
	ErrorCode_ANALYSIS_QUEUE_FAILED:     "ANALYSIS_QUEUE_FAILED",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNSPECIFIED"
}
