package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorWrapsCause(t *testing.T) {
	cause := stdErrors.New("dial tcp: connection refused")
	err := ErrUpstreamUnavailable(cause)

	assert.Equal(t, http.StatusBadGateway, err.HTTPCode)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", err.Code.String())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "[UPSTREAM_UNAVAILABLE]")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithDetailDoesNotShareMaps(t *testing.T) {
	base := ErrNoLinkableDeal("a-1")
	withDeal := base.WithDetail("deal_id", "d-1")

	assert.Equal(t, map[string]string{"account_id": "a-1"}, base.Details)
	assert.Equal(t, map[string]string{"account_id": "a-1", "deal_id": "d-1"}, withDeal.Details)
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "MEETING_NOT_READY", ErrorCode_MEETING_NOT_READY.String())
	assert.Equal(t, "UNSPECIFIED", ErrorCode(42).String())
	assert.Equal(t, "[INVALID_PAYLOAD] Invalid payload", ErrInvalidPayload().Error())
}
