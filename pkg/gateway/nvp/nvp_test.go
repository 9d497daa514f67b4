package nvp

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flaboy/aira-checkout/pkg/gateway"
)

func TestParseResponse(t *testing.T) {
	body := "ACK=Success&TOKEN=EC%2d123&CORRELATIONID=abc123&L_LONGMESSAGE0=All%20good"

	resp, err := ParseResponse(body)
	require.NoError(t, err)

	assert.True(t, resp.Success())
	assert.Equal(t, "EC-123", resp.Token())
	assert.Equal(t, "abc123", resp.CorrelationID())
	assert.Equal(t, "All good", resp.ErrorMessage())
}

func TestParseResponseSuccessWithWarning(t *testing.T) {
	resp, err := ParseResponse("ACK=SuccessWithWarning&TOKEN=EC-9")
	require.NoError(t, err)
	assert.True(t, resp.Success())
}

func TestParseResponseLowercaseKeys(t *testing.T) {
	resp, err := ParseResponse("ack=Success&token=EC-9")
	require.NoError(t, err)
	assert.True(t, resp.Success())
	assert.Equal(t, "EC-9", resp.Token())
}

func TestParseResponseMissingAck(t *testing.T) {
	resp, err := ParseResponse("TOKEN=EC-9")
	require.NoError(t, err)
	assert.False(t, resp.Success())
}

func TestParseResponseMalformed(t *testing.T) {
	_, err := ParseResponse("ACK=%zz")
	assert.Error(t, err)
}

func TestSetCardParamsExpDate(t *testing.T) {
	params := url.Values{}
	setCardParams(params, &gateway.DirectPaymentParams{
		CardType:   "Visa",
		CardNumber: "4111111111111111",
		ExpMonth:   3,
		ExpYear:    2030,
		CVV2:       "123",
	})

	assert.Equal(t, "032030", params.Get("EXPDATE"))
	assert.Equal(t, "4111111111111111", params.Get("ACCT"))
	assert.Equal(t, "Visa", params.Get("CREDITCARDTYPE"))
}
