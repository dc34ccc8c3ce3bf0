package paygate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testSecret = "whsec_test"

func signed(t *testing.T, payload string) ([]byte, string) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Payload, sp.Header
}

func TestParseWebhook_IntentSucceeded(t *testing.T) {
	s := NewStripe("sk_test", testSecret)
	payload, sig := signed(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {"object": {
			"id": "pi_1",
			"object": "payment_intent",
			"amount": 500,
			"amount_received": 500,
			"currency": "usd",
			"latest_charge": "ch_1",
			"metadata": {"user_id": "42"}
		}}
	}`)

	ev, err := s.ParseWebhook(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, EventIntentSucceeded, ev.Type)
	assert.Equal(t, "pi_1", ev.IntentID)
	assert.Equal(t, "ch_1", ev.TransactionID)
	assert.Equal(t, int64(500), ev.Amount)
	require.NotNil(t, ev.UserID)
	assert.Equal(t, int64(42), *ev.UserID)
}

func TestParseWebhook_OtherEvent(t *testing.T) {
	s := NewStripe("sk_test", testSecret)
	payload, sig := signed(t, `{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{}}}`)

	ev, err := s.ParseWebhook(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, "customer.created", ev.Type)
	assert.Empty(t, ev.IntentID)
}

func TestParseWebhook_BadSignature(t *testing.T) {
	s := NewStripe("sk_test", testSecret)
	_, err := s.ParseWebhook([]byte(`{"id":"evt_3"}`), "t=1,v1=deadbeef")
	assert.Error(t, err)
}
