// Package paygate talks to the payment provider.
package paygate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// WebhookEvent is the subset of a provider event the payment flow needs.
type WebhookEvent struct {
	ID            string
	Type          string
	IntentID      string
	TransactionID string
	Amount        int64
	Currency      string
	UserID        *int64
}

type Stripe struct {
	api           *client.API
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	return &Stripe{api: client.New(secretKey, nil), webhookSecret: webhookSecret}
}

// CreateIntent opens a payment intent crediting userID on success.
func (s *Stripe) CreateIntent(ctx context.Context, amount int64, currency string, userID int64) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatInt(userID, 10))
	params.SetIdempotencyKey(uuid.NewString())

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Amount: pi.Amount, Currency: string(pi.Currency)}, nil
}

// ParseWebhook verifies the signature header and decodes payment intent events.
// Other event types come back with only ID and Type set.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (WebhookEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("verify webhook: %w", err)
	}
	out := WebhookEvent{ID: ev.ID, Type: string(ev.Type)}
	if out.Type != EventIntentSucceeded && out.Type != EventIntentFailed {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode payment intent: %w", err)
	}
	out.IntentID = pi.ID
	out.Amount = pi.AmountReceived
	if out.Amount == 0 {
		out.Amount = pi.Amount
	}
	out.Currency = string(pi.Currency)
	out.TransactionID = pi.ID
	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		out.TransactionID = pi.LatestCharge.ID
	}
	if raw, ok := pi.Metadata["user_id"]; ok {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			out.UserID = &id
		}
	}
	return out, nil
}
