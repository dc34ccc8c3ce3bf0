package domain

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// MinPaymentAmount is the smallest top-up accepted, in minor units.
const MinPaymentAmount = 50

type Payment struct {
	ID            int64         `json:"id"`
	UserID        *int64        `json:"user,omitempty"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	Status        PaymentStatus `json:"status"`
	IntentID      string        `json:"intentId"`
	TransactionID string        `json:"transactionId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
}
