// Package notify publishes outbound payment confirmations. Publishing is
// fire-and-forget and never part of the payment transaction.
package notify

import (
	"context"
	"encoding/json"
	"time"
)

// PaymentMessage is the wire payload for a payment confirmation.
type PaymentMessage struct {
	InvoiceID   uint      `json:"invoice_id"`
	UserID      uint      `json:"user_id"`
	WalletID    uint      `json:"wallet_id"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	PaidAt      time.Time `json:"paid_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m *PaymentMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Notifier delivers payment confirmations to an external consumer.
type Notifier interface {
	PaymentConfirmed(ctx context.Context, msg PaymentMessage) error
	Close() error
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) PaymentConfirmed(context.Context, PaymentMessage) error { return nil }
func (Noop) Close() error                                           { return nil }
