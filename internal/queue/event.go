// Package queue carries purchase confirmations over RabbitMQ: the payload
// type, a publisher used by the purchase flow and the background consumer
// that hands deliveries to the mailer.
package queue

import "time"

// PurchaseConfirmedQueue is the durable queue confirmations are routed to.
const PurchaseConfirmedQueue = "purchase.confirmed"

// PerformanceInfo describes one ticket of a confirmed purchase.
type PerformanceInfo struct {
    Key         string    `json:"key"`
    Name        string    `json:"name"`
    Association string    `json:"association"`
    Date        time.Time `json:"date"`
    PriceCents  uint32    `json:"price_cents"`
}

// PurchaseConfirmedEvent is published after a purchase commits.  It holds
// everything the confirmation mail needs so consumers never query the
// database.
type PurchaseConfirmedEvent struct {
    EventID          string            `json:"event_id"`
    PurchaseID       uint64            `json:"purchase_id"`
    Name             string            `json:"name"`
    Email            string            `json:"email"`
    VerificationCode string            `json:"verification_code"`
    Performances     []PerformanceInfo `json:"performances"`
    TotalCents       uint32            `json:"total_cents"`
    ConfirmedAt      time.Time         `json:"confirmed_at"`
}
