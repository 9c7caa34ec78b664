package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Publisher sends confirmation events to RabbitMQ.  Each publish opens its
// own connection; confirmations are rare enough that pooling is not worth
// the reconnect handling.
type Publisher struct {
    url string
    log *zap.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
    if log == nil {
        log = zap.NewNop()
    }
    return &Publisher{url: url, log: log}
}

// Channel names the delivery channel for metrics.
func (p *Publisher) Channel() string { return "queue" }

// PurchaseConfirmed publishes ev as a persistent JSON message on the
// purchase.confirmed queue.  Errors are logged and returned so callers can
// decide to ignore them.
func (p *Publisher) PurchaseConfirmed(ctx context.Context, ev PurchaseConfirmedEvent) error {
    if ev.EventID == "" {
        ev.EventID = uuid.NewString()
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    conn, err := amqp.Dial(p.url)
    if err != nil {
        p.log.Warn("rabbitmq dial failed", zap.Error(err))
        return fmt.Errorf("dial broker: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("rabbitmq channel open failed", zap.Error(err))
        return fmt.Errorf("open channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(PurchaseConfirmedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("declare queue: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.EventID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", PurchaseConfirmedQueue, false, false, pub); err != nil {
        p.log.Warn("rabbitmq publish failed", zap.Error(err), zap.Uint64("purchase_id", ev.PurchaseID))
        return fmt.Errorf("publish: %w", err)
    }
    p.log.Debug("confirmation published", zap.String("event_id", ev.EventID), zap.Uint64("purchase_id", ev.PurchaseID))
    return nil
}
