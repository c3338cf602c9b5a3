package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    "github.com/courtclub/session-booking/internal/model"
)

// Queue names used on the default exchange.  Both are declared durable so
// messages survive broker restarts.
const (
    BookingConfirmedQueue = "booking.confirmed"
    WaitlistNotifiedQueue = "waitlist.notified"
)

// Publisher sends domain events to RabbitMQ.  A fresh connection is dialed
// per publish; events are low-volume and the broker may be restarted at any
// time, so holding a long-lived channel buys little.  All failures are
// returned to the caller, who treats publishing as best effort.
type Publisher struct {
    url string
    log zerolog.Logger
}

// NewPublisher builds a Publisher for the given AMQP URL.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
    return &Publisher{url: url, log: log}
}

// BookingConfirmed publishes a BookingConfirmedEvent for the booking.
func (p *Publisher) BookingConfirmed(ctx context.Context, b model.Booking) error {
    ev := BookingConfirmedEvent{
        EventID:         uuid.NewString(),
        BookingID:       b.ID,
        BookingCode:     b.BookingCode,
        UserID:          b.UserID,
        SessionID:       b.SessionID,
        GuestCount:      b.GuestCount,
        TicketsUsed:     b.TicketsUsed,
        DiscountApplied: b.DiscountApplied,
        TotalCents:      b.TotalCents(),
        PaymentMethod:   b.PaymentMethod,
        ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
    }
    return p.publish(ctx, BookingConfirmedQueue, ev)
}

// NotifyWaitlist publishes a WaitlistNotifiedEvent granting the user access
// to a freed slot until expiresAt.
func (p *Publisher) NotifyWaitlist(ctx context.Context, userID, sessionID uint64, expiresAt time.Time) error {
    ev := WaitlistNotifiedEvent{
        EventID:    uuid.NewString(),
        UserID:     userID,
        SessionID:  sessionID,
        NotifiedAt: time.Now().UTC().Format(time.RFC3339),
        ExpiresAt:  expiresAt.UTC().Format(time.RFC3339),
    }
    return p.publish(ctx, WaitlistNotifiedQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, event interface{}) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return fmt.Errorf("dial broker: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Idempotent declare so publisher and consumer can start in any order.
    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    body, err := json.Marshal(event)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
        return fmt.Errorf("publish %s: %w", queueName, err)
    }

    p.log.Debug().Str("queue", queueName).Msg("event published")
    return nil
}
