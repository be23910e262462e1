// Package events publishes visit lifecycle events to RabbitMQ. Publishing is
// best effort: events are queued in memory and dropped when the broker is
// unreachable or the queue is full.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"iplocator/internal/logging"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	VisitRecorded      = "visit.recorded"
	VisitGPSReconciled = "visit.gps_reconciled"
)

// Event is the envelope written to the broker.
type Event struct {
	Type       string    `json:"type"`
	VisitID    uint      `json:"visitId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(event Event)
}

// Noop discards every event. It is used when RABBITMQ_URL is empty.
type Noop struct{}

func (Noop) Publish(Event) {}

type AMQPPublisher struct {
	url     string
	logger  logging.Logger
	queue   chan Event
	backoff time.Duration
}

func NewAMQPPublisher(url string, logger logging.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:     url,
		logger:  logger,
		queue:   make(chan Event, 500),
		backoff: 5 * time.Second,
	}
}

// Publish queues event for delivery without blocking the caller.
func (p *AMQPPublisher) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	select {
	case p.queue <- event:
	default:
		p.logger.Warn("Event queue full, dropping event", "type", event.Type, "visit_id", event.VisitID)
	}
}

// Start delivers queued events until ctx is cancelled, reconnecting to the
// broker after failures.
func (p *AMQPPublisher) Start(ctx context.Context) {
	p.logger.Info("Event publisher starting")
	for {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			p.logger.Warn("RabbitMQ dial failed", "error", err, "retry_in", p.backoff)
			select {
			case <-time.After(p.backoff):
				continue
			case <-ctx.Done():
				p.logger.Info("Event publisher stopping")
				return
			}
		}

		err = p.deliver(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			p.logger.Info("Event publisher stopping")
			return
		}
		p.logger.Warn("RabbitMQ connection lost", "error", err)
	}
}

func (p *AMQPPublisher) deliver(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	for _, name := range []string{VisitRecorded, VisitGPSReconciled} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case event := <-p.queue:
			if err := publish(ctx, ch, event); err != nil {
				p.logger.Error("Failed to publish event", "type", event.Type, "visit_id", event.VisitID, "error", err)
				return err
			}
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errors.New("connection closed")
			}
			return amqpErr
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func publish(ctx context.Context, ch *amqp.Channel, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(pubCtx, "", event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
}
