package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/golog"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys of the storefront's domain events.
const (
	EventBookingCreated   = "booking.created"
	EventCarCreated       = "car.created"
	EventCarUpdated       = "car.updated"
	EventCarDeleted       = "car.deleted"
	EventCarActiveToggled = "car.active_toggled"
	EventCustomerCreated  = "customer.created"
)

// EventPublisher announces storefront actions to other systems. Publishing is
// best effort: a failed publish never fails the action that produced it.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// Event is the envelope every message body carries.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// AMQPPublisher publishes JSON events to a topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	golog.Infof("📣 publishing events to exchange %q", exchange)
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	evt := Event{ID: uuid.NewString(), Type: routingKey, OccurredAt: time.Now().UTC(), Data: payload}
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ID,
		Timestamp:    evt.OccurredAt,
		Type:         routingKey,
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		golog.Warnf("closing amqp channel: %v", err)
	}
	return p.conn.Close()
}

// publish logs and swallows publishing failures.
func publish(ctx context.Context, events EventPublisher, routingKey string, payload interface{}) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, routingKey, payload); err != nil {
		golog.Warnf("❌ failed to publish %s: %v", routingKey, err)
	}
}
