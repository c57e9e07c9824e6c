package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const dialTimeout = 3 * time.Second

// Publisher sends booking events to RabbitMQ.  It dials per publish so a
// broker outage never leaves a stale connection behind.  A circuit
// breaker stops dialling after repeated failures and fails fast until the
// broker has had time to recover; callers treat failures as best effort.
type Publisher struct {
	url     string
	log     zerolog.Logger
	breaker *gobreaker.CircuitBreaker
}

// NewPublisher returns a Publisher for the given broker URL.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
	l := log.With().Str("component", "publisher").Logger()
	return &Publisher{
		url: url,
		log: l,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "rabbitmq-publisher",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 3 },
			OnStateChange: func(name string, from, to gobreaker.State) {
				l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		}),
	}
}

// Publish routes the event to its queue.  Messages are persistent and the
// queue is declared durable on every call (idempotent).
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
	name := QueueFor(ev.Type)
	if name == "" {
		return fmt.Errorf("queue: unknown event type %q", ev.Type)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("queue: marshal event: %w", err)
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.send(ctx, name, ev, body)
	})
	return err
}

func (p *Publisher) send(ctx context.Context, name string, ev BookingEvent, body []byte) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq dial failed")
		return fmt.Errorf("queue: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq channel open failed")
		return fmt.Errorf("queue: channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return fmt.Errorf("queue: declare %s: %w", name, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.MessageID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", name, false, false, pub); err != nil {
		return fmt.Errorf("queue: publish %s: %w", name, err)
	}
	p.log.Debug().Str("queue", name).Uint64("booking_id", ev.BookingID).Msg("event published")
	return nil
}
