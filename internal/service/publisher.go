package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher delivers domain events to a broker.  Implementations must be
// safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, queue string, event any) error
}

// RabbitPublisher publishes JSON events to RabbitMQ on the default
// exchange, routing by queue name.  Every call dials its own connection.
// Errors are logged and returned; callers may ignore them.
type RabbitPublisher struct {
	URL    string
	Logger *slog.Logger
}

// NewRabbitPublisher returns a publisher for the broker at url.
func NewRabbitPublisher(url string, logger *slog.Logger) *RabbitPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RabbitPublisher{URL: url, Logger: logger}
}

// Publish declares queue (durable, idempotent) and sends event as a
// persistent message.
func (p *RabbitPublisher) Publish(ctx context.Context, queue string, event any) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Logger.Warn("rabbitmq: dial failed", "queue", queue, "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Warn("rabbitmq: channel open failed", "queue", queue, "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		p.Logger.Warn("rabbitmq: queue declare failed", "queue", queue, "err", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.Logger.Warn("rabbitmq: marshal event failed", "queue", queue, "err", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		pub,
	); err != nil {
		p.Logger.Warn("rabbitmq: publish failed", "queue", queue, "err", err)
		return err
	}
	return nil
}

// PublishAsync sends event in the background once the surrounding transaction
// has committed.  A nil Publisher disables events.
func PublishAsync(p Publisher, logger *slog.Logger, queue string, event any) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, queue, event); err != nil && logger != nil {
			logger.Warn("event not published", "queue", queue, "err", err)
		}
	}()
}
