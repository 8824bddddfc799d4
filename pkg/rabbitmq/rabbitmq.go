// Package rabbitmq publishes order lifecycle events to a topic exchange so
// downstream consumers (inventory, notifications, reconciliation tooling)
// can react without coupling to the checkout path.
package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"

	"chronoshop/internal/logger"
)

// Exchange and routing keys for order lifecycle events.
const (
	Exchange = "orders"

	RouteOrderCreated    = "order.created"
	RouteOrderPaid       = "order.paid"
	RouteShipmentCreated = "shipment.created"
	RouteShipmentFailed  = "shipment.failed"

	orderQueue = "order_events"
)

// queueBindings are the topic patterns bound to the event queue. Every
// routing key published above must match one of them or the in-repo
// consumer never sees the event.
var queueBindings = []string{"order.*", "shipment.*"}

// Publisher is the narrow interface the services depend on; the Client
// implements it, tests mock it.
type Publisher interface {
	Publish(routingKey string, body []byte) error
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewClient connects to RabbitMQ, declares the orders exchange and the
// durable event queue bound to it.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(orderQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s queue: %w", orderQueue, err)
	}
	for _, pattern := range queueBindings {
		if err := ch.QueueBind(orderQueue, pattern, Exchange, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to bind %s queue to %s: %w", orderQueue, pattern, err)
		}
	}

	return &Client{conn: conn, channel: ch}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends a persistent message to the orders exchange.
func (c *Client) Publish(routingKey string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	err := c.channel.Publish(
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logger.Get().Debug("Published order event",
		zap.String("routing_key", routingKey),
		zap.Int("bytes", len(body)),
	)
	return nil
}

// PublishEvent marshals payload as JSON and publishes it.
func PublishEvent(p Publisher, routingKey string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return p.Publish(routingKey, body)
}

// ConsumeOrderEvents registers a consumer on the order event queue. The
// handler's error return controls ack/nack; nacked messages are requeued.
func (c *Client) ConsumeOrderEvents(messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		orderQueue,
		"",    // consumer tag
		false, // auto-ack: manual acknowledgement
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := messageHandler(msg); err != nil {
				logger.Get().Error("Error processing order event",
					zap.Uint64("delivery_tag", msg.DeliveryTag),
					zap.Error(err),
				)
				if requeueErr := msg.Nack(false, true); requeueErr != nil {
					logger.Get().Error("Error nacking message", zap.Error(requeueErr))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				logger.Get().Error("Error acking message", zap.Error(ackErr))
			}
		}
	}()

	return nil
}
