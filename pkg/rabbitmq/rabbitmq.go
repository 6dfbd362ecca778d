package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
)

// Defaults for the cellar change-event topology.
const (
	DefaultExchange   = "cellar"
	DefaultQueue      = "cellar_events"
	DefaultBindingKey = "cellar.#"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	logger  *slog.Logger

	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL        string
	Exchange   string
	Queue      string
	BindingKey string
}

func (c Config) withDefaults() Config {
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
	if c.Queue == "" {
		c.Queue = DefaultQueue
	}
	if c.BindingKey == "" {
		c.BindingKey = DefaultBindingKey
	}
	return c
}

// NewClient connects to RabbitMQ and declares a durable topic exchange with
// one durable queue bound to it.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg = cfg.withDefaults()

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ client connected", "exchange", cfg.Exchange, "queue", cfg.Queue)

	return &Client{
		conn:    conn,
		channel: ch,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	if err := ch.QueueBind(cfg.Queue, cfg.BindingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", cfg.Queue, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
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
	return errors.Join(errs...)
}

func newPublishing(body []byte, now time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}
}

// Publish sends a persistent JSON message to the exchange with routingKey.
func (c *Client) Publish(ctx context.Context, routingKey string, body []byte) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		c.cfg.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		newPublishing(body, time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	c.logger.Debug("Published event", "routing_key", routingKey, "bytes", len(body))
	return nil
}

// Handler processes one delivery. A returned error nacks the message.
type Handler func(msg amqp.Delivery) error

// Consume starts a goroutine delivering messages from the queue to handler
// with manual acknowledgement.
func (c *Client) Consume(handler Handler) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.cfg.Queue, // queue
		"",          // consumer tag
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Waiting for cellar events", "queue", c.cfg.Queue)

	go func() {
		for msg := range msgs {
			dispatch(c.logger, msg, handler)
		}
	}()
	return nil
}

// dispatch runs handler and settles the delivery. A failed message is
// requeued once; a failed redelivery is dropped.
func dispatch(logger *slog.Logger, msg amqp.Delivery, handler Handler) {
	if err := handler(msg); err != nil {
		logger.Error("Error processing message", "tag", msg.DeliveryTag, "routing_key", msg.RoutingKey, "error", err)
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			logger.Error("Error nacking message", "tag", msg.DeliveryTag, "error", nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		logger.Error("Error acking message", "tag", msg.DeliveryTag, "error", ackErr)
	}
}

// LogEvents returns a Handler that logs each event.
func LogEvents(logger *slog.Logger) Handler {
	return func(msg amqp.Delivery) error {
		logger.Info("Received cellar event",
			"routing_key", msg.RoutingKey,
			"message_id", msg.MessageId,
			"body", string(msg.Body),
		)
		return nil
	}
}
