package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client is the RabbitMQ-backed job queue driver. Messages are published
// persistent onto a durable queue so pending variant jobs survive a
// broker restart.
type Client struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	queueName  string
	deliveries <-chan amqp.Delivery
}

// NewClient connects to the broker and declares the durable job queue.
func NewClient(url, queueName string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &Client{
		conn:      conn,
		channel:   ch,
		queueName: queueName,
	}, nil
}

// Publish sends a message to the queue.
func (c *Client) Publish(ctx context.Context, body []byte) error {
	err := c.channel.PublishWithContext(ctx,
		"",          // exchange
		c.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Pop blocks until the broker delivers a message or ctx is done.
// Messages are acked on receipt; lost work is recovered through the
// storage probe, not broker redelivery.
func (c *Client) Pop(ctx context.Context) ([]byte, error) {
	if c.deliveries == nil {
		msgs, err := c.channel.Consume(
			c.queueName, // queue
			"",          // consumer
			false,       // auto-ack
			false,       // exclusive
			false,       // no-local
			false,       // no-wait
			nil,         // args
		)
		if err != nil {
			return nil, fmt.Errorf("failed to start consuming: %w", err)
		}
		c.deliveries = msgs
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-c.deliveries:
		if !ok {
			return nil, fmt.Errorf("delivery channel closed")
		}
		msg.Ack(false)
		return msg.Body, nil
	}
}

// Close closes the channel and connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
