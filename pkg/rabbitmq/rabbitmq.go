package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
)

// OrderEventsQueue is the durable queue every order and payment event lands on.
const OrderEventsQueue = "order_events"

// Event is the envelope published for each domain event.
type Event struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

func declareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		OrderEventsQueue, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
}

// NewClient connects to RabbitMQ, opens a channel and declares the events queue.
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

	if _, err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", OrderEventsQueue, err)
	}

	log.Printf("RabbitMQ client connected and %s declared.", OrderEventsQueue)

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
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

// NewEvent wraps data in an Event envelope.
func NewEvent(eventType string, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Data: raw}, nil
}

// PublishOrderEvent publishes a persistent JSON event to the events queue.
func (c *Client) PublishOrderEvent(eventType string, data interface{}) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	event, err := NewEvent(eventType, data)
	if err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		"",               // default exchange
		OrderEventsQueue, // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         eventType,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}

	log.Printf(" [x] Sent %s event", eventType)
	return nil
}

// DecodeEvent parses a delivery body into an Event.
func DecodeEvent(msg amqp.Delivery) (Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return Event{}, fmt.Errorf("failed to decode event %d: %w", msg.DeliveryTag, err)
	}
	return event, nil
}

// ConsumeOrderEvents starts a goroutine that hands every delivery to
// handler. A nil result acks the message; an error nacks it without
// requeueing so a malformed event cannot loop forever.
func (c *Client) ConsumeOrderEvents(handler func(Event) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declareQueue(c.channel)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for events on %s", queue.Name)

	go func() {
		for msg := range msgs {
			if err := handleDelivery(msg, handler); err != nil {
				log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
				if nackErr := msg.Nack(false, false); nackErr != nil {
					log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
			}
		}
		log.Printf("Consumer for %s stopped", queue.Name)
	}()

	return nil
}

func handleDelivery(msg amqp.Delivery, handler func(Event) error) error {
	event, err := DecodeEvent(msg)
	if err != nil {
		return err
	}
	return handler(event)
}

// LogEvent is an audit handler that writes each event to the log.
func LogEvent(event Event) error {
	log.Printf("Order event %s at %s: %s", event.Type, event.OccurredAt.Format(time.RFC3339), string(event.Data))
	return nil
}
