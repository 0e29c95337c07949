package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker/v2"

	"github.com/ansy-pieris/storefront/internal/domain"
)

// amqpChannel is the slice of *amqp.Channel the notifier uses, split out so
// tests can stand in for the broker.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitMQNotifier struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

// OrderConfirmation is the payload consumed by the notification workers.
type OrderConfirmation struct {
	OrderID           string    `json:"order_id"`
	UserID            int64     `json:"user_id"`
	Status            string    `json:"status"`
	Total             string    `json:"total"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
	PlacedAt          time.Time `json:"placed_at"`
}

func NewRabbitMQNotifier(url, exchange, queue string) (*RabbitMQNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queue, "", exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &RabbitMQNotifier{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		breaker:  newBreaker(),
	}, nil
}

// newNotifierWithChannel wires a notifier over an already-open channel.
// Used by tests; production callers go through NewRabbitMQNotifier.
func newNotifierWithChannel(ch amqpChannel, exchange string) *RabbitMQNotifier {
	return &RabbitMQNotifier{
		channel:  ch,
		exchange: exchange,
		breaker:  newBreaker(),
	}
}

func newBreaker() *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "order-confirmations",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// OrderConfirmed publishes the confirmation through the circuit breaker.
// When the broker is unhealthy the breaker opens and rejects immediately
// instead of stalling every checkout on a dead connection.
func (n *RabbitMQNotifier) OrderConfirmed(ctx context.Context, order *domain.Order) error {
	payload := OrderConfirmation{
		OrderID:           order.ID.String(),
		UserID:            order.UserID,
		Status:            order.Status.String(),
		Total:             order.Total.StringFixed(2),
		EstimatedDelivery: order.EstimatedDelivery(),
		PlacedAt:          order.CreatedAt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal order confirmation: %w", err)
	}

	_, err = n.breaker.Execute(func() (struct{}, error) {
		pubErr := n.channel.PublishWithContext(ctx,
			n.exchange,
			"",    // routing key
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				DeliveryMode: amqp.Persistent,
				Timestamp:    time.Now(),
				ContentType:  "application/json",
				Body:         body,
			})
		return struct{}{}, pubErr
	})
	if err != nil {
		return fmt.Errorf("publish order confirmation: %w", err)
	}
	return nil
}

func (n *RabbitMQNotifier) Close() error {
	if n.channel != nil {
		_ = n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
