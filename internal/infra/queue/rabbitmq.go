package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jonatanoficial-bit/IMVPEDIA-VIOLAO/internal/domain"
)

// RabbitEventQueue реализует очередь событий прогресса через AMQP.
type RabbitEventQueue struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	exchange string
	delivery <-chan amqp.Delivery
}

var _ domain.EventQueue = (*RabbitEventQueue)(nil)

// NewRabbitEventQueue подключается к RabbitMQ и объявляет очередь.
func NewRabbitEventQueue(amqpURL, exchange, queueName string) (*RabbitEventQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queueName == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	return &RabbitEventQueue{conn: conn, ch: ch, queue: queueName, exchange: exchange}, nil
}

// Publish публикует событие в очередь.
func (q *RabbitEventQueue) Publish(ctx context.Context, event domain.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = q.ch.PublishWithContext(ctx, q.exchange, q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Pop читает одно событие из очереди; подтверждение после успешного
// декодирования, битое сообщение отбрасывается без повтора.
func (q *RabbitEventQueue) Pop(ctx context.Context) (domain.ProgressEvent, error) {
	if q.delivery == nil {
		delivery, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
		if err != nil {
			return domain.ProgressEvent{}, fmt.Errorf("amqp consume: %w", err)
		}
		q.delivery = delivery
	}
	for {
		select {
		case <-ctx.Done():
			return domain.ProgressEvent{}, ctx.Err()
		case msg, ok := <-q.delivery:
			if !ok {
				return domain.ProgressEvent{}, errors.New("amqp queue: канал доставки закрыт")
			}
			var event domain.ProgressEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				_ = msg.Nack(false, false)
				continue
			}
			if err := msg.Ack(false); err != nil {
				return domain.ProgressEvent{}, fmt.Errorf("amqp ack: %w", err)
			}
			return event, nil
		}
	}
}

// Close закрывает канал и соединение.
func (q *RabbitEventQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
