package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"smm-planner/internal/domain"
	"smm-planner/internal/infra/metrics"
)

// RabbitComposeQueue реализует очередь задач генерации поверх AMQP.
// Очередь объявляется durable, сообщения публикуются persistent,
// подтверждение — ручным ack/nack.
type RabbitComposeQueue struct {
	url   string
	queue string

	mu         sync.Mutex
	conn       *amqp.Connection
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
}

// NewRabbitComposeQueue подключается к брокеру и объявляет очередь.
func NewRabbitComposeQueue(url, queue string) (*RabbitComposeQueue, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	q := &RabbitComposeQueue{url: url, queue: queue}
	if err := q.connect(); err != nil {
		return nil, err
	}
	return q, nil
}

var _ domain.ComposeQueue = (*RabbitComposeQueue)(nil)

func (q *RabbitComposeQueue) connect() error {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(q.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare queue %s: %w", q.queue, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("set qos: %w", err)
	}
	q.conn = conn
	q.ch = ch
	q.deliveries = nil
	return nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitComposeQueue) Enqueue(ctx context.Context, job domain.ComposeJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	q.mu.Lock()
	if q.conn == nil || q.conn.IsClosed() {
		if err := q.connect(); err != nil {
			q.mu.Unlock()
			return err
		}
	}
	ch := q.ch
	q.mu.Unlock()

	start := time.Now()
	err = ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Receive блокирующе читает одну задачу. Возвращённая ack-функция
// подтверждает обработку либо возвращает сообщение в очередь.
func (q *RabbitComposeQueue) Receive(ctx context.Context) (domain.ComposeJob, domain.ComposeAckFunc, error) {
	deliveries, err := q.consume()
	if err != nil {
		return domain.ComposeJob{}, nil, err
	}
	select {
	case <-ctx.Done():
		return domain.ComposeJob{}, nil, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			q.resetConsumer()
			return domain.ComposeJob{}, nil, errors.New("amqp: канал доставки закрыт")
		}
		var job domain.ComposeJob
		if err := json.Unmarshal(d.Body, &job); err != nil {
			// повреждённое сообщение в очередь не возвращаем
			_ = d.Nack(false, false)
			return domain.ComposeJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return d.Ack(false)
			}
			return d.Nack(false, true)
		}
		return job, ack, nil
	}
}

func (q *RabbitComposeQueue) consume() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.conn == nil || q.conn.IsClosed() {
		if err := q.connect(); err != nil {
			return nil, err
		}
	}
	if q.deliveries == nil {
		deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
		if err != nil {
			return nil, fmt.Errorf("consume %s: %w", q.queue, err)
		}
		q.deliveries = deliveries
	}
	return q.deliveries, nil
}

func (q *RabbitComposeQueue) resetConsumer() {
	q.mu.Lock()
	q.deliveries = nil
	q.mu.Unlock()
}

// Close закрывает канал и соединение с брокером.
func (q *RabbitComposeQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
