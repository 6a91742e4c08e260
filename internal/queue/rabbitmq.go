package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"contentradar/internal/metrics"
)

const failedQueue = "tasks.failed"

// RabbitMQ implements the task queue over AMQP. Each task type gets a
// durable work queue plus a retry queue whose messages dead-letter back to
// the work queue after their per-message TTL (the backoff) expires.
// Exhausted tasks land in one shared failed-tasks queue.
type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

type Config struct {
	URL      string
	Exchange string
	Prefetch int
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if cfg.Prefetch > 0 {
		if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(failedQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare failed queue: %w", err)
	}

	logger.Info("connected to rabbitmq", "exchange", cfg.Exchange)

	return &RabbitMQ{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		logger:   logger.With("component", "queue"),
	}, nil
}

// DeclareTaskQueue sets up the work and retry queues for one task type.
// Call once per consumed/produced type before Enqueue or Consume.
func (q *RabbitMQ) DeclareTaskQueue(taskType string) error {
	if _, err := q.channel.QueueDeclare(taskType, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", taskType, err)
	}
	if err := q.channel.QueueBind(taskType, taskType, q.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", taskType, err)
	}

	// Expired retry messages dead-letter back into the work queue.
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    q.exchange,
		"x-dead-letter-routing-key": taskType,
	}
	if _, err := q.channel.QueueDeclare(retryQueueName(taskType), true, false, false, false, retryArgs); err != nil {
		return fmt.Errorf("declare retry queue %s: %w", taskType, err)
	}
	return nil
}

// Enqueue publishes one task with the given retry policy.
func (q *RabbitMQ) Enqueue(ctx context.Context, taskType string, payload any, policy RetryPolicy) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	task := Task{
		ID:             uuid.NewString(),
		Type:           taskType,
		Payload:        body,
		Attempt:        1,
		MaxAttempts:    policy.MaxAttempts,
		BackoffSeconds: int(policy.Backoff.Seconds()),
		EnqueuedAt:     time.Now().UTC(),
	}

	if err := q.publish(ctx, q.exchange, taskType, task, 0); err != nil {
		return err
	}

	q.logger.Debug("enqueued task", "task_id", task.ID, "type", taskType)
	return nil
}

// Handler processes one task. A nil return acks the task; an error
// schedules a retry unless the error is Permanent or attempts ran out, in
// which case the task is dead-lettered.
type Handler func(ctx context.Context, task Task) error

// Consume processes deliveries from one task type's work queue until ctx is
// cancelled.
func (q *RabbitMQ) Consume(ctx context.Context, taskType string, handler Handler) error {
	deliveries, err := q.channel.ConsumeWithContext(ctx, taskType, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", taskType, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("consume %s: channel closed", taskType)
			}
			q.handleDelivery(ctx, taskType, delivery, handler)
		}
	}
}

func (q *RabbitMQ) handleDelivery(ctx context.Context, taskType string, delivery amqp.Delivery, handler Handler) {
	var task Task
	if err := json.Unmarshal(delivery.Body, &task); err != nil {
		q.logger.Error("drop malformed task", "queue", taskType, "error", err)
		_ = delivery.Nack(false, false)
		metrics.ObserveTask(taskType, "malformed")
		return
	}

	err := handler(ctx, task)
	if err == nil {
		_ = delivery.Ack(false)
		metrics.ObserveTask(taskType, "ok")
		return
	}

	task.LastError = err.Error()

	if IsPermanent(err) || task.LastAttempt() {
		q.logger.Error("task failed terminally",
			"task_id", task.ID,
			"type", taskType,
			"attempt", task.Attempt,
			"error", err,
		)
		if pubErr := q.publish(ctx, "", failedQueue, task, 0); pubErr != nil {
			q.logger.Error("dead-letter publish failed", "task_id", task.ID, "error", pubErr)
		}
		_ = delivery.Ack(false)
		metrics.ObserveTask(taskType, "failed")
		return
	}

	task.Attempt++
	backoff := time.Duration(task.BackoffSeconds) * time.Second
	q.logger.Warn("task failed, scheduling retry",
		"task_id", task.ID,
		"type", taskType,
		"attempt", task.Attempt,
		"backoff", backoff,
		"error", err,
	)
	if pubErr := q.publish(ctx, "", retryQueueName(taskType), task, backoff); pubErr != nil {
		q.logger.Error("retry publish failed, requeueing", "task_id", task.ID, "error", pubErr)
		_ = delivery.Nack(false, true)
		return
	}
	_ = delivery.Ack(false)
	metrics.ObserveTask(taskType, "retried")
}

func (q *RabbitMQ) publish(ctx context.Context, exchange, routingKey string, task Task, expiration time.Duration) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	publishing := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
	}
	if expiration > 0 {
		publishing.Expiration = fmt.Sprintf("%d", expiration.Milliseconds())
	}

	if err := q.channel.PublishWithContext(ctx, exchange, routingKey, false, false, publishing); err != nil {
		return fmt.Errorf("publish task: %w", err)
	}
	return nil
}

func (q *RabbitMQ) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

func retryQueueName(taskType string) string {
	return taskType + ".retry"
}
