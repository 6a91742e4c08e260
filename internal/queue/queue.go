// Package queue is the RabbitMQ-backed task queue used by the scheduler
// and workers. Delivery is at-least-once; retry policy is explicit per
// enqueue call rather than declared on the handler.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Task is the envelope every queue message carries.
type Task struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Payload        json.RawMessage `json:"payload"`
	Attempt        int             `json:"attempt"`
	MaxAttempts    int             `json:"max_attempts"`
	BackoffSeconds int             `json:"backoff_seconds"`
	LastError      string          `json:"last_error,omitempty"`
	EnqueuedAt     time.Time       `json:"enqueued_at"`
}

// LastAttempt reports whether this delivery is the task's final attempt.
// Handlers use it to persist terminal failure state before the task is
// dead-lettered.
func (t Task) LastAttempt() bool {
	return t.Attempt >= t.MaxAttempts
}

// Decode unmarshals the task payload into v.
func (t Task) Decode(v any) error {
	if err := json.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", t.Type, err)
	}
	return nil
}

// RetryPolicy controls redelivery of a failed task.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Retry policies per task type. Monitoring and summarization retry
// quickly; generation calls are expensive and back off longer; webhook
// endpoints get more attempts because remote downtime is common.
var (
	MonitorRetry   = RetryPolicy{MaxAttempts: 3, Backoff: 60 * time.Second}
	SummarizeRetry = RetryPolicy{MaxAttempts: 3, Backoff: 60 * time.Second}
	GenerateRetry  = RetryPolicy{MaxAttempts: 3, Backoff: 120 * time.Second}
	WebhookRetry   = RetryPolicy{MaxAttempts: 5, Backoff: 30 * time.Second}
)

// permanentError marks a handler failure that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the consumer dead-letters the task immediately
// instead of retrying. Used for conditions retrying cannot fix: exceeded
// quotas, missing provider configuration.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
