package queue

import (
	"context"
)

// Message wraps a dequeued Job with its acknowledgement handle
type Message interface {
	// Ack acknowledges successful processing
	Ack() error

	// Nack rejects the message, optionally requeueing it. Nack without
	// requeue routes the message to the dead letter queue.
	Nack(requeue bool) error

	// Job returns the wrapped job
	Job() *Job
}

// JobQueue is the interface for accuracy job queues
type JobQueue interface {
	// Enqueue adds a job to the queue with its tier priority. Enqueueing a
	// job id that was already submitted is a no-op.
	Enqueue(ctx context.Context, job *Job) error

	// Consume returns a channel of messages ordered by priority.
	// Messages are delivered asynchronously as they arrive; the caller is
	// responsible for acknowledging each one. prefetchCount bounds how many
	// unacknowledged messages this consumer holds.
	Consume(ctx context.Context, prefetchCount int) (<-chan Message, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}
