// Package notify models best-effort outbound notifications as an explicit
// dispatcher with its own retry and failure log, decoupled from the success
// path of whatever computation produced them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultQueueSize   = 256
	defaultMaxAttempts = 3
	retryBackoff       = 2 * time.Second
)

// Task is one notification to deliver.
type Task struct {
	Recipient string
	Subject   string
	Body      string
}

// Notifier delivers a single notification. The real implementation (an email
// or push provider) lives outside this module and is injected.
type Notifier interface {
	Notify(ctx context.Context, task Task) error
}

// Dispatcher queues tasks and delivers them on a background worker with
// bounded retries. A full queue drops the task with a logged warning rather
// than blocking the caller: delivery is best-effort by contract.
type Dispatcher struct {
	notifier    Notifier
	queue       chan Task
	maxAttempts int
}

// Options tunes a Dispatcher. Zero values fall back to defaults.
type Options struct {
	QueueSize   int
	MaxAttempts int
}

// NewDispatcher creates a dispatcher delivering through the given notifier.
func NewDispatcher(notifier Notifier, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	return &Dispatcher{
		notifier:    notifier,
		queue:       make(chan Task, opts.QueueSize),
		maxAttempts: opts.MaxAttempts,
	}
}

// Enqueue hands a task to the dispatcher without blocking.
// Returns false if the queue is full and the task was dropped.
func (d *Dispatcher) Enqueue(task Task) bool {
	select {
	case d.queue <- task:
		return true
	default:
		slog.Warn("[Notify] Queue full, dropping notification",
			"recipient", task.Recipient,
			"subject", task.Subject)
		return false
	}
}

// Run delivers queued tasks until ctx is cancelled. Call in its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	slog.Info("[Notify] Dispatcher started",
		"queue_size", cap(d.queue),
		"max_attempts", d.maxAttempts)

	for {
		select {
		case <-ctx.Done():
			slog.Info("[Notify] Dispatcher stopping", "pending", len(d.queue))
			return
		case task := <-d.queue:
			if err := d.deliver(ctx, task); err != nil {
				slog.Error("[Notify] Delivery failed permanently",
					"recipient", task.Recipient,
					"subject", task.Subject,
					"error", err)
			}
		}
	}
}

// deliver attempts the task up to maxAttempts times with fixed backoff.
func (d *Dispatcher) deliver(ctx context.Context, task Task) error {
	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err := d.notifier.Notify(ctx, task); err != nil {
			lastErr = err
			slog.Warn("[Notify] Delivery attempt failed",
				"recipient", task.Recipient,
				"attempt", attempt,
				"error", err)

			if attempt < d.maxAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryBackoff):
				}
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("all %d attempts failed: %w", d.maxAttempts, lastErr)
}
