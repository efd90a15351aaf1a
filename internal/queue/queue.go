package queue

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
)

// Topics used by the dashboard.
const (
	TopicToasts         = "toasts"
	TopicWorkflowEvents = "workflow_events"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers each message to every subscriber of its topic on
// its own goroutine, retrying failed handlers with a linear backoff.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error

	// MaxRetries and Backoff control redelivery; zero values use 3 and 500ms.
	MaxRetries int
	Backoff    time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := slices.Clone(q.handlers[topic])
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Topic:      topic,
		Payload:    payload,
		MaxRetries: q.MaxRetries,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	log := logging.WithComponent("queue")
	backoff := q.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			log.Debug("job processed", "topic", job.Topic)
			return
		}

		job.RetryCount++
		log.Warn("job failed", "topic", job.Topic, "attempt", job.RetryCount, "max", job.MaxRetries, "error", err)

		if job.RetryCount > job.MaxRetries {
			log.Error("job permanently failed", "topic", job.Topic, "attempts", job.RetryCount)
			return
		}

		time.Sleep(time.Duration(job.RetryCount) * backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}
